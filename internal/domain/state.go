package domain

// Phase represents the coarse stage of a session.
type Phase string

const (
	// PhaseFirst is the opening phase; revealing the reshuffle card ends it.
	PhaseFirst Phase = "first"
	// PhaseSecond follows the reshuffle and is never left.
	PhaseSecond Phase = "second"
)

// Stage folds phase and bomb state into one value so the two cannot drift apart.
type Stage int

const (
	StageFirstArmed Stage = iota
	StageFirstDefused
	StageSecondArmed
	StageSecondDefused
)

// Phase returns the phase this stage belongs to.
func (s Stage) Phase() Phase {
	if s == StageSecondArmed || s == StageSecondDefused {
		return PhaseSecond
	}
	return PhaseFirst
}

// BombsDefused reports whether bombs are disarmed in this stage.
func (s Stage) BombsDefused() bool {
	return s == StageFirstDefused || s == StageSecondDefused
}

func (s Stage) defused() Stage {
	if s.Phase() == PhaseSecond {
		return StageSecondDefused
	}
	return StageFirstDefused
}

func (s Stage) String() string {
	switch s {
	case StageFirstArmed:
		return "first_armed"
	case StageFirstDefused:
		return "first_defused"
	case StageSecondArmed:
		return "second_armed"
	case StageSecondDefused:
		return "second_defused"
	default:
		return "unknown"
	}
}

// Card is one board slot. ID is the card's position in the originally built deck and keys its identity.
type Card struct {
	ID      int
	FaceUp  bool
	Matched bool
}

// MatchResult classifies the resolution of a revealed pair.
type MatchResult int

const (
	Matched MatchResult = iota
	NotMatched
	Bomb
	TimeoutBomb
)

func (r MatchResult) String() string {
	switch r {
	case Matched:
		return "matched"
	case NotMatched:
		return "not_matched"
	case Bomb:
		return "bomb"
	case TimeoutBomb:
		return "timeout_bomb"
	default:
		return "unknown"
	}
}

// Selection tells the caller what SelectCard did.
type Selection int

const (
	// SelectionIgnored means the card was already matched.
	SelectionIgnored Selection = iota
	// SelectionFirst means a new pending selection began.
	SelectionFirst
	// SelectionPair means a second card was flipped and the pair awaits CheckMatch.
	SelectionPair
	// SelectionReshuffled means the reshuffle card fired and the second phase began.
	SelectionReshuffled
)

// CardView is the read-only projection of a card. Symbol is empty while the card is face-down.
type CardView struct {
	ID      int
	FaceUp  bool
	Matched bool
	Symbol  Symbol
}

// Snapshot is the read-only view the presentation layer renders from.
type Snapshot struct {
	Cards         []CardView
	Score         int
	Streak        int
	HighestStreak int
	Steps         int
	Phase         Phase
	BombsDefused  bool
	Pending       []int
}
