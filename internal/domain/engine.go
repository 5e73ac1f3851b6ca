package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// Options tunes the rules of an Engine. Zero values are replaced by defaults in NewEngine,
// except StepTimeout where a negative value disables the timeout.
type Options struct {
	// StepTimeout is the step count at which armed bombs detonate on the next resolution.
	StepTimeout     int
	MatchPoints     int
	MismatchPenalty int
	// Filler is bound when the identity pool is exhausted.
	Filler Symbol
}

// DefaultOptions returns the reference rules.
func DefaultOptions() Options {
	return Options{
		StepTimeout:     DefaultStepTimeout,
		MatchPoints:     DefaultMatchPoints,
		MismatchPenalty: DefaultMismatchPenalty,
		Filler:          SymbolFiller,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StepTimeout == 0 {
		o.StepTimeout = d.StepTimeout
	}
	if o.MatchPoints == 0 {
		o.MatchPoints = d.MatchPoints
	}
	if o.MismatchPenalty == 0 {
		o.MismatchPenalty = d.MismatchPenalty
	}
	if o.Filler == "" {
		o.Filler = d.Filler
	}
	return o
}

// Engine is the stateful core of a memory-matching session. It is not safe for concurrent use;
// callers serialize commands.
type Engine struct {
	rng   *rand.Rand
	opts  Options
	cards []Card
	ids   *identityTable
	stage Stage

	score         int
	streak        int
	highestStreak int
	steps         int

	// pending holds zero, one or two board indices awaiting comparison. It is independent of stage:
	// phase changes and resets clear it, and CheckMatch only accepts it as the pair to resolve.
	pending []int
	message string
}

// NewEngine builds a deck and returns an engine ready for the first selection.
// rng may be nil to use a time-seeded default.
func NewEngine(rng *rand.Rand, requestedPairs int, symbols []Symbol, totalSlots int, opts Options) (*Engine, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	opts = opts.withDefaults()
	deck, err := BuildDeck(rng, requestedPairs, symbols, totalSlots)
	if err != nil {
		return nil, err
	}
	return &Engine{
		rng:     rng,
		opts:    opts,
		cards:   deck.Cards,
		ids:     newIdentityTable(deck.Pool, opts.Filler),
		stage:   StageFirstArmed,
		pending: make([]int, 0, 2),
	}, nil
}

// Len returns the number of cards on the board.
func (e *Engine) Len() int { return len(e.cards) }

func (e *Engine) Score() int         { return e.score }
func (e *Engine) Streak() int        { return e.streak }
func (e *Engine) HighestStreak() int { return e.highestStreak }
func (e *Engine) Steps() int         { return e.steps }
func (e *Engine) Stage() Stage       { return e.stage }
func (e *Engine) Phase() Phase       { return e.stage.Phase() }
func (e *Engine) BombsDefused() bool { return e.stage.BombsDefused() }

// Cards returns a copy of the board.
func (e *Engine) Cards() []Card {
	return append([]Card(nil), e.cards...)
}

// Pending returns a copy of the indices currently held for comparison.
func (e *Engine) Pending() []int {
	return append([]int(nil), e.pending...)
}

// PopMessage returns the pending system message once, then clears it.
func (e *Engine) PopMessage() (string, bool) {
	if e.message == "" {
		return "", false
	}
	msg := e.message
	e.message = ""
	return msg, true
}

// Symbol force-reveals the identity of the card at index, binding it if needed.
func (e *Engine) Symbol(index int) (Symbol, error) {
	if err := e.checkIndex(index); err != nil {
		return "", err
	}
	return e.symbolAt(index), nil
}

// Snapshot returns an ordered view of the board and counters. Only face-up cards expose a symbol.
func (e *Engine) Snapshot() Snapshot {
	views := make([]CardView, len(e.cards))
	for i, c := range e.cards {
		v := CardView{ID: c.ID, FaceUp: c.FaceUp, Matched: c.Matched}
		if c.FaceUp {
			v.Symbol = e.symbolAt(i)
		}
		views[i] = v
	}
	return Snapshot{
		Cards:         views,
		Score:         e.score,
		Streak:        e.streak,
		HighestStreak: e.highestStreak,
		Steps:         e.steps,
		Phase:         e.stage.Phase(),
		BombsDefused:  e.stage.BombsDefused(),
		Pending:       e.Pending(),
	}
}

// SelectCard flips the card at index. It is a no-op on matched cards.
// Revealing the reshuffle card during the first phase reshuffles the board and enters the second phase.
// A new selection first flips every unmatched card back down, so stale pairs never linger.
func (e *Engine) SelectCard(index int) (Selection, error) {
	if err := e.checkIndex(index); err != nil {
		return SelectionIgnored, err
	}
	if e.cards[index].Matched {
		return SelectionIgnored, nil
	}

	if e.stage.Phase() == PhaseFirst && e.symbolAt(index) == SymbolReshuffle {
		e.message = MessageReshuffled
		e.ResetAndShuffleCards()
		e.EnterSecondPhase()
		return SelectionReshuffled, nil
	}

	if first, ok := e.heldFirst(); ok && first != index {
		e.cards[index].FaceUp = true
		if e.symbolAt(first) == e.symbolAt(index) {
			e.cards[first].Matched = true
			e.cards[index].Matched = true
		}
		e.pending = append(e.pending, index)
		return SelectionPair, nil
	}

	e.flipDownUnmatched()
	e.cards[index].FaceUp = true
	e.pending = append(e.pending[:0], index)
	e.steps++
	return SelectionFirst, nil
}

// heldFirst returns the sole pending index when it is still face-up and unmatched.
func (e *Engine) heldFirst() (int, bool) {
	if len(e.pending) != 1 {
		return 0, false
	}
	c := e.cards[e.pending[0]]
	if !c.FaceUp || c.Matched {
		return 0, false
	}
	return e.pending[0], true
}

// DefuseBombs rebinds the bomb cards to a fresh identity from the pool, or the filler once it is empty.
// Every card is bound first so no bomb stays behind in the pool, and bombs are rebound two at a time
// to a shared identity so every identity on the board keeps an even count.
func (e *Engine) DefuseBombs() {
	var bombs []int
	for i, c := range e.cards {
		if e.symbolAt(i) == SymbolBomb {
			bombs = append(bombs, c.ID)
		}
	}
	for i := 0; i < len(bombs); i += 2 {
		s := e.ids.draw()
		e.ids.rebind(bombs[i], s)
		if i+1 < len(bombs) {
			e.ids.rebind(bombs[i+1], s)
		}
	}
	e.stage = e.stage.defused()
	e.message = MessageBombsDefused
}

// EnterSecondPhase moves the session to its second phase. The reshuffle identity becomes a defuse
// everywhere, bound or not, and bombs are re-armed. Calling it again is a no-op.
func (e *Engine) EnterSecondPhase() {
	if e.stage.Phase() == PhaseSecond {
		return
	}
	e.stage = StageSecondArmed
	for _, c := range e.cards {
		if s, ok := e.ids.peek(c.ID); ok && s == SymbolReshuffle {
			e.ids.rebind(c.ID, SymbolDefuse)
		}
	}
	e.ids.replaceUnbound(SymbolReshuffle, SymbolDefuse)
	e.pending = e.pending[:0]
}

// ResetAndShuffleCards turns every card face-down and unmatched and re-randomizes board order.
// Bound identities are kept.
func (e *Engine) ResetAndShuffleCards() {
	for i := range e.cards {
		e.cards[i].FaceUp = false
		e.cards[i].Matched = false
	}
	ShuffleCards(e.rng, e.cards)
	e.pending = e.pending[:0]
}

// ResetAllCards turns every card face-down and unmatched, returns all bound identities to the pool,
// reshuffles it and forgets the bindings.
func (e *Engine) ResetAllCards() {
	for i := range e.cards {
		e.cards[i].FaceUp = false
		e.cards[i].Matched = false
	}
	e.ids.reset(e.rng)
	e.pending = e.pending[:0]
}

// FlipAllFaceUp reveals and matches every card. It is the forfeit/reveal-all command.
func (e *Engine) FlipAllFaceUp() {
	for i := range e.cards {
		e.cards[i].FaceUp = true
		e.cards[i].Matched = true
	}
	e.pending = e.pending[:0]
}

// ToggleAllFaceUp flips every unmatched card without matching it.
func (e *Engine) ToggleAllFaceUp() {
	for i := range e.cards {
		if !e.cards[i].Matched {
			e.cards[i].FaceUp = !e.cards[i].FaceUp
		}
	}
}

// AllNormalPairsMatched reports whether every card with a non-special identity is matched.
// Unbound identities are bound as a side effect.
func (e *Engine) AllNormalPairsMatched() bool {
	for i, c := range e.cards {
		if c.Matched {
			continue
		}
		if !IsSpecial(e.symbolAt(i)) {
			return false
		}
	}
	return true
}

// NormalPairsMatchedCount returns the number of matched non-bomb pairs.
func (e *Engine) NormalPairsMatchedCount() int {
	n := 0
	for i, c := range e.cards {
		if c.Matched && e.symbolAt(i) != SymbolBomb {
			n++
		}
	}
	return n / 2
}

func (e *Engine) symbolAt(index int) Symbol {
	return e.ids.bind(e.cards[index].ID)
}

func (e *Engine) flipDownUnmatched() {
	for i := range e.cards {
		if !e.cards[i].Matched {
			e.cards[i].FaceUp = false
		}
	}
}

func (e *Engine) checkIndex(index int) error {
	if index < 0 || index >= len(e.cards) {
		return fmt.Errorf("%w: %d (board has %d cards)", ErrIndexOutOfRange, index, len(e.cards))
	}
	return nil
}
