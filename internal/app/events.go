package app

import "memorygame/internal/domain"

// EventKind identifies emitted session events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted     EventKind = "game_started"
	EventCardFlipped     EventKind = "card_flipped"
	EventPairRevealed    EventKind = "pair_revealed"
	EventPairResolved    EventKind = "pair_resolved"
	EventBoardReshuffled EventKind = "board_reshuffled"
	EventBoardReset      EventKind = "board_reset"
	EventBoardPeeked     EventKind = "board_peeked"
	EventSystemMessage   EventKind = "system_message"
	EventGameEnded       EventKind = "game_ended"
)

// Event is a session event. Every event of a solo session goes to its owner.
type Event struct {
	Kind    EventKind
	Payload any
}

type GameStartedPayload struct {
	GameID   string
	Snapshot domain.Snapshot
}

type CardFlippedPayload struct {
	Index  int
	Symbol domain.Symbol
}

// PairRevealedPayload signals that two cards are face-up and a resolution is due.
type PairRevealedPayload struct {
	First  int
	Second int
}

type PairResolvedPayload struct {
	First  int
	Second int
	Result domain.MatchResult
	Score  int
	Streak int
}

type BoardPayload struct {
	Snapshot domain.Snapshot
}

type SystemMessagePayload struct {
	Message string
}

type GameEndedPayload struct {
	Result Result
	// Token is the signed result, empty when signing is disabled.
	Token string
}
