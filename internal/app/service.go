package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memorygame/internal/domain"
)

// GameSettings fixes how every session of a Service is built.
type GameSettings struct {
	Pairs      int
	TotalSlots int
	Symbols    []domain.Symbol
	Options    domain.Options
}

// DefaultSettings returns the stock 36-slot board with reference rules.
func DefaultSettings() GameSettings {
	return GameSettings{
		Pairs:      16,
		TotalSlots: 36,
		Symbols:    domain.DefaultSymbols,
		Options:    domain.DefaultOptions(),
	}
}

// Outcome classifies how a session ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWon       Outcome = "won"
	OutcomeBombed    Outcome = "bombed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeForfeited Outcome = "forfeited"
)

// Game is one solo session: an engine plus its terminal outcome.
type Game struct {
	ID      string
	Engine  *domain.Engine
	Outcome Outcome
}

// Over reports whether the session has ended.
func (g *Game) Over() bool {
	return g.Outcome != OutcomeNone
}

// Result summarizes a session for the end-of-game report.
func (g *Game) Result() Result {
	return Result{
		GameID:        g.ID,
		Outcome:       g.Outcome,
		Score:         g.Engine.Score(),
		HighestStreak: g.Engine.HighestStreak(),
		Steps:         g.Engine.Steps(),
		PairsMatched:  g.Engine.NormalPairsMatchedCount(),
	}
}

// Service contains memory-game use-cases operating on domain state.
type Service struct {
	rng      *rand.Rand
	logger   *zap.Logger
	signer   *ResultSigner
	settings GameSettings
}

// NewService constructs a Service. rng may be nil to use a time-seeded default, logger may be nil
// to discard logs, and signer may be nil to end games without a token.
func NewService(rng *rand.Rand, logger *zap.Logger, signer *ResultSigner, settings GameSettings) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{rng: rng, logger: logger, signer: signer, settings: settings}
}

var (
	ErrNoGame           = errors.New("no game in progress")
	ErrGameOver         = errors.New("game is over")
	ErrAlreadyPending   = errors.New("a revealed pair is awaiting resolution")
	ErrNothingToResolve = errors.New("no revealed pair to resolve")
)

// Settings returns the settings new sessions are built with.
func (s *Service) Settings() GameSettings {
	return s.settings
}

// NewGame builds a fresh session from the service settings.
func (s *Service) NewGame() (*Game, []Event, error) {
	engine, err := domain.NewEngine(s.rng, s.settings.Pairs, s.settings.Symbols, s.settings.TotalSlots, s.settings.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("new game: %w", err)
	}
	game := &Game{ID: uuid.NewString(), Engine: engine}

	s.logger.Info("game started",
		zap.String("session_id", game.ID),
		zap.Int("cards", engine.Len()),
	)
	return game, []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{GameID: game.ID, Snapshot: engine.Snapshot()},
	}}, nil
}

// Restart abandons game and starts a new session with the same settings.
func (s *Service) Restart(game *Game) (*Game, []Event, error) {
	if game != nil && !game.Over() {
		s.logger.Info("game abandoned", zap.String("session_id", game.ID), zap.Int("steps", game.Engine.Steps()))
	}
	return s.NewGame()
}

// Select flips the card at index. Selecting the held card again or a matched card emits nothing.
// A completed pair must be resolved before the next selection.
func (s *Service) Select(game *Game, index int) ([]Event, error) {
	if err := checkPlayable(game); err != nil {
		return nil, err
	}
	pending := game.Engine.Pending()
	if len(pending) == 2 {
		return nil, ErrAlreadyPending
	}
	if len(pending) == 1 && pending[0] == index && game.Engine.Cards()[index].FaceUp {
		return nil, nil
	}

	sel, err := game.Engine.SelectCard(index)
	if err != nil {
		return nil, err
	}

	var events []Event
	switch sel {
	case domain.SelectionIgnored:
		return nil, nil
	case domain.SelectionReshuffled:
		s.logger.Info("board reshuffled", zap.String("session_id", game.ID), zap.Int("index", index))
		events = append(events, Event{Kind: EventBoardReshuffled, Payload: BoardPayload{Snapshot: game.Engine.Snapshot()}})
		return s.appendMessage(game, events), nil
	}

	sym, err := game.Engine.Symbol(index)
	if err != nil {
		return nil, err
	}
	events = append(events, Event{Kind: EventCardFlipped, Payload: CardFlippedPayload{Index: index, Symbol: sym}})

	if sel == domain.SelectionPair {
		pending = game.Engine.Pending()
		events = append(events, Event{
			Kind:    EventPairRevealed,
			Payload: PairRevealedPayload{First: pending[0], Second: pending[1]},
		})
	}
	return events, nil
}

// Resolve compares the revealed pair and classifies the session when it ends.
func (s *Service) Resolve(game *Game) ([]Event, error) {
	if err := checkPlayable(game); err != nil {
		return nil, err
	}
	pending := game.Engine.Pending()
	if len(pending) != 2 {
		return nil, ErrNothingToResolve
	}
	first, second := pending[0], pending[1]

	result, err := game.Engine.CheckMatch(first, second)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("pair resolved",
		zap.String("session_id", game.ID),
		zap.Stringer("result", result),
		zap.Int("score", game.Engine.Score()),
		zap.Int("streak", game.Engine.Streak()),
		zap.Int("steps", game.Engine.Steps()),
		zap.String("phase", string(game.Engine.Phase())),
	)

	events := []Event{{
		Kind: EventPairResolved,
		Payload: PairResolvedPayload{
			First:  first,
			Second: second,
			Result: result,
			Score:  game.Engine.Score(),
			Streak: game.Engine.Streak(),
		},
	}}
	events = s.appendMessage(game, events)

	switch {
	case result == domain.Bomb:
		game.Outcome = OutcomeBombed
	case result == domain.TimeoutBomb:
		game.Outcome = OutcomeTimedOut
	case result == domain.Matched && game.Engine.AllNormalPairsMatched():
		game.Outcome = OutcomeWon
	}
	if game.Over() {
		if game.Outcome != OutcomeWon {
			game.Engine.FlipAllFaceUp()
		}
		events = append(events, s.endEvent(game))
	}
	return events, nil
}

// Peek toggles every unmatched card face-up or face-down. Pending pairs must be resolved first.
func (s *Service) Peek(game *Game) ([]Event, error) {
	if err := checkPlayable(game); err != nil {
		return nil, err
	}
	if len(game.Engine.Pending()) == 2 {
		return nil, ErrAlreadyPending
	}
	game.Engine.ToggleAllFaceUp()
	return []Event{{Kind: EventBoardPeeked, Payload: BoardPayload{Snapshot: game.Engine.Snapshot()}}}, nil
}

// ResetBoard turns every card face-down and re-deals all identities. Score, streak and steps are kept.
func (s *Service) ResetBoard(game *Game) ([]Event, error) {
	if err := checkPlayable(game); err != nil {
		return nil, err
	}
	game.Engine.ResetAllCards()
	s.logger.Info("board reset", zap.String("session_id", game.ID))
	return []Event{{Kind: EventBoardReset, Payload: BoardPayload{Snapshot: game.Engine.Snapshot()}}}, nil
}

// Forfeit reveals the whole board and ends the session.
func (s *Service) Forfeit(game *Game) ([]Event, error) {
	if err := checkPlayable(game); err != nil {
		return nil, err
	}
	game.Engine.FlipAllFaceUp()
	game.Outcome = OutcomeForfeited
	return []Event{s.endEvent(game)}, nil
}

func (s *Service) endEvent(game *Game) Event {
	result := game.Result()
	var token string
	if s.signer != nil {
		signed, err := s.signer.Sign(result)
		if err != nil {
			s.logger.Warn("failed to sign result", zap.String("session_id", game.ID), zap.Error(err))
		} else {
			token = signed
		}
	}
	s.logger.Info("game ended",
		zap.String("session_id", game.ID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("score", result.Score),
		zap.Int("steps", result.Steps),
	)
	return Event{Kind: EventGameEnded, Payload: GameEndedPayload{Result: result, Token: token}}
}

func (s *Service) appendMessage(game *Game, events []Event) []Event {
	if msg, ok := game.Engine.PopMessage(); ok {
		events = append(events, Event{Kind: EventSystemMessage, Payload: SystemMessagePayload{Message: msg}})
	}
	return events
}

func checkPlayable(game *Game) error {
	if game == nil || game.Engine == nil {
		return ErrNoGame
	}
	if game.Over() {
		return ErrGameOver
	}
	return nil
}
