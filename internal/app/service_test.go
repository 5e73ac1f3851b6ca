package app

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorygame/internal/domain"
)

func newTestService(t *testing.T, pairs, slots int, opts domain.Options, signer *ResultSigner) *Service {
	t.Helper()
	return NewService(rand.New(rand.NewSource(7)), nil, signer, GameSettings{
		Pairs:      pairs,
		TotalSlots: slots,
		Symbols:    domain.DefaultSymbols,
		Options:    opts,
	})
}

// layoutOf binds every card and returns the board positions of each identity.
func layoutOf(t *testing.T, game *Game) map[domain.Symbol][]int {
	t.Helper()
	out := make(map[domain.Symbol][]int)
	for i := 0; i < game.Engine.Len(); i++ {
		sym, err := game.Engine.Symbol(i)
		require.NoError(t, err)
		out[sym] = append(out[sym], i)
	}
	return out
}

func normalPair(t *testing.T, layout map[domain.Symbol][]int) (int, int) {
	t.Helper()
	for sym, idx := range layout {
		if !domain.IsSpecial(sym) && len(idx) >= 2 {
			return idx[0], idx[1]
		}
	}
	t.Fatal("no normal pair on board")
	return 0, 0
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestNewGame(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, evs, err := svc.NewGame()
	require.NoError(t, err)

	_, err = uuid.Parse(game.ID)
	assert.NoError(t, err)
	assert.Equal(t, 36, game.Engine.Len())
	assert.False(t, game.Over())

	require.Len(t, evs, 1)
	assert.Equal(t, EventGameStarted, evs[0].Kind)
	payload := evs[0].Payload.(GameStartedPayload)
	assert.Equal(t, game.ID, payload.GameID)
	for _, c := range payload.Snapshot.Cards {
		assert.False(t, c.FaceUp)
		assert.Empty(t, c.Symbol)
	}
}

func TestNewGame_InvalidSettings(t *testing.T) {
	svc := newTestService(t, 2, 4, domain.DefaultOptions(), nil)
	_, _, err := svc.NewGame()
	assert.ErrorIs(t, err, domain.ErrInvalidSlots)
}

func TestSelectAndResolve_Match(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	a, b := normalPair(t, layoutOf(t, game))

	evs, err := svc.Select(game, a)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventCardFlipped}, kinds(evs))

	evs, err = svc.Select(game, b)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventCardFlipped, EventPairRevealed}, kinds(evs))
	assert.Equal(t, PairRevealedPayload{First: a, Second: b}, evs[1].Payload)

	_, err = svc.Select(game, a)
	assert.ErrorIs(t, err, ErrAlreadyPending)
	_, err = svc.Peek(game)
	assert.ErrorIs(t, err, ErrAlreadyPending)

	evs, err = svc.Resolve(game)
	require.NoError(t, err)
	require.Equal(t, []EventKind{EventPairResolved}, kinds(evs))
	resolved := evs[0].Payload.(PairResolvedPayload)
	assert.Equal(t, domain.Matched, resolved.Result)
	assert.Equal(t, 10, resolved.Score)
	assert.Equal(t, 1, resolved.Streak)
	assert.False(t, game.Over())

	_, err = svc.Resolve(game)
	assert.ErrorIs(t, err, ErrNothingToResolve)
}

func TestSelect_SameCardTwiceIsIgnored(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	a, _ := normalPair(t, layoutOf(t, game))

	_, err = svc.Select(game, a)
	require.NoError(t, err)
	evs, err := svc.Select(game, a)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Equal(t, 1, game.Engine.Steps())
	assert.Equal(t, []int{a}, game.Engine.Pending())
}

func TestSelect_OutOfRange(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)

	_, err = svc.Select(game, 36)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestSelect_NoGame(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	_, err := svc.Select(nil, 0)
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = svc.Resolve(&Game{})
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestResolve_BombEndsGame(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	bombs := layoutOf(t, game)[domain.SymbolBomb]
	require.Len(t, bombs, 2)

	_, err = svc.Select(game, bombs[0])
	require.NoError(t, err)
	_, err = svc.Select(game, bombs[1])
	require.NoError(t, err)

	evs, err := svc.Resolve(game)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventPairResolved, EventGameEnded}, kinds(evs))
	assert.Equal(t, OutcomeBombed, game.Outcome)

	ended := evs[1].Payload.(GameEndedPayload)
	assert.Equal(t, OutcomeBombed, ended.Result.Outcome)
	assert.Empty(t, ended.Token)
	for _, c := range game.Engine.Cards() {
		assert.True(t, c.FaceUp, "loss reveals the board")
	}

	_, err = svc.Select(game, 0)
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = svc.Forfeit(game)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestResolve_TimeoutBomb(t *testing.T) {
	opts := domain.DefaultOptions()
	opts.StepTimeout = 1
	svc := newTestService(t, 2, 8, opts, nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	a, b := normalPair(t, layoutOf(t, game))

	_, err = svc.Select(game, a)
	require.NoError(t, err)
	_, err = svc.Select(game, b)
	require.NoError(t, err)

	evs, err := svc.Resolve(game)
	require.NoError(t, err)
	assert.Equal(t, domain.TimeoutBomb, evs[0].Payload.(PairResolvedPayload).Result)
	assert.Equal(t, OutcomeTimedOut, game.Outcome)
}

func TestResolve_WinSignsResult(t *testing.T) {
	signer := NewResultSigner("0123456789abcdef", "memorygame", time.Hour)
	svc := newTestService(t, 1, 6, domain.DefaultOptions(), signer)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	a, b := normalPair(t, layoutOf(t, game))

	_, err = svc.Select(game, a)
	require.NoError(t, err)
	_, err = svc.Select(game, b)
	require.NoError(t, err)
	evs, err := svc.Resolve(game)
	require.NoError(t, err)

	require.Equal(t, []EventKind{EventPairResolved, EventGameEnded}, kinds(evs))
	assert.Equal(t, OutcomeWon, game.Outcome)

	ended := evs[1].Payload.(GameEndedPayload)
	require.NotEmpty(t, ended.Token)
	got, err := signer.Verify(ended.Token)
	require.NoError(t, err)
	assert.Equal(t, ended.Result, got)
	assert.Equal(t, 1, got.PairsMatched)
	assert.Equal(t, 10, got.Score)
}

func TestSelect_ReshuffleEntersSecondPhase(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	reshuffle := layoutOf(t, game)[domain.SymbolReshuffle]
	require.Len(t, reshuffle, 1)

	evs, err := svc.Select(game, reshuffle[0])
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventBoardReshuffled, EventSystemMessage}, kinds(evs))
	assert.Equal(t, domain.MessageReshuffled, evs[1].Payload.(SystemMessagePayload).Message)
	assert.Equal(t, domain.PhaseSecond, game.Engine.Phase())
	assert.Empty(t, game.Engine.Pending())

	layout := layoutOf(t, game)
	assert.Empty(t, layout[domain.SymbolReshuffle])
	assert.Len(t, layout[domain.SymbolDefuse], 2)
}

func TestResolve_DefusePairEmitsMessage(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	reshuffle := layoutOf(t, game)[domain.SymbolReshuffle]
	_, err = svc.Select(game, reshuffle[0])
	require.NoError(t, err)
	defuse := layoutOf(t, game)[domain.SymbolDefuse]
	require.Len(t, defuse, 2)

	_, err = svc.Select(game, defuse[0])
	require.NoError(t, err)
	_, err = svc.Select(game, defuse[1])
	require.NoError(t, err)
	evs, err := svc.Resolve(game)
	require.NoError(t, err)

	assert.Equal(t, []EventKind{EventPairResolved, EventSystemMessage}, kinds(evs))
	assert.Equal(t, domain.MessageBombsDefused, evs[1].Payload.(SystemMessagePayload).Message)
	assert.True(t, game.Engine.BombsDefused())
	assert.Equal(t, 0, game.Engine.Score())
}

func TestPeekTogglesBoard(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)

	evs, err := svc.Peek(game)
	require.NoError(t, err)
	require.Equal(t, []EventKind{EventBoardPeeked}, kinds(evs))
	for _, c := range evs[0].Payload.(BoardPayload).Snapshot.Cards {
		assert.True(t, c.FaceUp)
		assert.NotEmpty(t, c.Symbol)
	}

	_, err = svc.Peek(game)
	require.NoError(t, err)
	for _, c := range game.Engine.Cards() {
		assert.False(t, c.FaceUp)
	}
}

func TestResetBoardKeepsCounters(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	a, b := normalPair(t, layoutOf(t, game))
	_, err = svc.Select(game, a)
	require.NoError(t, err)
	_, err = svc.Select(game, b)
	require.NoError(t, err)
	_, err = svc.Resolve(game)
	require.NoError(t, err)

	evs, err := svc.ResetBoard(game)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventBoardReset}, kinds(evs))
	assert.Equal(t, 10, game.Engine.Score())
	assert.Equal(t, 1, game.Engine.Steps())
	for _, c := range game.Engine.Cards() {
		assert.False(t, c.FaceUp)
		assert.False(t, c.Matched)
	}
}

func TestForfeitRevealsBoard(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)

	evs, err := svc.Forfeit(game)
	require.NoError(t, err)
	require.Equal(t, []EventKind{EventGameEnded}, kinds(evs))
	assert.Equal(t, OutcomeForfeited, game.Outcome)
	for _, c := range game.Engine.Snapshot().Cards {
		assert.True(t, c.FaceUp)
		assert.NotEmpty(t, c.Symbol)
	}
}

func TestRestartStartsFreshSession(t *testing.T) {
	svc := newTestService(t, 16, 36, domain.DefaultOptions(), nil)
	game, _, err := svc.NewGame()
	require.NoError(t, err)
	_, err = svc.Forfeit(game)
	require.NoError(t, err)

	next, evs, err := svc.Restart(game)
	require.NoError(t, err)
	assert.NotEqual(t, game.ID, next.ID)
	assert.False(t, next.Over())
	assert.Equal(t, 0, next.Engine.Steps())
	assert.Equal(t, []EventKind{EventGameStarted}, kinds(evs))
}
