package nakama

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"

	"memorygame/internal/app"
	"memorygame/internal/bot"
	"memorygame/internal/config"
	"memorygame/internal/logging"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
// A memory match hosts a single player: the first human to join owns it.
type MatchState struct {
	OwnerID          string                      `json:"owner_id"`           // User ID of the owning player, empty until someone joins
	Tick             int64                       `json:"tick"`               // Current tick of the match
	TickRate         int                         `json:"tick_rate"`          // Ticks per second
	StartTick        int64                       `json:"start_tick"`         // Tick at which the current game started
	EndTick          int64                       `json:"end_tick"`           // Tick at which the current game ended, 0 while running
	ResolvePending   bool                        `json:"resolve_pending"`    // Whether a revealed pair awaits resolution
	ResolveAtTick    int64                       `json:"resolve_at_tick"`    // Tick when the revealed pair is resolved
	RevealDelayTicks int64                       `json:"reveal_delay_ticks"` // How long a revealed pair stays visible
	Autoplay         bool                        `json:"autoplay"`           // Whether the bot plays on the owner's behalf
	BotDelayTicks    int64                       `json:"bot_delay_ticks"`    // Ticks between autoplay selections
	BotWaitUntil     int64                       `json:"bot_wait_until"`     // Tick when the bot should act
	Presences        map[string]runtime.Presence `json:"-"`                  // Map UserId -> Presence for targeted messaging
	App              *app.Service                `json:"-"`                  // Memory app service with game logic
	Game             *app.Game                   `json:"-"`                  // Current session (nil before the first start)
	Bot              *bot.Agent                  `json:"-"`                  // Memory used for hints and autoplay
	Log              *zap.Logger                 `json:"-"`                  // Structured app logger, flushed when the match ends
}

// ElapsedSeconds returns how long the current game has been running, frozen once it ends.
func (ms *MatchState) ElapsedSeconds() int64 {
	if ms.Game == nil || ms.TickRate <= 0 {
		return 0
	}
	end := ms.Tick
	if ms.EndTick > 0 {
		end = ms.EndTick
	}
	return (end - ms.StartTick) / int64(ms.TickRate)
}

// flushLogs syncs the app logger. Sync errors on console outputs are not actionable and are dropped.
func (ms *MatchState) flushLogs() {
	if ms.Log != nil {
		_ = ms.Log.Sync()
	}
}

func (ms *MatchState) playing() bool {
	return ms.Game != nil && !ms.Game.Over()
}

func (ms *MatchState) labelPhase() string {
	switch {
	case ms.Game == nil:
		return labelPhaseLobby
	case ms.Game.Over():
		return labelPhaseEnded
	default:
		return labelPhasePlaying
	}
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg := loadConfig(logger, env[EnvConfigPath])

	autoplay := cfg.Match.Autoplay
	if val, ok := env[EnvAutoplay]; ok {
		if b, err := strconv.ParseBool(val); err == nil {
			autoplay = b
		} else {
			logger.Warn("MatchInit: Ignoring invalid %s=%q", EnvAutoplay, val)
		}
	}

	zl, err := logging.New(cfg.Logging)
	if err != nil {
		logger.Warn("MatchInit: Could not build app logger: %v", err)
		zl = zap.NewNop()
	}
	signer := app.NewResultSigner(cfg.Results.Secret, cfg.Results.Issuer, time.Duration(cfg.Results.TTLSeconds)*time.Second)

	state := &MatchState{
		TickRate:         cfg.Match.TickRate,
		RevealDelayTicks: int64(cfg.Match.RevealDelayTicks),
		Autoplay:         autoplay,
		BotDelayTicks:    int64(cfg.Match.BotDelayTicks),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil, zl, signer, settingsFromConfig(cfg, pairsParam(params))),
		Bot:              bot.NewAgent(nil),
		Log:              zl,
	}

	label, err := encodeLabel(labelFields(state))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, state.TickRate, label
}

// loadConfig returns the process-wide configuration, falling back to defaults when loading fails.
func loadConfig(logger runtime.Logger, path string) *config.GameConfig {
	if err := config.LoadGameConfig(path); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	if cfg := config.GetGameConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// pairsParam reads the optional "pairs" match parameter.
func pairsParam(params map[string]interface{}) int {
	switch v := params["pairs"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func labelFields(state *MatchState) map[string]any {
	return map[string]any{
		"game":  labelGame,
		"open":  state.OwnerID == "",
		"phase": state.labelPhase(),
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if matchState.OwnerID != "" && matchState.OwnerID != presence.GetUserId() {
		return state, false, "Match full"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		if matchState.OwnerID == "" {
			matchState.OwnerID = p.GetUserId()
			logger.Debug("MatchJoin: Owner set to %s.", p.GetUserId())
		}
		if p.GetUserId() != matchState.OwnerID {
			logger.Warn("MatchJoin: User %s joined a match owned by %s, ignoring.", p.GetUserId(), matchState.OwnerID)
			continue
		}
		matchState.Presences[p.GetUserId()] = p
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.sendSnapshot(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match. The match ends with its owner.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		if p.GetUserId() == matchState.OwnerID {
			logger.Info("MatchLeave: Owner %s left, terminating match.", p.GetUserId())
			matchState.flushLogs()
			return nil
		}
	}

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	// Handle incoming messages
	for _, msg := range messages {
		if msg.GetUserId() != matchState.OwnerID {
			logger.Warn("MatchLoop: Ignoring opcode %d from non-owner %s", msg.GetOpCode(), msg.GetUserId())
			continue
		}
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(matchState, dispatcher, logger, msg)
		case OpSelectCard:
			mh.handleSelectCard(matchState, dispatcher, logger, msg)
		case OpPeek:
			mh.handlePeek(matchState, dispatcher, logger, msg)
		case OpForfeit:
			mh.handleForfeit(matchState, dispatcher, logger, msg)
		case OpRestart:
			mh.handleRestart(matchState, dispatcher, logger, msg)
		case OpRequestHint:
			mh.handleRequestHint(matchState, dispatcher, logger, msg)
		case OpResetBoard:
			mh.handleResetBoard(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.ResolvePending && tick >= matchState.ResolveAtTick {
		mh.resolvePending(matchState, dispatcher, logger)
		mh.sendSnapshot(matchState, dispatcher, logger)
	}

	if matchState.Autoplay {
		mh.processBot(matchState, dispatcher, logger)
	}

	return matchState
}

// processBot plays one selection on behalf of the owner whenever the bot's delay has elapsed.
func (mh *matchHandler) processBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.OwnerID == "" || state.ResolvePending {
		return
	}
	if state.Game != nil && state.Game.Over() {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + state.BotDelayTicks
		logger.Debug("processBot: Bot will act at tick %d (current %d)", state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	if state.Game == nil {
		mh.startGame(state, dispatcher, logger)
		return
	}

	index, ok := state.Bot.NextSelection(state.Game.Engine.Snapshot())
	if !ok {
		logger.Warn("processBot: No selectable card for game %s", state.Game.ID)
		return
	}
	if err := mh.selectCard(state, dispatcher, logger, index); err != nil {
		logger.Error("processBot: Bot failed to select card %d: %v", index, err)
	}
}

func (mh *matchHandler) handleStartGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	logger.Info("StartGame: Request received from %s", msg.GetUserId())

	if state.playing() {
		logger.Warn("StartGame: Game %s already in progress", state.Game.ID)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, "game already in progress")
		return
	}
	mh.startGame(state, dispatcher, logger)
}

func (mh *matchHandler) startGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	game, events, err := state.App.NewGame()
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, state.OwnerID, errCodeBadRequest, err.Error())
		return
	}
	mh.beginGame(state, game)
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	mh.sendSnapshot(state, dispatcher, logger)
	logger.Info("StartGame: Game %s started with %d cards.", game.ID, game.Engine.Len())
}

func (mh *matchHandler) beginGame(state *MatchState, game *app.Game) {
	state.Game = game
	state.StartTick = state.Tick
	state.EndTick = 0
	state.ResolvePending = false
	state.BotWaitUntil = 0
	state.Bot.Forget()
}

func (mh *matchHandler) handleSelectCard(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	index, err := decodeSelectIndex(msg.GetData())
	if err != nil {
		logger.Warn("handleSelectCard: Invalid request from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, err.Error())
		return
	}
	if err := mh.selectCard(state, dispatcher, logger, index); err != nil {
		logger.Warn("handleSelectCard: User %s failed to select card %d: %v", msg.GetUserId(), index, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errorCode(err), err.Error())
	}
}

// selectCard resolves any pair still on its reveal delay before applying the new selection.
func (mh *matchHandler) selectCard(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, index int) error {
	mh.resolvePending(state, dispatcher, logger)
	if state.Game != nil && state.Game.Over() {
		mh.sendSnapshot(state, dispatcher, logger)
		return app.ErrGameOver
	}

	events, err := state.App.Select(state.Game, index)
	if err != nil {
		return err
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.sendSnapshot(state, dispatcher, logger)
	return nil
}

// resolvePending resolves the revealed pair now, if one is waiting.
func (mh *matchHandler) resolvePending(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.ResolvePending {
		return
	}
	state.ResolvePending = false
	if !state.playing() {
		return
	}
	events, err := state.App.Resolve(state.Game)
	if err != nil {
		logger.Error("resolvePending: Failed to resolve pair in game %s: %v", state.Game.ID, err)
		return
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePeek(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	mh.resolvePending(state, dispatcher, logger)
	events, err := state.App.Peek(state.Game)
	mh.finishCommand(state, dispatcher, logger, msg, "handlePeek", events, err)
}

func (mh *matchHandler) handleForfeit(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	state.ResolvePending = false
	events, err := state.App.Forfeit(state.Game)
	mh.finishCommand(state, dispatcher, logger, msg, "handleForfeit", events, err)
}

func (mh *matchHandler) handleResetBoard(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	mh.resolvePending(state, dispatcher, logger)
	events, err := state.App.ResetBoard(state.Game)
	mh.finishCommand(state, dispatcher, logger, msg, "handleResetBoard", events, err)
}

func (mh *matchHandler) handleRestart(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	game, events, err := state.App.Restart(state.Game)
	if err != nil {
		logger.Error("handleRestart: Failed to restart: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, err.Error())
		return
	}
	mh.beginGame(state, game)
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	mh.sendSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleRequestHint(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if err := checkPlaying(state); err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errorCode(err), err.Error())
		return
	}
	mh.resolvePending(state, dispatcher, logger)
	if !state.playing() {
		mh.sendSnapshot(state, dispatcher, logger)
		return
	}

	index, ok := state.Bot.NextSelection(state.Game.Engine.Snapshot())
	if !ok {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, "no card to suggest")
		return
	}
	mh.send(state, dispatcher, logger, OpHint, map[string]any{"index": index})
}

func (mh *matchHandler) finishCommand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, name string, events []app.Event, err error) {
	if err != nil {
		logger.Warn("%s: User %s failed: %v", name, msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errorCode(err), err.Error())
		return
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.sendSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) dispatchEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.dispatchEvent(state, dispatcher, logger, ev)
	}
}

// dispatchEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) dispatchEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var fields map[string]any

	switch ev.Kind {
	case app.EventGameStarted:
		p := ev.Payload.(app.GameStartedPayload)
		logger.Debug("Event: game_started (game=%s, cards=%d)", p.GameID, len(p.Snapshot.Cards))
		return
	case app.EventCardFlipped:
		p := ev.Payload.(app.CardFlippedPayload)
		opCode = OpCardFlipped
		fields = map[string]any{"index": p.Index, "symbol": string(p.Symbol)}
	case app.EventPairRevealed:
		state.Bot.Observe(state.Game.Engine.Snapshot())
		state.ResolvePending = true
		state.ResolveAtTick = state.Tick + state.RevealDelayTicks
		if state.RevealDelayTicks <= 0 {
			mh.resolvePending(state, dispatcher, logger)
		}
		return
	case app.EventPairResolved:
		p := ev.Payload.(app.PairResolvedPayload)
		opCode = OpPairResolved
		fields = map[string]any{
			"first":   p.First,
			"second":  p.Second,
			"result":  p.Result.String(),
			"score":   p.Score,
			"streak":  p.Streak,
			"message": feedbackFor(p.Result),
		}
	case app.EventBoardReshuffled:
		state.Bot.Forget()
		opCode = OpBoardReshuffled
		fields = snapshotFields(state)
	case app.EventBoardReset:
		state.Bot.Forget()
		return
	case app.EventBoardPeeked:
		return
	case app.EventSystemMessage:
		p := ev.Payload.(app.SystemMessagePayload)
		opCode = OpSystemMessage
		fields = map[string]any{"message": p.Message}
	case app.EventGameEnded:
		p := ev.Payload.(app.GameEndedPayload)
		state.EndTick = state.Tick
		state.ResolvePending = false
		opCode = OpGameEnded
		fields = resultFields(p.Result)
		fields["token"] = p.Token
		fields["elapsed_seconds"] = state.ElapsedSeconds()
		if p.Result.Outcome == app.OutcomeWon {
			fields["message"] = feedbackWon
		}
		logger.Info("GameEnded: Game %s ended (%s) with score %d after %d steps", p.Result.GameID, p.Result.Outcome, p.Result.Score, p.Result.Steps)
		mh.updateLabel(state, dispatcher, logger)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	mh.send(state, dispatcher, logger, opCode, fields)
}

func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.send(state, dispatcher, logger, OpSnapshot, snapshotFields(state))
}

// send delivers a message to the owner only.
func (mh *matchHandler) send(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, fields map[string]any) {
	presence, ok := state.Presences[state.OwnerID]
	if !ok {
		return
	}
	bytes, err := encodePayload(fields)
	if err != nil {
		logger.Error("Failed to marshal opcode %d: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send opcode %d: %v", opCode, err)
	}
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	bytes, err := encodePayload(map[string]any{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true)
}

func checkPlaying(state *MatchState) error {
	if state.Game == nil {
		return app.ErrNoGame
	}
	if state.Game.Over() {
		return app.ErrGameOver
	}
	return nil
}

func errorCode(err error) int {
	if errors.Is(err, app.ErrGameOver) || errors.Is(err, app.ErrNoGame) {
		return errCodeForbidden
	}
	return errCodeBadRequest
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(labelFields(state))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		matchState.flushLogs()
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
