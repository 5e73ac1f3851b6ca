package nakama

import (
	"memorygame/internal/app"
	"memorygame/internal/config"
	"memorygame/internal/domain"
)

// settingsFromConfig maps the loaded configuration onto session settings.
// pairs overrides the configured pair count when positive.
func settingsFromConfig(cfg *config.GameConfig, pairs int) app.GameSettings {
	if pairs <= 0 {
		pairs = cfg.Board.Pairs
	}
	stepTimeout := cfg.Rules.StepTimeout
	if stepTimeout == 0 {
		stepTimeout = -1 // disabled
	}
	return app.GameSettings{
		Pairs:      pairs,
		TotalSlots: cfg.Board.TotalSlots,
		Symbols:    domain.SymbolsFromStrings(cfg.Board.Symbols),
		Options: domain.Options{
			StepTimeout:     stepTimeout,
			MatchPoints:     cfg.Rules.MatchPoints,
			MismatchPenalty: cfg.Rules.MismatchPenalty,
			Filler:          domain.Symbol(cfg.Board.FillerSymbol),
		},
	}
}

func cardsToValues(cards []domain.CardView) []any {
	out := make([]any, 0, len(cards))
	for _, c := range cards {
		out = append(out, map[string]any{
			"id":      c.ID,
			"face_up": c.FaceUp,
			"matched": c.Matched,
			"symbol":  string(c.Symbol),
		})
	}
	return out
}

func intsToValues(in []int) []any {
	out := make([]any, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

// snapshotFields renders the session view sent with OpSnapshot. Face-down cards never carry a symbol.
func snapshotFields(state *MatchState) map[string]any {
	fields := map[string]any{
		"phase":   labelPhaseLobby,
		"cards":   []any{},
		"outcome": string(app.OutcomeNone),
	}
	if state.Game == nil {
		return fields
	}
	snap := state.Game.Engine.Snapshot()
	fields["game_id"] = state.Game.ID
	fields["cards"] = cardsToValues(snap.Cards)
	fields["score"] = snap.Score
	fields["streak"] = snap.Streak
	fields["highest_streak"] = snap.HighestStreak
	fields["steps"] = snap.Steps
	fields["phase"] = string(snap.Phase)
	fields["bombs_defused"] = snap.BombsDefused
	fields["pending"] = intsToValues(snap.Pending)
	fields["outcome"] = string(state.Game.Outcome)
	fields["elapsed_seconds"] = state.ElapsedSeconds()
	return fields
}

func resultFields(result app.Result) map[string]any {
	return map[string]any{
		"game_id":        result.GameID,
		"outcome":        string(result.Outcome),
		"score":          result.Score,
		"highest_streak": result.HighestStreak,
		"steps":          result.Steps,
		"pairs_matched":  result.PairsMatched,
	}
}

func feedbackFor(result domain.MatchResult) string {
	switch result {
	case domain.Matched:
		return feedbackMatch
	case domain.Bomb, domain.TimeoutBomb:
		return feedbackGameOver
	default:
		return feedbackNoMatch
	}
}
