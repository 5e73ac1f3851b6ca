package domain

// CheckMatch resolves the revealed pair. Bomb outcomes are results, not errors; the caller ends the session.
// Indices other than the two pending face-up cards are rejected with ErrInvalidPair, so a pair is never
// scored twice.
// Resolution order: step timeout, defuse pair, armed bomb pair, equal identities, mismatch.
func (e *Engine) CheckMatch(first, second int) (MatchResult, error) {
	if err := e.checkIndex(first); err != nil {
		return NotMatched, err
	}
	if err := e.checkIndex(second); err != nil {
		return NotMatched, err
	}
	if first == second || !e.isRevealedPair(first, second) {
		return NotMatched, ErrInvalidPair
	}
	e.pending = e.pending[:0]

	if e.timedOut() {
		return TimeoutBomb, nil
	}

	a, b := e.symbolAt(first), e.symbolAt(second)

	if a == SymbolDefuse && b == SymbolDefuse {
		e.DefuseBombs()
		e.markMatched(first, second)
		return Matched, nil
	}

	if !e.stage.BombsDefused() && a == SymbolBomb && b == SymbolBomb {
		return Bomb, nil
	}

	if a == b {
		e.markMatched(first, second)
		e.recordMatch()
		return Matched, nil
	}

	e.cards[first].FaceUp = false
	e.cards[second].FaceUp = false
	e.recordMismatch()
	return NotMatched, nil
}

// isRevealedPair reports whether first and second are the two pending cards, both still face-up.
func (e *Engine) isRevealedPair(first, second int) bool {
	if len(e.pending) != 2 {
		return false
	}
	p, q := e.pending[0], e.pending[1]
	if !(p == first && q == second) && !(p == second && q == first) {
		return false
	}
	return e.cards[first].FaceUp && e.cards[second].FaceUp
}

func (e *Engine) timedOut() bool {
	return e.opts.StepTimeout > 0 && e.steps >= e.opts.StepTimeout && !e.stage.BombsDefused()
}

func (e *Engine) markMatched(first, second int) {
	for _, i := range [2]int{first, second} {
		e.cards[i].FaceUp = true
		e.cards[i].Matched = true
	}
}

func (e *Engine) recordMatch() {
	e.streak++
	if e.streak > e.highestStreak {
		e.highestStreak = e.streak
	}
	e.score += e.opts.MatchPoints * e.streak
}

func (e *Engine) recordMismatch() {
	e.score = max(0, e.score-e.opts.MismatchPenalty)
	e.streak = 0
}
