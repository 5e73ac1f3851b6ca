package domain

import (
	"fmt"
	"math/rand"
)

// Deck is the output of BuildDeck: face-down cards plus the shuffled identity pool they draw from.
type Deck struct {
	Cards      []Card
	Pool       []Symbol
	PairsToUse int
}

// PairsAllowed returns how many normal pairs fit next to the special cards.
func PairsAllowed(totalSlots int) int {
	return (totalSlots - SpecialCardCount) / 2
}

// BuildDeck picks the normal symbols for a session and returns the shuffled pool.
// requestedPairs above the board capacity is clamped silently.
func BuildDeck(rng *rand.Rand, requestedPairs int, symbols []Symbol, totalSlots int) (Deck, error) {
	allowed := PairsAllowed(totalSlots)
	if allowed < 1 {
		return Deck{}, fmt.Errorf("%w: %d slots", ErrInvalidSlots, totalSlots)
	}
	if requestedPairs < 1 {
		requestedPairs = 1
	}
	pairsToUse := min(requestedPairs, allowed)

	normal := normalSymbols(symbols)
	if len(normal) < pairsToUse {
		return Deck{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientSymbols, pairsToUse, len(normal))
	}
	rng.Shuffle(len(normal), func(i, j int) { normal[i], normal[j] = normal[j], normal[i] })

	pool := make([]Symbol, 0, 2*pairsToUse+SpecialCardCount)
	for _, s := range normal[:pairsToUse] {
		pool = append(pool, s, s)
	}
	pool = append(pool, SymbolBomb, SymbolBomb, SymbolDefuse, SymbolReshuffle)
	ShufflePool(rng, pool)

	cards := make([]Card, len(pool))
	for id := range cards {
		cards[id] = Card{ID: id}
	}

	return Deck{Cards: cards, Pool: pool, PairsToUse: pairsToUse}, nil
}

// ShufflePool shuffles identities in place.
func ShufflePool(rng *rand.Rand, pool []Symbol) {
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
}

// ShuffleCards re-randomizes board order in place. Card ids travel with their cards.
func ShuffleCards(rng *rand.Rand, cards []Card) {
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}
