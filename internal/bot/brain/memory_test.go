package brain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memorygame/internal/domain"
)

func snapshotOf(cards ...domain.CardView) domain.Snapshot {
	return domain.Snapshot{Cards: cards}
}

func TestGameMemory(t *testing.T) {
	m := NewMemory(4)
	assert.Equal(t, []int{0, 1, 2, 3}, m.Unknown())

	m.MarkSeen(1, "🐶")
	sym, ok := m.Recall(1)
	assert.True(t, ok)
	assert.Equal(t, domain.Symbol("🐶"), sym)
	assert.Equal(t, []int{0, 2, 3}, m.Unknown())

	m.MarkMatched(1)
	_, ok = m.Recall(1)
	assert.False(t, ok)
	m.MarkSeen(1, "🐱")
	assert.Equal(t, StatusMatched, m.Status[1], "matched positions stay out of play")

	m.Reset(4)
	assert.Equal(t, StatusUnknown, m.Status[1])
}

func TestGameMemory_IgnoresOutOfRange(t *testing.T) {
	m := NewMemory(2)
	m.MarkSeen(-1, "🐶")
	m.MarkSeen(2, "🐶")
	m.MarkMatched(5)
	_, ok := m.Recall(7)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1}, m.Unknown())
}

func TestGameMemory_Observe(t *testing.T) {
	m := NewMemory(3)
	m.Observe(snapshotOf(
		domain.CardView{ID: 0, FaceUp: true, Symbol: "🐶"},
		domain.CardView{ID: 1},
		domain.CardView{ID: 2, FaceUp: true, Matched: true, Symbol: "🐱"},
	))
	sym, ok := m.Recall(0)
	assert.True(t, ok)
	assert.Equal(t, domain.Symbol("🐶"), sym)
	assert.Equal(t, StatusUnknown, m.Status[1])
	assert.Equal(t, StatusMatched, m.Status[2])

	// Face-down later does not erase what was seen.
	m.Observe(snapshotOf(domain.CardView{ID: 0}, domain.CardView{ID: 1}, domain.CardView{ID: 2, FaceUp: true, Matched: true}))
	_, ok = m.Recall(0)
	assert.True(t, ok)

	m.Observe(snapshotOf(domain.CardView{ID: 0}))
	assert.Equal(t, 1, m.Len(), "board size change resets")
	assert.Equal(t, []int{0}, m.Unknown())
}

func TestGameMemory_PairsAndPartners(t *testing.T) {
	m := NewMemory(6)
	m.MarkSeen(0, "🐶")
	m.MarkSeen(2, "🐱")
	m.MarkSeen(3, "🐶")
	m.MarkSeen(5, "🐱")
	m.MarkSeen(4, domain.SymbolBomb)

	p, ok := m.PartnerOf("🐶", 0)
	assert.True(t, ok)
	assert.Equal(t, 3, p)
	_, ok = m.PartnerOf(domain.SymbolBomb, 4)
	assert.False(t, ok)

	pairs := m.KnownPairs()
	assert.Equal(t, map[domain.Symbol][2]int{"🐶": {0, 3}, "🐱": {2, 5}}, pairs)

	m.ForgetSymbol("🐶")
	_, ok = m.Recall(0)
	assert.False(t, ok)
	assert.NotContains(t, m.KnownPairs(), domain.Symbol("🐶"))
}
