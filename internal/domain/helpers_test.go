package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	symA Symbol = "🐶"
	symB Symbol = "🐱"
	symC Symbol = "🐭"
)

// newTestEngine returns an engine whose card i is already bound to layout[i]; pool holds the undrawn rest.
func newTestEngine(t *testing.T, layout []Symbol, pool []Symbol, opts Options) *Engine {
	t.Helper()
	opts = opts.withDefaults()
	e := &Engine{
		rng:     rand.New(rand.NewSource(7)),
		opts:    opts,
		cards:   make([]Card, len(layout)),
		ids:     newIdentityTable(pool, opts.Filler),
		stage:   StageFirstArmed,
		pending: make([]int, 0, 2),
	}
	for i, s := range layout {
		e.cards[i] = Card{ID: i}
		e.ids.bound[i] = s
	}
	return e
}

func assertFaceUpInvariant(t *testing.T, e *Engine) {
	t.Helper()
	for i, c := range e.cards {
		if c.Matched && !c.FaceUp {
			t.Fatalf("card %d (id %d) is matched but face-down", i, c.ID)
		}
	}
}

// assertEvenNormalCounts binds every card and checks that each non-special identity can still be paired.
func assertEvenNormalCounts(t *testing.T, e *Engine) {
	t.Helper()
	counts := map[Symbol]int{}
	for i := range e.cards {
		counts[e.symbolAt(i)]++
	}
	for sym, n := range counts {
		if !IsSpecial(sym) && n%2 != 0 {
			t.Fatalf("identity %s appears %d times", sym, n)
		}
	}
}

// playOutNormalPairs selects and resolves every unmatched non-special pair on the board.
func playOutNormalPairs(t *testing.T, e *Engine) {
	t.Helper()
	bySymbol := map[Symbol][]int{}
	for i, c := range e.cards {
		if sym := e.symbolAt(i); !c.Matched && !IsSpecial(sym) {
			bySymbol[sym] = append(bySymbol[sym], i)
		}
	}
	for sym, idx := range bySymbol {
		for k := 0; k+1 < len(idx); k += 2 {
			_, err := e.SelectCard(idx[k])
			require.NoError(t, err)
			_, err = e.SelectCard(idx[k+1])
			require.NoError(t, err)
			res, err := e.CheckMatch(idx[k], idx[k+1])
			require.NoError(t, err)
			require.Equal(t, Matched, res, "pair of %s", sym)
		}
	}
}

func countSymbols(pool []Symbol) map[Symbol]int {
	out := make(map[Symbol]int)
	for _, s := range pool {
		out[s]++
	}
	return out
}

func TestIsSpecial(t *testing.T) {
	tests := []struct {
		sym  Symbol
		want bool
	}{
		{SymbolBomb, true},
		{SymbolDefuse, true},
		{SymbolReshuffle, true},
		{symA, false},
		{SymbolFiller, false},
	}
	for _, tt := range tests {
		if got := IsSpecial(tt.sym); got != tt.want {
			t.Errorf("IsSpecial(%q) = %v, want %v", tt.sym, got, tt.want)
		}
	}
}

func TestNormalSymbolsFiltersAndDedupes(t *testing.T) {
	in := []Symbol{symA, SymbolBomb, symB, symA, "", SymbolReshuffle, symC, SymbolDefuse}
	got := normalSymbols(in)
	want := []Symbol{symA, symB, symC}
	if len(got) != len(want) {
		t.Fatalf("normalSymbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("normalSymbols()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
