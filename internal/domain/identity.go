package domain

import (
	"maps"
	"math/rand"
	"slices"
)

// identityTable owns the lazy id -> symbol binding and the pool it draws from.
// Every lookup goes through bind so the exhaustion policy lives in one place.
type identityTable struct {
	pool   []Symbol
	bound  map[int]Symbol
	filler Symbol
}

func newIdentityTable(pool []Symbol, filler Symbol) *identityTable {
	if filler == "" {
		filler = SymbolFiller
	}
	return &identityTable{
		pool:   append([]Symbol(nil), pool...),
		bound:  make(map[int]Symbol, len(pool)),
		filler: filler,
	}
}

// bind returns the identity of id, drawing from the pool on first use.
func (t *identityTable) bind(id int) Symbol {
	if s, ok := t.bound[id]; ok {
		return s
	}
	s := t.draw()
	t.bound[id] = s
	return s
}

func (t *identityTable) peek(id int) (Symbol, bool) {
	s, ok := t.bound[id]
	return s, ok
}

func (t *identityTable) rebind(id int, s Symbol) {
	t.bound[id] = s
}

// draw pops the front of the pool, or returns the filler once it is empty.
func (t *identityTable) draw() Symbol {
	if len(t.pool) == 0 {
		return t.filler
	}
	s := t.pool[0]
	t.pool = t.pool[1:]
	return s
}

// replaceUnbound rewrites pool entries that have not been handed out yet.
func (t *identityTable) replaceUnbound(from, to Symbol) {
	for i, s := range t.pool {
		if s == from {
			t.pool[i] = to
		}
	}
}

// reset returns every bound identity to the pool, reshuffles it and forgets all bindings.
func (t *identityTable) reset(rng *rand.Rand) {
	pool := make([]Symbol, 0, len(t.pool)+len(t.bound))
	pool = append(pool, t.pool...)
	for _, id := range slices.Sorted(maps.Keys(t.bound)) {
		pool = append(pool, t.bound[id])
	}
	ShufflePool(rng, pool)
	t.pool = pool
	t.bound = make(map[int]Symbol, len(pool))
}

func (t *identityTable) remaining() int {
	return len(t.pool)
}
