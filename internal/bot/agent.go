package bot

import (
	"math/rand"
	"time"

	"memorygame/internal/bot/brain"
	"memorygame/internal/domain"
)

// Agent is an autonomous solo player that remembers every card it has seen.
// It drives autoplay and answers hint requests.
type Agent struct {
	Memory *brain.GameMemory
	rng    *rand.Rand

	defusedSeen bool
}

// NewAgent creates an agent. rng may be nil to use a time-seeded default.
func NewAgent(rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Agent{Memory: brain.NewMemory(0), rng: rng}
}

// Forget clears the memory. Call it whenever board positions change: new game, reshuffle, reset.
func (a *Agent) Forget() {
	a.Memory.Reset(a.Memory.Len())
	a.defusedSeen = false
}

// Observe updates memory from a snapshot. Bomb memories are dropped once bombs are defused,
// since their identities have been rewritten.
func (a *Agent) Observe(s domain.Snapshot) {
	if s.BombsDefused && !a.defusedSeen {
		a.Memory.ForgetSymbol(domain.SymbolBomb)
		a.defusedSeen = true
	}
	if !s.BombsDefused {
		a.defusedSeen = false
	}
	a.Memory.Observe(s)
}

// NextSelection picks the next card to flip. It reports false when nothing is selectable.
func (a *Agent) NextSelection(s domain.Snapshot) (int, bool) {
	a.Observe(s)

	if held, ok := heldCard(s); ok {
		return a.completePair(s, held)
	}
	if i, ok := a.knownPairStart(s); ok {
		return i, true
	}
	if i, ok := a.pick(a.unseen(s)); ok {
		return i, true
	}
	return a.pick(a.safeCandidates(s))
}

func (a *Agent) completePair(s domain.Snapshot, held int) (int, bool) {
	sym := s.Cards[held].Symbol
	if sym != domain.SymbolBomb || s.BombsDefused {
		if p, ok := a.Memory.PartnerOf(sym, held); ok && selectable(s, p) {
			return p, true
		}
	}
	if i, ok := a.pick(without(a.unseen(s), held)); ok {
		return i, true
	}
	return a.pick(without(a.safeCandidates(s), held))
}

// knownPairStart returns the first card of a remembered pair worth taking.
// Defuse pairs come first; armed bombs are never paired.
func (a *Agent) knownPairStart(s domain.Snapshot) (int, bool) {
	pairs := a.Memory.KnownPairs()
	if p, ok := pairs[domain.SymbolDefuse]; ok && selectable(s, p[0]) && selectable(s, p[1]) {
		return p[0], true
	}
	best, found := -1, false
	for sym, p := range pairs {
		if sym == domain.SymbolDefuse || sym == domain.SymbolReshuffle {
			continue
		}
		if sym == domain.SymbolBomb && !s.BombsDefused {
			continue
		}
		if !selectable(s, p[0]) || !selectable(s, p[1]) {
			continue
		}
		if !found || p[0] < best {
			best, found = p[0], true
		}
	}
	return best, found
}

func (a *Agent) unseen(s domain.Snapshot) []int {
	var out []int
	for _, i := range a.Memory.Unknown() {
		if selectable(s, i) {
			out = append(out, i)
		}
	}
	return out
}

// safeCandidates returns selectable cards, excluding remembered armed bombs when anything else remains.
func (a *Agent) safeCandidates(s domain.Snapshot) []int {
	var safe, all []int
	for i := range s.Cards {
		if !selectable(s, i) {
			continue
		}
		all = append(all, i)
		sym, known := a.Memory.Recall(i)
		if known && sym == domain.SymbolBomb && !s.BombsDefused {
			continue
		}
		safe = append(safe, i)
	}
	if len(safe) > 0 {
		return safe
	}
	return all
}

func (a *Agent) pick(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[a.rng.Intn(len(candidates))], true
}

// heldCard returns the single face-up pending card, if any.
func heldCard(s domain.Snapshot) (int, bool) {
	if len(s.Pending) != 1 {
		return 0, false
	}
	i := s.Pending[0]
	if i < 0 || i >= len(s.Cards) || !s.Cards[i].FaceUp || s.Cards[i].Matched {
		return 0, false
	}
	return i, true
}

func selectable(s domain.Snapshot, i int) bool {
	return i >= 0 && i < len(s.Cards) && !s.Cards[i].Matched
}

func without(in []int, drop int) []int {
	out := in[:0:0]
	for _, i := range in {
		if i != drop {
			out = append(out, i)
		}
	}
	return out
}
