package brain

import (
	"memorygame/internal/domain"
)

// CardStatus represents what the bot knows about a board position.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // never seen face-up
	StatusSeen                      // seen face-up, symbol remembered
	StatusMatched                   // out of play
)

// GameMemory stores the bot's private view of the board, indexed by position.
// Positions are only stable until the board is reshuffled or reset; callers Reset then.
type GameMemory struct {
	Status  []CardStatus
	Symbols []domain.Symbol
}

// NewMemory initializes a memory for a board of n cards.
func NewMemory(n int) *GameMemory {
	m := &GameMemory{}
	m.Reset(n)
	return m
}

// Reset forgets everything and resizes the memory to n positions.
func (m *GameMemory) Reset(n int) {
	m.Status = make([]CardStatus, n)
	m.Symbols = make([]domain.Symbol, n)
}

// Len returns the number of tracked positions.
func (m *GameMemory) Len() int { return len(m.Status) }

// MarkSeen records the symbol shown at index.
func (m *GameMemory) MarkSeen(index int, sym domain.Symbol) {
	if !m.inRange(index) || m.Status[index] == StatusMatched || sym == "" {
		return
	}
	m.Status[index] = StatusSeen
	m.Symbols[index] = sym
}

// MarkMatched removes index from play.
func (m *GameMemory) MarkMatched(index int) {
	if !m.inRange(index) {
		return
	}
	m.Status[index] = StatusMatched
}

// ForgetSymbol drops every unmatched memory of sym. Used when an identity is rewritten in place.
func (m *GameMemory) ForgetSymbol(sym domain.Symbol) {
	for i, s := range m.Symbols {
		if s == sym && m.Status[i] == StatusSeen {
			m.Status[i] = StatusUnknown
			m.Symbols[i] = ""
		}
	}
}

// Observe records every face-up card of the snapshot and releases positions that are back in play.
// A board size change resets the memory.
func (m *GameMemory) Observe(s domain.Snapshot) {
	if len(s.Cards) != m.Len() {
		m.Reset(len(s.Cards))
	}
	for i, c := range s.Cards {
		switch {
		case c.Matched:
			m.MarkMatched(i)
		case c.FaceUp:
			if m.Status[i] == StatusMatched {
				m.Status[i] = StatusUnknown
			}
			m.MarkSeen(i, c.Symbol)
		case m.Status[i] == StatusMatched:
			m.Status[i] = StatusUnknown
		}
	}
}

// Recall returns the remembered symbol at index.
func (m *GameMemory) Recall(index int) (domain.Symbol, bool) {
	if !m.inRange(index) || m.Status[index] != StatusSeen {
		return "", false
	}
	return m.Symbols[index], true
}

// PartnerOf returns another remembered, unmatched position showing sym.
func (m *GameMemory) PartnerOf(sym domain.Symbol, exclude int) (int, bool) {
	for i, s := range m.Symbols {
		if i != exclude && s == sym && m.Status[i] == StatusSeen {
			return i, true
		}
	}
	return 0, false
}

// KnownPairs returns remembered pairs keyed by symbol, in board order of their first card.
func (m *GameMemory) KnownPairs() map[domain.Symbol][2]int {
	first := make(map[domain.Symbol]int)
	pairs := make(map[domain.Symbol][2]int)
	for i, s := range m.Symbols {
		if m.Status[i] != StatusSeen {
			continue
		}
		if _, done := pairs[s]; done {
			continue
		}
		if j, ok := first[s]; ok {
			pairs[s] = [2]int{j, i}
			continue
		}
		first[s] = i
	}
	return pairs
}

// Unknown returns every position the bot has never seen.
func (m *GameMemory) Unknown() []int {
	var out []int
	for i, st := range m.Status {
		if st == StatusUnknown {
			out = append(out, i)
		}
	}
	return out
}

func (m *GameMemory) inRange(index int) bool {
	return index >= 0 && index < len(m.Status)
}
