package domain

// Symbol is the visual identity a card shows once revealed.
type Symbol string

const (
	SymbolBomb      Symbol = "💣"
	SymbolDefuse    Symbol = "🧹"
	SymbolReshuffle Symbol = "🔄"

	// SymbolFiller is bound when the identity pool runs dry.
	SymbolFiller Symbol = "🐵"
)

// DefaultSymbols is the stock symbol set, specials included. Builders filter the specials out.
var DefaultSymbols = []Symbol{
	"🐶", "🐱", "🐭", "🐹", "🐰",
	"🦊", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵",
	"🐔", "🐧", "🐙", "🦄",
	SymbolBomb,
	SymbolDefuse,
	SymbolReshuffle,
}

// IsSpecial reports whether s is one of the bomb, defuse or reshuffle identities.
func IsSpecial(s Symbol) bool {
	switch s {
	case SymbolBomb, SymbolDefuse, SymbolReshuffle:
		return true
	}
	return false
}

// SymbolsFromStrings converts raw strings (e.g. from config) into symbols.
func SymbolsFromStrings(raw []string) []Symbol {
	out := make([]Symbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, Symbol(s))
	}
	return out
}

// normalSymbols returns the distinct non-special symbols of in, preserving first-seen order.
func normalSymbols(in []Symbol) []Symbol {
	seen := make(map[Symbol]struct{}, len(in))
	out := make([]Symbol, 0, len(in))
	for _, s := range in {
		if s == "" || IsSpecial(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
