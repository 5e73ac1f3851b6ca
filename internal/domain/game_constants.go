package domain

const (
	// SpecialCardCount is the number of special identities in every pool: two bombs, one defuse, one reshuffle.
	SpecialCardCount = 4

	// DefaultStepTimeout is the number of selection steps after which armed bombs detonate.
	DefaultStepTimeout = 10
	// DefaultMatchPoints is multiplied by the new streak length on every successful match.
	DefaultMatchPoints = 10
	// DefaultMismatchPenalty is subtracted (floored at zero) on every mismatch.
	DefaultMismatchPenalty = 10
)

// System messages produced by the engine and consumed once by the presentation layer.
const (
	MessageReshuffled   = "Reshuffle revealed! The board has been reshuffled."
	MessageBombsDefused = "Bombs defused!"
)
