package nakama

const (
	// RpcCreateMemoryMatch is the Nakama RPC id clients call to open a solo memory match.
	RpcCreateMemoryMatch = "create_memory_match"

	// MatchNameMemory is the authoritative match handler name registered with Nakama.
	MatchNameMemory = "memory_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame   int64 = 1
	OpSelectCard  int64 = 2 // {"index": N}
	OpPeek        int64 = 3
	OpForfeit     int64 = 4
	OpRestart     int64 = 5
	OpRequestHint int64 = 6
	OpResetBoard  int64 = 7

	// Server -> Client events
	OpSnapshot        int64 = 101
	OpCardFlipped     int64 = 102
	OpPairResolved    int64 = 103
	OpSystemMessage   int64 = 104
	OpGameEnded       int64 = 105
	OpHint            int64 = 106
	OpError           int64 = 107
	OpBoardReshuffled int64 = 108
)

// Runtime environment keys read at match init.
const (
	EnvConfigPath = "memory_config_path"
	EnvAutoplay   = "memory_autoplay"
)

// Match label values.
const (
	labelGame         = "memory"
	labelPhaseLobby   = "lobby"
	labelPhasePlaying = "playing"
	labelPhaseEnded   = "ended"
)

// Feedback shown after each resolution.
const (
	feedbackMatch    = "Match!"
	feedbackNoMatch  = "No match"
	feedbackGameOver = "A bomb went off! Game over."
	feedbackWon      = "All pairs found!"
)

// Error codes sent with OpError.
const (
	errCodeBadRequest = 400
	errCodeForbidden  = 403
)
