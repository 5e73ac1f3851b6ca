package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	rpcCodeInvalidArgument = 3
	rpcCodeInternal        = 13
)

// CreateMatchRequest is the optional payload of the create RPC.
type CreateMatchRequest struct {
	Pairs int `json:"pairs"`
}

// CreateMatchResponse is the payload returned to clients after creating a solo match.
type CreateMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcCreateMemoryMatch, rpcCreateMemoryMatch)
}

// rpcCreateMemoryMatch creates a fresh authoritative match. The caller owns it once joined.
//
// Payload: (Optional) {"pairs": N} overriding the configured pair count.
// Returns: {"match_id": "...", "is_new": true}
func rpcCreateMemoryMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	req := CreateMatchRequest{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			logger.Warn("rpcCreateMemoryMatch [User:%s]: Invalid payload: %v", userID, err)
			return "", runtime.NewError("invalid payload", rpcCodeInvalidArgument)
		}
	}
	if req.Pairs < 0 {
		return "", runtime.NewError("pairs must be positive", rpcCodeInvalidArgument)
	}

	params := map[string]interface{}{}
	if req.Pairs > 0 {
		params["pairs"] = req.Pairs
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameMemory, params)
	if err != nil {
		logger.Error("rpcCreateMemoryMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("failed to create match", rpcCodeInternal)
	}

	logger.Info("rpcCreateMemoryMatch [User:%s]: Created new match %s", userID, matchID)
	b, err := json.Marshal(CreateMatchResponse{MatchID: matchID, IsNew: true})
	if err != nil {
		return "", runtime.NewError("failed to encode response", rpcCodeInternal)
	}
	return string(b), nil
}
