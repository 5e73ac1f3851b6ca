package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// Result is the signed end-of-game report.
type Result struct {
	GameID        string  `json:"game_id"`
	Outcome       Outcome `json:"outcome"`
	Score         int     `json:"score"`
	HighestStreak int     `json:"highest_streak"`
	Steps         int     `json:"steps"`
	PairsMatched  int     `json:"pairs_matched"`
}

type resultClaims struct {
	Outcome       Outcome `json:"outcome"`
	Score         int     `json:"score"`
	HighestStreak int     `json:"highest_streak"`
	Steps         int     `json:"steps"`
	PairsMatched  int     `json:"pairs_matched"`
	jwt.StandardClaims
}

var ErrInvalidResultToken = errors.New("invalid result token")

// ResultSigner issues HS256 tokens so clients can submit results that the server can later trust.
type ResultSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewResultSigner returns nil when secret is empty, which disables signing.
func NewResultSigner(secret, issuer string, ttl time.Duration) *ResultSigner {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultSigner{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (s *ResultSigner) Sign(result Result) (string, error) {
	if s == nil {
		return "", fmt.Errorf("result signer is nil")
	}
	if result.GameID == "" {
		return "", fmt.Errorf("game id is required")
	}
	now := s.now()
	claims := resultClaims{
		Outcome:       result.Outcome,
		Score:         result.Score,
		HighestStreak: result.HighestStreak,
		Steps:         result.Steps,
		PairsMatched:  result.PairsMatched,
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.issuer,
			Subject:   result.GameID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, algorithm, issuer and expiry, and returns the embedded result.
func (s *ResultSigner) Verify(tokenString string) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("result signer is nil")
	}
	claims := &resultClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidResultToken, err)
	}
	if !token.Valid {
		return Result{}, ErrInvalidResultToken
	}
	if !claims.VerifyIssuer(s.issuer, s.issuer != "") {
		return Result{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidResultToken, claims.Issuer)
	}
	return Result{
		GameID:        claims.Subject,
		Outcome:       claims.Outcome,
		Score:         claims.Score,
		HighestStreak: claims.HighestStreak,
		Steps:         claims.Steps,
		PairsMatched:  claims.PairsMatched,
	}, nil
}
