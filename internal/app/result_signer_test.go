package app

import (
	"strings"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef"

func TestResultSignerRoundTrip(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Hour)
	want := Result{GameID: "g-1", Outcome: OutcomeWon, Score: 120, HighestStreak: 4, Steps: 9, PairsMatched: 16}

	token, err := signer.Sign(want)
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResultSignerClaims(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Hour)
	token, err := signer.Sign(Result{GameID: "g-2", Outcome: OutcomeBombed, Score: 30})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "memorygame", claims["iss"])
	assert.Equal(t, "g-2", claims["sub"])
	assert.Equal(t, "bombed", claims["outcome"])
	assert.EqualValues(t, 30, claims["score"])
}

func TestResultSignerRejectsTampering(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Hour)
	other := NewResultSigner("fedcba9876543210", "memorygame", time.Hour)

	token, err := other.Sign(Result{GameID: "g-3", Outcome: OutcomeWon})
	require.NoError(t, err)
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidResultToken)

	_, err = signer.Verify(strings.Repeat("x", 10))
	assert.ErrorIs(t, err, ErrInvalidResultToken)
}

func TestResultSignerRejectsExpired(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := signer.Sign(Result{GameID: "g-4"})
	require.NoError(t, err)
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidResultToken)
}

func TestResultSignerRejectsWrongIssuer(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Hour)
	other := NewResultSigner(testSecret, "someone-else", time.Hour)

	token, err := other.Sign(Result{GameID: "g-5"})
	require.NoError(t, err)
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidResultToken)
}

func TestResultSignerDisabled(t *testing.T) {
	assert.Nil(t, NewResultSigner("", "memorygame", time.Hour))

	var signer *ResultSigner
	_, err := signer.Sign(Result{GameID: "g"})
	assert.Error(t, err)
	_, err = signer.Verify("token")
	assert.Error(t, err)
}

func TestResultSignerRequiresGameID(t *testing.T) {
	signer := NewResultSigner(testSecret, "memorygame", time.Hour)
	_, err := signer.Sign(Result{})
	assert.Error(t, err)
}
