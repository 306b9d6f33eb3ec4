package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	sm := NewSessionManager(time.Hour)

	session, err := sm.Create("user-1", "alice", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, session.CSRFToken)
	assert.NotEqual(t, session.ID, session.CSRFToken)

	got := sm.Get(session.ID)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	assert.True(t, sm.VerifyCSRF(session.ID, session.CSRFToken))
	assert.False(t, sm.VerifyCSRF(session.ID, "forged"))
	assert.False(t, sm.VerifyCSRF(session.ID, ""))

	sm.Destroy(session.ID)
	assert.Nil(t, sm.Get(session.ID))
	sm.Destroy(session.ID) // idempotent
}

func TestSessionExpiry(t *testing.T) {
	sm := NewSessionManager(-time.Second)

	session, err := sm.Create("user-1", "alice", "user")
	require.NoError(t, err)

	assert.Nil(t, sm.Get(session.ID))
	assert.False(t, sm.VerifyCSRF(session.ID, session.CSRFToken))
}

func TestTokenPairRoundTrip(t *testing.T) {
	tokens := TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}

	pair, err := tokens.CreatePair("user-1", "alice", "user")
	require.NoError(t, err)

	token, claims, err := tokens.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "access", claims["typ"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "alice", claims["username"])

	_, claims, err = tokens.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims["typ"])

	other := TokenService{Secret: []byte("different"), Issuer: "test", AccessTTL: time.Hour}
	_, _, err = other.ParseToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	tokens := TokenService{BcryptCost: 10}

	hash, err := tokens.HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, tokens.VerifyPassword("hunter22", hash))
	assert.False(t, tokens.VerifyPassword("hunter23", hash))
}
