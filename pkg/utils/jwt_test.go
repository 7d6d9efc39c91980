package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123", time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "ADMIN", "sess-1")
	require.NoError(t, err)

	claims, err := m.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	a := NewJWTManager("0123456789abcdef0123", time.Minute, time.Hour)
	b := NewJWTManager("another-secret-of-length", time.Minute, time.Hour)

	token, err := a.GenerateRefreshToken("user-1", "PROVIDER", "")
	require.NoError(t, err)

	_, err = b.ParseJWT(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "ADMIN", "")
	require.NoError(t, err)

	_, err = m.ParseJWT(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPassword("s3cret!", string(hash)))
	assert.False(t, CheckPassword("wrong", string(hash)))
}

func TestRandomHex(t *testing.T) {
	s, err := RandomHex(32)
	require.NoError(t, err)
	assert.Len(t, s, 64)
}
