package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACService_RoundTrip(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)
	id := uuid.New()

	access, err := svc.GenerateAccessToken("agent", id)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ActorID)
	assert.Equal(t, "agent", claims.Role)
	assert.False(t, svc.IsRefreshToken(claims))

	refresh, err := svc.GenerateRefreshToken("agent", id)
	require.NoError(t, err)
	claims, err = svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, svc.IsRefreshToken(claims))
}

func TestHMACService_Expired(t *testing.T) {
	svc := NewHMACService("a", "r", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)
	svc.now = func() time.Time { return issued }
	tok, err := svc.GenerateAccessToken("client", uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHMACService_RejectsForeignSecret(t *testing.T) {
	a := NewHMACService("one", "two", time.Minute, time.Hour)
	b := NewHMACService("three", "four", time.Minute, time.Hour)
	tok, err := a.GenerateAccessToken("worker", uuid.New())
	require.NoError(t, err)

	_, err = b.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHMACService_RequiresIdentity(t *testing.T) {
	svc := NewHMACService("a", "r", time.Minute, time.Hour)
	_, err := svc.GenerateAccessToken("", uuid.New())
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = svc.GenerateAccessToken("client", uuid.Nil)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
