package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "customer@example.com", "customer")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "customer@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(userID, "customer@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateAccessToken_RejectsRefreshToken(t *testing.T) {
	svc := newTestService()

	refresh, err := svc.GenerateRefreshToken(uuid.New(), "customer@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	svc := newTestService()

	access, err := svc.GenerateAccessToken(uuid.New(), "customer@example.com", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateAccessToken_RejectsWrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewService("other-secret", "other-refresh", time.Hour, time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), "customer@example.com", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", -time.Minute, time.Hour)

	token, err := svc.GenerateAccessToken(uuid.New(), "customer@example.com", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, svc.IsTokenExpired(token))
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := newTestService()

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
