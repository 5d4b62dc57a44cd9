package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidstream/auth-service/internal/domain"
)

const (
	testAccessSecret  = "access-secret-key-that-is-at-least-32-chars"
	testRefreshSecret = "refresh-secret-key-that-is-at-least-32-chars"
)

func testUser() *domain.User {
	return &domain.User{
		ID:            "11111111-2222-3333-4444-555555555555",
		Username:      "alice",
		Email:         "alice@example.com",
		Role:          domain.RoleCreator,
		AccountStatus: domain.StatusActive,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	user := testUser()

	token, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.False(t, claims.IsExpired())
}

func TestAccessTokenExpired(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, -time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	user := testUser()

	token, err := manager.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	claims, err := manager.ValidateRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	first, err := manager.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	second, err := manager.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRefreshTokenExpired(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, -time.Minute)

	token, err := manager.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	_, err = manager.ValidateRefreshToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestCrossClassTokensRejected(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	user := testUser()

	accessToken, err := manager.GenerateAccessToken(user)
	require.NoError(t, err)
	refreshToken, err := manager.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	// An access token must not verify as a refresh token
	_, err = manager.ValidateRefreshToken(accessToken)
	assert.Error(t, err)

	// A refresh token must not verify as an access token
	_, err = manager.ValidateAccessToken(refreshToken)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	other := NewJWTManager(
		"other-access-secret-that-is-at-least-32-chars",
		"other-refresh-secret-that-is-at-least-32-chars",
		15*time.Minute, 7*24*time.Hour,
	)

	token, err := manager.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestMalformedTokenRejected(t *testing.T) {
	manager := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	_, err := manager.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)

	_, err = manager.ValidateRefreshToken("")
	assert.Error(t, err)
}
