package service

import (
	"context"

	"github.com/vidstream/auth-service/internal/domain"
	"github.com/vidstream/auth-service/internal/dto"
)

// ClientInfo is the issuing client metadata stored with every refresh token
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// LoginResult carries the safe user projection and the credential pair the
// handler turns into cookies
type LoginResult struct {
	User   dto.UserResponse
	Tokens domain.TokenPair
}

// SessionService orchestrates the session lifecycle: login, rotation,
// reuse detection and revocation
type SessionService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*LoginResult, error)
	Refresh(ctx context.Context, rawRefreshToken string, client ClientInfo) (*LoginResult, error)
	Logout(ctx context.Context, rawRefreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	Sessions(ctx context.Context, userID string) ([]dto.SessionResponse, error)
	RevokeSession(ctx context.Context, sessionID, userID string) error
	CleanupExpired(ctx context.Context) (int64, error)
	// Authenticate verifies an access token and loads its user; used by the
	// auth middleware
	Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.AccessClaims, error)
}
