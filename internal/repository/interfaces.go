package repository

import (
	"context"
	"time"

	"github.com/vidstream/auth-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier looks a user up by username or email; the identifier
	// is expected to be sanitized and lowercased by the caller
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// RecordFailedLogin bumps the failed-attempt counter and, when the
	// caller decided the threshold is crossed, sets the lockout deadline
	RecordFailedLogin(ctx context.Context, userID string, lockoutUntil *time.Time) error
	// ResetFailedLogins clears the counter and lockout and stamps last login
	ResetFailedLogins(ctx context.Context, userID string, lastLoginAt time.Time) error
	// UpdatePassword replaces the hash and stamps password_changed_at
	UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time) error
}

// TokenRepository defines methods for refresh token records
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	// GetByTokenHash returns the record regardless of state; used for the
	// reuse check, which must see used and revoked records too
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// GetActiveByTokenHash returns the record only while it is rotatable:
	// not used, not revoked, not past expiry
	GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)
	// MarkUsed flips is_used exactly once. It is a conditional update;
	// losing the race returns ErrTokenRotated, never a double rotation.
	MarkUsed(ctx context.Context, tokenID string) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeFamily(ctx context.Context, tokenFamily string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	// RevokeSession revokes one record owned by the user; ErrNotFound when
	// it does not exist, belongs to someone else, or is already revoked
	RevokeSession(ctx context.Context, tokenID, userID string) error
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.RefreshToken, error)
	// DeleteExpired removes records past expiry and revoked records older
	// than the retention window; returns the number deleted
	DeleteExpired(ctx context.Context, now time.Time, revokedRetention time.Duration) (int64, error)
}
