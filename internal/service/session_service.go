package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vidstream/auth-service/internal/apperrors"
	"github.com/vidstream/auth-service/internal/domain"
	"github.com/vidstream/auth-service/internal/dto"
	"github.com/vidstream/auth-service/internal/repository"
	"github.com/vidstream/auth-service/internal/utils"
	"github.com/vidstream/auth-service/pkg/observability"
	"go.uber.org/zap"
)

// Policy holds the tunable security thresholds. They are constants of
// policy, not structure, and come from configuration.
type Policy struct {
	BCryptCost         int
	MaxFailedLogins    int
	LockoutDuration    time.Duration
	RefreshTokenExpiry time.Duration
	RevokedRetention   time.Duration
}

// sessionService implements SessionService
type sessionService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *utils.JWTManager
	policy     Policy
	logger     *zap.Logger
	metrics    *observability.AuthMetrics
}

// NewSessionService creates a new session service
func NewSessionService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *utils.JWTManager,
	policy Policy,
	logger *zap.Logger,
	metrics *observability.AuthMetrics,
) SessionService {
	return &sessionService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		policy:     policy,
		logger:     logger,
		metrics:    metrics,
	}
}

// HashToken computes the one-way hash under which refresh tokens are stored
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// NewTokenFamily generates a fresh token family identifier
func NewTokenFamily() string {
	return uuid.New().String()
}

// Register creates a new account
func (s *sessionService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	username := utils.SanitizeIdentifier(req.Username)
	email := utils.SanitizeIdentifier(req.Email)

	if !utils.ValidateUsername(username) {
		return nil, apperrors.Validation("Username must be 3-30 characters: letters, numbers, and underscores")
	}
	if !utils.ValidateEmail(email) {
		return nil, apperrors.Validation("Invalid email format")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, apperrors.Validation("Password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	for _, identifier := range []string{username, email} {
		_, err := s.userRepo.GetByIdentifier(ctx, identifier)
		if err == nil {
			return nil, apperrors.Conflict("User already exists")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(fmt.Errorf("failed to check user existence: %w", err))
		}
	}

	passwordHash, err := utils.HashPassword(req.Password, s.policy.BCryptCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &domain.User{
		Username:      username,
		Email:         email,
		FullName:      req.FullName,
		PasswordHash:  passwordHash,
		Role:          domain.RoleUser,
		AccountStatus: domain.StatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	response := dto.NewUserResponse(user)
	return &response, nil
}

// Login authenticates by username or email and opens a new token family
func (s *sessionService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*LoginResult, error) {
	identifier := utils.SanitizeIdentifier(req.Identifier())
	if identifier == "" {
		return nil, apperrors.Validation("Username or email is required")
	}
	if req.Password == "" {
		return nil, apperrors.Validation("Password is required")
	}

	now := time.Now()

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same error as a password mismatch to avoid user enumeration
			s.metrics.CountLoginFailure(ctx, "unknown_user")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	switch user.AccountStatus {
	case domain.StatusBanned:
		s.metrics.CountLoginFailure(ctx, "banned")
		return nil, apperrors.ErrAccountBanned
	case domain.StatusSuspended:
		s.metrics.CountLoginFailure(ctx, "suspended")
		return nil, apperrors.ErrAccountSuspended
	}

	if user.IsLocked(now) {
		s.metrics.CountLoginFailure(ctx, "locked")
		return nil, apperrors.AccountLocked(user.LockoutRemaining(now))
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		var lockoutUntil *time.Time
		if user.FailedLoginAttempts+1 >= s.policy.MaxFailedLogins {
			deadline := now.Add(s.policy.LockoutDuration)
			lockoutUntil = &deadline
			if s.metrics != nil {
				s.metrics.Lockouts.Add(ctx, 1)
			}
			s.logger.Warn("account locked after repeated login failures",
				zap.String("user_id", user.ID),
				zap.Time("lockout_until", deadline),
			)
		}
		if err := s.userRepo.RecordFailedLogin(ctx, user.ID, lockoutUntil); err != nil {
			s.logger.Error("failed to record login failure", zap.Error(err))
		}
		s.metrics.CountLoginFailure(ctx, "bad_password")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.userRepo.ResetFailedLogins(ctx, user.ID, now); err != nil {
		// Login still succeeds; the counter reset is retried on next login
		s.logger.Error("failed to reset login failures", zap.Error(err))
	}
	lastLogin := now
	user.LastLoginAt = &lastLogin
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil

	tokens, err := s.issueTokenPair(ctx, user, NewTokenFamily(), client)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Logins.Add(ctx, 1)
	}

	return &LoginResult{User: dto.NewUserResponse(user), Tokens: *tokens}, nil
}

// Refresh rotates a refresh token within its family, detecting reuse first
func (s *sessionService) Refresh(ctx context.Context, rawRefreshToken string, client ClientInfo) (*LoginResult, error) {
	if rawRefreshToken == "" {
		return nil, apperrors.ErrMissingToken
	}

	tokenHash := HashToken(rawRefreshToken)
	now := time.Now()

	// Reuse check comes first and looks at every record, used or not. A
	// stale copy of an already-rotated token means the family leaked.
	existing, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("failed to check token reuse: %w", err))
	}
	if existing != nil && existing.IsCompromised() {
		s.revokeCompromisedFamily(ctx, existing)
		return nil, apperrors.ErrSessionInvalidated
	}

	claims, err := s.jwtManager.ValidateRefreshToken(rawRefreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	record, err := s.tokenRepo.GetActiveByTokenHash(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidOrExpired
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get token record: %w", err))
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidOrExpired
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if user.PasswordChangedAfter(claims.IssuedAt()) {
		s.revokeAllForUser(ctx, user.ID, "password changed")
		return nil, apperrors.ErrPasswordChanged
	}

	if !user.IsActive() {
		s.revokeAllForUser(ctx, user.ID, "account not active")
		return nil, apperrors.ErrAccountNotActive
	}

	// Atomic compare-and-swap on is_used. A lost race means a concurrent
	// request already rotated this record: treat it as reuse.
	if err := s.tokenRepo.MarkUsed(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrTokenRotated) {
			s.revokeCompromisedFamily(ctx, record)
			return nil, apperrors.ErrSessionInvalidated
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to mark token used: %w", err))
	}

	tokens, err := s.issueTokenPair(ctx, user, record.TokenFamily, client)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Rotations.Add(ctx, 1)
	}

	return &LoginResult{User: dto.NewUserResponse(user), Tokens: *tokens}, nil
}

// Logout revokes the presented refresh token; an absent token is not an error
func (s *sessionService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}

	if err := s.tokenRepo.RevokeByTokenHash(ctx, HashToken(rawRefreshToken)); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to revoke token: %w", err))
	}

	return nil
}

// LogoutAll revokes every session of the user across all families
func (s *sessionService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to revoke user tokens: %w", err))
	}
	return nil
}

// ChangePassword verifies the old password, replaces the hash, and forces
// re-login everywhere by revoking every session
func (s *sessionService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	if !utils.ValidatePassword(req.NewPassword) {
		return apperrors.Validation("Password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.policy.BCryptCost)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash, time.Now()); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update password: %w", err))
	}

	s.revokeAllForUser(ctx, userID, "password changed")
	return nil
}

// Sessions lists the metadata of the user's active sessions
func (s *sessionService) Sessions(ctx context.Context, userID string) ([]dto.SessionResponse, error) {
	records, err := s.tokenRepo.ListActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list sessions: %w", err))
	}

	sessions := make([]dto.SessionResponse, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, dto.NewSessionResponse(record))
	}

	return sessions, nil
}

// RevokeSession revokes one session owned by the caller
func (s *sessionService) RevokeSession(ctx context.Context, sessionID, userID string) error {
	if err := s.tokenRepo.RevokeSession(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrSessionNotFound
		}
		return apperrors.Internal(fmt.Errorf("failed to revoke session: %w", err))
	}
	return nil
}

// CleanupExpired garbage-collects stale token records
func (s *sessionService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokenRepo.DeleteExpired(ctx, time.Now(), s.policy.RevokedRetention)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to cleanup tokens: %w", err))
	}

	if s.metrics != nil && deleted > 0 {
		s.metrics.TokensCleaned.Add(ctx, deleted)
	}

	return deleted, nil
}

// Authenticate verifies an access token and loads its user
func (s *sessionService) Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.AccessClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, nil, apperrors.ErrTokenExpired
		}
		return nil, nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.ErrUserNotFound
		}
		return nil, nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if !user.IsActive() {
		return nil, nil, apperrors.ErrAccountNotActive
	}

	if user.PasswordChangedAfter(claims.IssuedAt()) {
		return nil, nil, apperrors.ErrPasswordChanged
	}

	return user, claims, nil
}

// issueTokenPair mints both tokens and persists the refresh token's hash
// under the given family
func (s *sessionService) issueTokenPair(ctx context.Context, user *domain.User, tokenFamily string, client ClientInfo) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate refresh token: %w", err))
	}

	record := &domain.RefreshToken{
		UserID:      user.ID,
		TokenHash:   HashToken(refreshToken),
		TokenFamily: tokenFamily,
		ExpiresAt:   time.Now().Add(s.policy.RefreshTokenExpiry),
		UserAgent:   client.UserAgent,
		IPAddress:   client.IPAddress,
	}

	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to save refresh token: %w", err))
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// revokeCompromisedFamily revokes the whole lineage of a reused token. The
// revocation must complete even though the request fails afterwards.
func (s *sessionService) revokeCompromisedFamily(ctx context.Context, record *domain.RefreshToken) {
	s.logger.Warn("refresh token reuse detected, revoking token family",
		zap.String("user_id", record.UserID),
		zap.String("token_family", record.TokenFamily),
	)

	if err := s.tokenRepo.RevokeFamily(ctx, record.TokenFamily); err != nil {
		s.logger.Error("failed to revoke compromised token family",
			zap.String("token_family", record.TokenFamily),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.ReuseDetections.Add(ctx, 1)
	}
}

// revokeAllForUser revokes every session of a user, logging the trigger
func (s *sessionService) revokeAllForUser(ctx context.Context, userID, reason string) {
	s.logger.Warn("revoking all sessions",
		zap.String("user_id", userID),
		zap.String("reason", reason),
	)

	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke user sessions",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
