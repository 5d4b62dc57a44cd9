package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vidstream/auth-service/internal/domain"
	"github.com/vidstream/auth-service/pkg/database"
)

const tokenColumns = `id, user_id, token_hash, token_family, expires_at, is_revoked, is_used,
		user_agent, ip_address, created_at`

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

// Create creates a new refresh token record
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, token_family, expires_at, is_revoked, is_used, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.TokenFamily,
		token.ExpiresAt,
		token.IsRevoked,
		token.IsUsed,
		token.UserAgent,
		token.IPAddress,
		token.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("token with hash already exists: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

func (r *tokenRepository) scanToken(row *sql.Row) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.TokenFamily,
		&token.ExpiresAt,
		&token.IsRevoked,
		&token.IsUsed,
		&token.UserAgent,
		&token.IPAddress,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// GetByTokenHash retrieves a refresh token record by hash in any state
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE token_hash = $1`, tokenColumns)

	token, err := r.scanToken(r.db.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}

	return token, nil
}

// GetActiveByTokenHash retrieves a rotatable record by hash
func (r *tokenRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM refresh_tokens
		WHERE token_hash = $1 AND is_revoked = FALSE AND is_used = FALSE AND expires_at > $2
	`, tokenColumns)

	token, err := r.scanToken(r.db.DB.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active token by hash: %w", err)
	}

	return token, nil
}

// MarkUsed flips is_used under a conditional update so that two concurrent
// refresh calls can never both rotate the same record
func (r *tokenRepository) MarkUsed(ctx context.Context, tokenID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE AND is_revoked = FALSE
	`

	result, err := r.db.DB.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("token %s: %w", tokenID, ErrTokenRotated)
	}

	return nil
}

// RevokeByTokenHash revokes the record matching the hash; no-op when absent
func (r *tokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token_hash = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to revoke token by hash: %w", err)
	}

	return nil
}

// RevokeFamily revokes every record in a token family
func (r *tokenRepository) RevokeFamily(ctx context.Context, tokenFamily string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token_family = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, tokenFamily); err != nil {
		return fmt.Errorf("failed to revoke token family: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every record for a user across all families
func (r *tokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE user_id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}

// RevokeSession revokes one record owned by the given user
func (r *tokenRepository) RevokeSession(ctx context.Context, tokenID, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = TRUE
		WHERE id = $1 AND user_id = $2 AND is_revoked = FALSE
	`

	result, err := r.db.DB.ExecContext(ctx, query, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session %s not found for user %s: %w", tokenID, userID, ErrNotFound)
	}

	return nil
}

// ListActiveByUser retrieves the user's active session records
func (r *tokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM refresh_tokens
		WHERE user_id = $1 AND is_revoked = FALSE AND is_used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
	`, tokenColumns)

	rows, err := r.db.DB.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		token := &domain.RefreshToken{}
		err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.TokenHash,
			&token.TokenFamily,
			&token.ExpiresAt,
			&token.IsRevoked,
			&token.IsUsed,
			&token.UserAgent,
			&token.IPAddress,
			&token.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}

// DeleteExpired garbage-collects expired records and revoked records past
// the retention window
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time, revokedRetention time.Duration) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
		   OR (is_revoked = TRUE AND created_at < $2)
	`

	result, err := r.db.DB.ExecContext(ctx, query, now, now.Add(-revokedRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
