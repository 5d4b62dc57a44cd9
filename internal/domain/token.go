package domain

import "time"

// AccessClaims represents access token claims
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
}

// IsExpired checks if the token is expired
func (c AccessClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}

// IssuedAt returns the issue time of the token
func (c AccessClaims) IssuedAt() time.Time {
	return time.Unix(c.Iat, 0)
}

// RefreshClaims represents refresh token claims
type RefreshClaims struct {
	UserID string `json:"user_id"`
	JTI    string `json:"jti"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IssuedAt returns the issue time of the token
func (c RefreshClaims) IssuedAt() time.Time {
	return time.Unix(c.Iat, 0)
}

// TokenPair is the session credential pair handed to a client. The access
// token is stateless; the refresh token corresponds 1:1 to a stored
// RefreshToken record via its hash.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshToken represents a persisted refresh token record. Only a one-way
// hash of the raw token is ever stored.
//
// A record is Active while not used, not revoked and not expired. Rotation
// flips IsUsed exactly once; revocation flips IsRevoked. Both are terminal.
type RefreshToken struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	TokenHash   string    `json:"-" db:"token_hash"`
	TokenFamily string    `json:"-" db:"token_family"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	IsRevoked   bool      `json:"-" db:"is_revoked"`
	IsUsed      bool      `json:"-" db:"is_used"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the record is past its expiry
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsActive reports whether the record can still be rotated
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsUsed && !t.IsRevoked && !t.IsExpired(now)
}

// IsCompromised reports whether presenting this record's token is a reuse
// event: it was already rotated away or explicitly revoked
func (t *RefreshToken) IsCompromised() bool {
	return t.IsUsed || t.IsRevoked
}
