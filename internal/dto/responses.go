package dto

import (
	"time"

	"github.com/vidstream/auth-service/internal/domain"
)

// Envelope is the uniform response shape for every endpoint
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Success    bool        `json:"success"`
}

// OK builds a success envelope
func OK(statusCode int, message string, data interface{}) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Success:    true,
	}
}

// Fail builds a failure envelope
func Fail(statusCode int, message string) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Message:    message,
		Data:       nil,
		Success:    false,
	}
}

// UserResponse is the safe projection of a user: no password hash, no
// lockout counters
type UserResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"fullname"`
	Role          string     `json:"role"`
	AccountStatus string     `json:"account_status"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewUserResponse projects a domain user into its safe response form
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          string(user.Role),
		AccountStatus: string(user.AccountStatus),
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}

// SessionResponse is the metadata of one active session. Token hashes are
// never included.
type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
}

// NewSessionResponse projects a refresh token record into session metadata
func NewSessionResponse(token *domain.RefreshToken) SessionResponse {
	return SessionResponse{
		ID:        token.ID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		UserAgent: token.UserAgent,
		IPAddress: token.IPAddress,
	}
}

// StatusResponse is returned by the optional-auth status endpoint
type StatusResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user"`
}

// CleanupResponse reports how many stale token records were removed
type CleanupResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
