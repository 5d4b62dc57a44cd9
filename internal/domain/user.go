package domain

import "time"

// Role enumerates user capability levels
type Role string

const (
	RoleUser      Role = "user"
	RoleCreator   Role = "creator"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// AccountStatus enumerates account lifecycle states
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusBanned    AccountStatus = "banned"
)

// User represents a user of the video platform
type User struct {
	ID                  string        `json:"id" db:"id"`
	Username            string        `json:"username" db:"username"`
	Email               string        `json:"email" db:"email"`
	FullName            string        `json:"fullname" db:"full_name"`
	PasswordHash        string        `json:"-" db:"password_hash"`
	Role                Role          `json:"role" db:"role"`
	AccountStatus       AccountStatus `json:"account_status" db:"account_status"`
	FailedLoginAttempts int           `json:"-" db:"failed_login_attempts"`
	LockoutUntil        *time.Time    `json:"-" db:"lockout_until"`
	LastLoginAt         *time.Time    `json:"last_login_at" db:"last_login_at"`
	PasswordChangedAt   *time.Time    `json:"-" db:"password_changed_at"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.AccountStatus == StatusActive
}

// IsLocked reports whether the account is under a failed-login lockout
func (u *User) IsLocked(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// LockoutRemaining returns minutes left on the lockout, rounded up
func (u *User) LockoutRemaining(now time.Time) int {
	if u.LockoutUntil == nil {
		return 0
	}
	remaining := u.LockoutUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining.Minutes())
	if remaining > time.Duration(minutes)*time.Minute {
		minutes++
	}
	return minutes
}

// PasswordChangedAfter reports whether the password changed after a token
// was issued. Tokens minted before a password change are rejected.
func (u *User) PasswordChangedAfter(tokenIssuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return tokenIssuedAt.Before(*u.PasswordChangedAt)
}

// HasRole reports whether the user's role matches any of the given roles
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// HasStatus reports whether the user's account status matches any of the given statuses
func (u *User) HasStatus(statuses ...AccountStatus) bool {
	for _, s := range statuses {
		if u.AccountStatus == s {
			return true
		}
	}
	return false
}
