// Package apperrors defines the typed domain failures of the auth service.
// Every failure is raised at the point of detection and mapped to the
// uniform JSON envelope by a single handler-level helper; each code carries
// a fixed HTTP status and a stable client-facing message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a domain failure class
type Code string

const (
	CodeInvalidCredentials      Code = "INVALID_CREDENTIALS"
	CodeAccountLocked           Code = "ACCOUNT_LOCKED"
	CodeAccountBanned           Code = "ACCOUNT_BANNED"
	CodeAccountSuspended        Code = "ACCOUNT_SUSPENDED"
	CodeAccountNotActive        Code = "ACCOUNT_NOT_ACTIVE"
	CodeTokenExpired            Code = "TOKEN_EXPIRED"
	CodeInvalidToken            Code = "INVALID_TOKEN"
	CodeMissingToken            Code = "MISSING_TOKEN"
	CodeSessionInvalidated      Code = "SESSION_INVALIDATED"
	CodePasswordChanged         Code = "PASSWORD_CHANGED"
	CodeInvalidOrExpired        Code = "INVALID_OR_EXPIRED"
	CodeNotFound                Code = "NOT_FOUND"
	CodeUserNotFound            Code = "USER_NOT_FOUND"
	CodeAuthRequired            Code = "AUTH_REQUIRED"
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"
	CodeAccountStatusDenied     Code = "ACCOUNT_STATUS_DENIED"
	CodeConflict                Code = "CONFLICT"
	CodeValidation              Code = "VALIDATION"
	CodeInternal                Code = "INTERNAL"
)

// Error is a domain failure with a fixed HTTP status and stable message
type Error struct {
	Code    Code
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error kept out of client responses
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, cause: err}
}

// Is matches errors by code so wrapped instances compare equal to the
// package-level sentinels
func (e *Error) Is(target error) bool {
	var appErr *Error
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func newError(code Code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

var (
	ErrInvalidCredentials = newError(CodeInvalidCredentials, http.StatusUnauthorized, "Invalid credentials")
	ErrAccountBanned      = newError(CodeAccountBanned, http.StatusForbidden, "Account has been permanently suspended")
	ErrAccountSuspended   = newError(CodeAccountSuspended, http.StatusForbidden, "Account is temporarily suspended")
	ErrAccountNotActive   = newError(CodeAccountNotActive, http.StatusForbidden, "Account is not active")
	ErrTokenExpired       = newError(CodeTokenExpired, http.StatusUnauthorized, "Token expired. Please login again")
	ErrInvalidToken       = newError(CodeInvalidToken, http.StatusUnauthorized, "Invalid token")
	ErrMissingToken       = newError(CodeMissingToken, http.StatusUnauthorized, "Refresh token required")
	ErrSessionInvalidated = newError(CodeSessionInvalidated, http.StatusUnauthorized, "Session invalidated for security. Please login again")
	ErrPasswordChanged    = newError(CodePasswordChanged, http.StatusUnauthorized, "Password changed. Please login again")
	ErrInvalidOrExpired   = newError(CodeInvalidOrExpired, http.StatusUnauthorized, "Invalid or expired refresh token")
	ErrSessionNotFound    = newError(CodeNotFound, http.StatusNotFound, "Session not found")
	ErrUserNotFound       = newError(CodeUserNotFound, http.StatusForbidden, "User not found")
	ErrAuthRequired       = newError(CodeAuthRequired, http.StatusUnauthorized, "Authentication required")
	ErrInsufficientPerms  = newError(CodeInsufficientPermissions, http.StatusForbidden, "Insufficient permissions")
	ErrAccountStatus      = newError(CodeAccountStatusDenied, http.StatusForbidden, "Account status does not allow this action")
)

// AccountLocked builds a lockout error whose message carries the minutes
// remaining until login is allowed again
func AccountLocked(minutesRemaining int) *Error {
	return newError(CodeAccountLocked, http.StatusLocked,
		fmt.Sprintf("Account locked. Try again in %d minutes", minutesRemaining))
}

// Conflict builds a 409 with the given message
func Conflict(message string) *Error {
	return newError(CodeConflict, http.StatusConflict, message)
}

// Validation builds a 400 with the given message
func Validation(message string) *Error {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// Internal wraps an unexpected failure; the cause never reaches clients
// outside development mode
func Internal(err error) *Error {
	return newError(CodeInternal, http.StatusInternalServerError, "Internal server error").WithCause(err)
}

// FromError extracts an *Error or wraps unknown errors as Internal
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
