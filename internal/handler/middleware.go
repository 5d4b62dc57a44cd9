package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vidstream/auth-service/internal/apperrors"
	"github.com/vidstream/auth-service/internal/domain"
	"github.com/vidstream/auth-service/internal/service"
)

// Context keys set by the auth middleware
const (
	ContextUserKey   = "user"
	ContextClaimsKey = "claims"
)

// AuthMiddleware verifies the access token cookie and attaches the user
// and claims to the request context. The token is accepted from the cookie
// only; there is no Authorization header fallback.
func AuthMiddleware(authService service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessTokenCookie)
		if err != nil || token == "" {
			AbortError(c, apperrors.ErrAuthRequired)
			return
		}

		user, claims, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortError(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware runs the same checks as AuthMiddleware but never
// fails the request: any failure yields an anonymous context. Used where
// output is personalized for logged-in users without requiring login.
func OptionalAuthMiddleware(authService service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessTokenCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, claims, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireRole gates a route to the given roles; composes after AuthMiddleware
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasRole(roles...) {
			AbortError(c, apperrors.ErrInsufficientPerms)
			return
		}
		c.Next()
	}
}

// RequireAccountStatus gates a route to the given account statuses;
// composes after AuthMiddleware
func RequireAccountStatus(statuses ...domain.AccountStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasStatus(statuses...) {
			AbortError(c, apperrors.ErrAccountStatus)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, or nil
func CurrentUser(c *gin.Context) *domain.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentClaims returns the decoded access claims from the context, or nil
func CurrentClaims(c *gin.Context) *domain.AccessClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*domain.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
