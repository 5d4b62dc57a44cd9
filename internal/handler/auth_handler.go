package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidstream/auth-service/internal/apperrors"
	"github.com/vidstream/auth-service/internal/dto"
	"github.com/vidstream/auth-service/internal/service"
)

// AuthHandler handles authentication and session requests
type AuthHandler struct {
	authService service.SessionService
	cookies     *CookieManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.SessionService, cookies *CookieManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

func clientInfo(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperrors.Validation(err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Respond(c, http.StatusCreated, "User created successfully", gin.H{"user": user})
}

// Login handles user login and opens a new session
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, clientInfo(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	h.cookies.SetSession(c, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	Respond(c, http.StatusOK, "Login successful", gin.H{"user": result.User})
}

// Refresh rotates the refresh token and resets both cookies
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken, clientInfo(c))
	if err != nil {
		// A reuse event invalidates the session; drop the cookies too
		h.cookies.ClearSession(c)
		RespondError(c, err)
		return
	}

	h.cookies.SetSession(c, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	Respond(c, http.StatusOK, "Token refreshed successfully", gin.H{"user": result.User})
}

// Logout revokes the presented refresh token and clears cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		RespondError(c, err)
		return
	}

	h.cookies.ClearSession(c)
	Respond(c, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the authenticated user
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondError(c, apperrors.ErrAuthRequired)
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), user.ID); err != nil {
		RespondError(c, err)
		return
	}

	h.cookies.ClearSession(c)
	Respond(c, http.StatusOK, "Logged out from all devices", nil)
}

// GetMe returns the current user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondError(c, apperrors.ErrAuthRequired)
		return
	}

	Respond(c, http.StatusOK, "User fetched successfully", gin.H{"user": dto.NewUserResponse(user)})
}

// Status reports whether the request carries a valid session; never fails
func (h *AuthHandler) Status(c *gin.Context) {
	response := dto.StatusResponse{}

	if user := CurrentUser(c); user != nil {
		userResponse := dto.NewUserResponse(user)
		response.Authenticated = true
		response.User = &userResponse
	}

	Respond(c, http.StatusOK, "Status fetched", response)
}

// ChangePassword updates the password and revokes every session
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondError(c, apperrors.ErrAuthRequired)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user.ID, &req); err != nil {
		RespondError(c, err)
		return
	}

	h.cookies.ClearSession(c)
	Respond(c, http.StatusOK, "Password changed. Please login again", nil)
}

// GetSessions lists the caller's active sessions
func (h *AuthHandler) GetSessions(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondError(c, apperrors.ErrAuthRequired)
		return
	}

	sessions, err := h.authService.Sessions(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Respond(c, http.StatusOK, "Sessions fetched", gin.H{"sessions": sessions})
}

// RevokeSession revokes one of the caller's sessions
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		RespondError(c, apperrors.ErrAuthRequired)
		return
	}

	sessionID := c.Param("sessionId")

	if err := h.authService.RevokeSession(c.Request.Context(), sessionID, user.ID); err != nil {
		RespondError(c, err)
		return
	}

	Respond(c, http.StatusOK, "Session revoked successfully", nil)
}

// Cleanup garbage-collects expired and stale token records
func (h *AuthHandler) Cleanup(c *gin.Context) {
	deleted, err := h.authService.CleanupExpired(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	Respond(c, http.StatusOK, "Cleanup completed", dto.CleanupResponse{DeletedCount: deleted})
}
