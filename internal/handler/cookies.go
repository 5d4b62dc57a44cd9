package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Session cookie names
const (
	AccessTokenCookie  = "AccessToken"
	RefreshTokenCookie = "RefreshToken"
)

// CookieManager writes and clears the session cookie pair. Cookies are
// httpOnly; in production they are secure with SameSite=None (cross-site
// frontend), elsewhere plain with SameSite=Lax.
type CookieManager struct {
	accessMaxAge  int
	refreshMaxAge int
	production    bool
}

// NewCookieManager creates a cookie manager. Max ages are in seconds.
func NewCookieManager(accessMaxAge, refreshMaxAge int, production bool) *CookieManager {
	return &CookieManager{
		accessMaxAge:  accessMaxAge,
		refreshMaxAge: refreshMaxAge,
		production:    production,
	}
}

func (m *CookieManager) sameSite() http.SameSite {
	if m.production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetSession sets both session cookies
func (m *CookieManager) SetSession(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(m.sameSite())
	c.SetCookie(AccessTokenCookie, accessToken, m.accessMaxAge, "/", "", m.production, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, m.refreshMaxAge, "/", "", m.production, true)
}

// ClearSession clears both session cookies
func (m *CookieManager) ClearSession(c *gin.Context) {
	c.SetSameSite(m.sameSite())
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", m.production, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", m.production, true)
}
