package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/server/csrf"
)

// SecurityHandler issues anti-forgery tokens.
type SecurityHandler struct {
	CSRF *csrf.Service
	// CookieSecure marks issued cookies Secure; off for local HTTP dev.
	CookieSecure bool
	// TokenMaxAge is the cookie lifetime in seconds.
	TokenMaxAge int
}

// Token handles GET /api/security/csrf. It binds a fresh token to the
// caller's session, minting the session cookie first when absent, and
// mirrors the token into the double-submit cookie.
func (h *SecurityHandler) Token(c *gin.Context) {
	sessionID, err := c.Cookie(common.SessionCookieName)
	if err != nil || sessionID == "" {
		sessionID = uuid.NewString()
		c.SetCookie(common.SessionCookieName, sessionID, h.TokenMaxAge, "/", "", h.CookieSecure, true)
	}

	token, err := h.CSRF.CreateToken(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The mirror cookie is deliberately readable by scripts so the SPA can
	// echo it in the x-csrf-token header.
	c.SetCookie(common.CSRFCookieName, token, h.TokenMaxAge, "/", "", h.CookieSecure, false)

	c.JSON(http.StatusOK, gin.H{"token": token})
}
