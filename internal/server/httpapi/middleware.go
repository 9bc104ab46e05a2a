package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/logging"
	"github.com/famhub/famhub/internal/server/auth"
	"github.com/famhub/famhub/internal/server/csrf"
)

const actorContextKey = "actor"

// ActorFromContext returns the user id attached by the identity middleware,
// or common.SystemUser when the request carried no usable bearer token.
func ActorFromContext(c *gin.Context) string {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return common.SystemUser
	}
	actor, ok := v.(string)
	if !ok || actor == "" {
		return common.SystemUser
	}
	return actor
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// trustedService reports whether the bearer token is the pre-shared service
// secret. Constant-time comparison: the secret gates a full CSRF bypass.
func trustedService(c *gin.Context, serviceSecret string) bool {
	if serviceSecret == "" {
		return false
	}
	token := bearerToken(c)
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(serviceSecret)) == 1
}

// Identify resolves the caller's identity from the bearer JWT and stores it
// in the gin context. Requests without a valid token proceed as
// common.SystemUser; identity here drives attribution, not authorization.
func Identify(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if userID, err := auth.GetUserIDFromToken(token, []byte(secretKey)); err == nil && userID != "" {
				c.Set(actorContextKey, userID)
			}
		}
		c.Next()
	}
}

// CSRFProtect rejects state-mutating requests that fail anti-forgery
// validation with 403 before any handler runs. Trusted services presenting
// the pre-shared secret skip validation on a distinct code path.
func CSRFProtect(service *csrf.Service, serviceSecret string, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if trustedService(c, serviceSecret) {
			c.Next()
			return
		}

		sessionID, _ := c.Cookie(common.SessionCookieName)
		headerToken := c.GetHeader(common.CSRFHeaderName)
		cookieToken, _ := c.Cookie(common.CSRFCookieName)

		err := service.Validate(c.Request.Context(), c.Request.Method, sessionID, headerToken, cookieToken)
		if err != nil {
			logger.Warn(c.Request.Context(), "csrf validation failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"header_token", csrf.MaskToken(headerToken),
				"cookie_token", csrf.MaskToken(cookieToken),
				"error", err.Error(),
			)
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
