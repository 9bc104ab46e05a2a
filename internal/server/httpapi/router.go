// Package httpapi is the Gin HTTP surface of the famhub server: router,
// anti-forgery and identity middleware, and the JSON handlers in front of
// the sync engine, event adapters, and document storage.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/logging"
	"github.com/famhub/famhub/internal/server/adapters"
	"github.com/famhub/famhub/internal/server/config"
	"github.com/famhub/famhub/internal/server/csrf"
	"github.com/famhub/famhub/internal/server/services"
	"github.com/famhub/famhub/internal/server/sync"
)

// Deps bundles everything the router needs. Documents may be nil when no S3
// backend is configured; the upload-url route then answers 503.
type Deps struct {
	Config    *config.Config
	Logger    logging.Logger
	CSRF      *csrf.Service
	Sync      *sync.Service
	Adapters  *adapters.Registry
	Documents *services.DocumentService
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		deps.Logger.Error(c.Request.Context(), "panic recovered", "panic", recovered)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	securityHandler := &SecurityHandler{
		CSRF:        deps.CSRF,
		TokenMaxAge: int(deps.Config.CSRFTokenTTL.Seconds()),
	}
	r.GET("/api/security/csrf", securityHandler.Token)

	api := r.Group("/api")
	api.Use(Identify(deps.Config.SecretKey))
	api.Use(CSRFProtect(deps.CSRF, deps.Config.ServiceSecret, deps.Logger))

	eventsHandler := &EventsHandler{Registry: deps.Adapters}
	api.POST("/events", eventsHandler.Create)

	calendarHandler := &CalendarHandler{Sync: deps.Sync}
	api.POST("/calendar/events", calendarHandler.Upsert)
	api.DELETE("/calendar/events/:source/:ref", calendarHandler.Delete)

	passwordsHandler := &PasswordsHandler{Sync: deps.Sync}
	api.POST("/passwords", passwordsHandler.Upsert)
	api.DELETE("/passwords/:source/:ref", passwordsHandler.Delete)

	documentsHandler := &DocumentsHandler{Sync: deps.Sync, Storage: deps.Documents}
	api.POST("/documents", documentsHandler.Upsert)
	if deps.Documents != nil {
		api.POST("/documents/upload-url", documentsHandler.UploadURL)
	} else {
		api.POST("/documents/upload-url", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document storage is not configured"})
		})
	}

	auditHandler := &AuditHandler{Sync: deps.Sync}
	api.GET("/sync/audit", auditHandler.Trail)

	return r
}
