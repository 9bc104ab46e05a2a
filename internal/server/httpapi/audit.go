package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/famhub/famhub/internal/server/sync"
)

// AuditHandler reads the append-only sync audit trail.
type AuditHandler struct {
	Sync *sync.Service
}

// Trail handles GET /api/sync/audit?request_id=. Rows come back oldest
// first; an unknown request id yields an empty list, not 404. The id must be
// a UUID: request_id is a uuid column, and a malformed value would otherwise
// surface as a cast error from the database.
func (h *AuditHandler) Trail(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required"})
		return
	}
	if _, err := uuid.Parse(requestID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id must be a UUID"})
		return
	}

	entries, err := h.Sync.AuditTrail(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
