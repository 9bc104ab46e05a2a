package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/server/sync"
)

// CalendarHandler exposes the sync engine's calendar-event operations to
// upstream webhooks and internal jobs.
type CalendarHandler struct {
	Sync *sync.Service
}

// Upsert handles POST /api/calendar/events.
func (h *CalendarHandler) Upsert(c *gin.Context) {
	var data sync.CalendarEventData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if data.CreatedBy == "" {
		data.CreatedBy = ActorFromContext(c)
	}

	result, err := h.Sync.EnsureCalendarEvent(c.Request.Context(), &data)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Existed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// Delete handles DELETE /api/calendar/events/:source/:ref. Removing an
// already-absent event still returns 204.
func (h *CalendarHandler) Delete(c *gin.Context) {
	source := c.Param("source")
	ref := c.Param("ref")
	if source == "" || ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.Sync.RemoveCalendarEvent(c.Request.Context(), source, ref); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
