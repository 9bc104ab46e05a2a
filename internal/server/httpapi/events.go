package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/server/adapters"
)

// EventsHandler accepts the unified event-creation form and dispatches it to
// the per-domain adapter.
type EventsHandler struct {
	Registry *adapters.Registry
}

// Create handles POST /api/events.
func (h *EventsHandler) Create(c *gin.Context) {
	var form adapters.EventForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	form.CreatedBy = ActorFromContext(c)

	adapter, err := h.Registry.Get(form.Domain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if res := adapter.ValidateFields(&form); !res.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": res.Errors})
		return
	}

	result, err := adapter.CreateEvent(c.Request.Context(), &form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
