package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/server/sync"
)

// PasswordsHandler exposes the sync engine's password-entry operations.
type PasswordsHandler struct {
	Sync *sync.Service
}

// Upsert handles POST /api/passwords.
func (h *PasswordsHandler) Upsert(c *gin.Context) {
	var data sync.PasswordEntryData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if data.CreatedBy == "" {
		data.CreatedBy = ActorFromContext(c)
	}

	result, err := h.Sync.EnsurePasswordEntry(c.Request.Context(), &data)
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

// Delete handles DELETE /api/passwords/:source/:ref.
func (h *PasswordsHandler) Delete(c *gin.Context) {
	source := c.Param("source")
	ref := c.Param("ref")
	if source == "" || ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.Sync.RemovePasswordEntry(c.Request.Context(), source, ref); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
