package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/server/services"
	"github.com/famhub/famhub/internal/server/sync"
)

// DocumentsHandler exposes document upsert and S3 upload-URL issuance.
type DocumentsHandler struct {
	Sync    *sync.Service
	Storage *services.DocumentService
}

// Upsert handles POST /api/documents. Identity key is file_url.
func (h *DocumentsHandler) Upsert(c *gin.Context) {
	var data sync.DocumentData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if data.CreatedBy == "" {
		data.CreatedBy = ActorFromContext(c)
	}

	result, err := h.Sync.EnsureDocument(c.Request.Context(), &data)
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

// UploadURL handles POST /api/documents/upload-url. The client PUTs the file
// to upload_url, then registers it via POST /api/documents with file_url.
func (h *DocumentsHandler) UploadURL(c *gin.Context) {
	key, uploadURL, fileURL, err := h.Storage.GetPresignedPutUrl(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":        key,
		"upload_url": uploadURL,
		"file_url":   fileURL,
	})
}
