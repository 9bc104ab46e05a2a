package documents

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository persists document secondary records. Identity is the durable
// file_url; a second upsert with the same URL updates the existing row.
type Repository interface {
	GetByFileURL(ctx context.Context, fileURL string) (*models.Document, error)
	Insert(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	DeleteByFileURL(ctx context.Context, fileURL string) error
}
