package passwords

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository persists password-entry secondary records keyed by
// (source, source_reference).
type Repository interface {
	GetBySource(ctx context.Context, source, sourceReference string) (*models.PasswordEntry, error)
	Insert(ctx context.Context, entry *models.PasswordEntry) error
	Update(ctx context.Context, entry *models.PasswordEntry) error
	DeleteBySource(ctx context.Context, source, sourceReference string) error
}
