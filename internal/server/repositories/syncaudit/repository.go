package syncaudit

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository persists the append-only sync audit trail. Rows are write-once;
// there is no update method on purpose.
type Repository interface {
	Insert(ctx context.Context, rec *models.SyncAudit) error
	ListByRequestID(ctx context.Context, requestID string) ([]*models.SyncAudit, error)
}
