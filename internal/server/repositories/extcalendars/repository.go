package extcalendars

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository reads linked external-calendar records. The sync engine only
// needs the timezone lookup; Upsert exists for account-link flows and tests.
type Repository interface {
	Get(ctx context.Context, id string) (*models.ExternalCalendar, error)
	Upsert(ctx context.Context, cal *models.ExternalCalendar) error
}
