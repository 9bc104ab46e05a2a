package calendar

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository persists calendar-event secondary records. Identity is the
// (source, source_reference) pair; GetBySource/DeleteBySource operate on it.
type Repository interface {
	GetBySource(ctx context.Context, source, sourceReference string) (*models.CalendarEvent, error)
	Insert(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	DeleteBySource(ctx context.Context, source, sourceReference string) error
}
