// Package calendar provides the PostgreSQL-backed repository for
// calendar-event secondary records.
package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/models"
)

// PostgresRepository implements calendar-event storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const calendarColumns = `id, source, source_reference, title, description, start_time, end_time,
		all_day, location, is_virtual, virtual_link, category, attendee_ids, attendees,
		google_calendar_id, reminder_minutes, timezone, metadata, created_by, created_at, updated_at`

// GetBySource returns the event identified by (source, source_reference),
// or common.ErrorNotFound when no row exists.
func (r *PostgresRepository) GetBySource(ctx context.Context, source, sourceReference string) (*models.CalendarEvent, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE source=$1 AND source_reference=$2`

	var ev models.CalendarEvent
	err := r.db.QueryRowContext(ctx, query, source, sourceReference).Scan(
		&ev.ID, &ev.Source, &ev.SourceReference, &ev.Title, &ev.Description, &ev.StartTime, &ev.EndTime,
		&ev.AllDay, &ev.Location, &ev.IsVirtual, &ev.VirtualLink, &ev.Category, &ev.AttendeeIDs, &ev.Attendees,
		&ev.GoogleCalendarID, &ev.ReminderMinutes, &ev.Timezone, &ev.Metadata, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &ev, nil
}

// Insert adds a new row. A race on the (source, source_reference) unique
// constraint surfaces as common.ErrorAlreadyExists so the caller can
// re-read and treat the operation as an update.
func (r *PostgresRepository) Insert(ctx context.Context, event *models.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (id, source, source_reference, title, description, start_time, end_time,
			all_day, location, is_virtual, virtual_link, category, attendee_ids, attendees,
			google_calendar_id, reminder_minutes, timezone, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Source, event.SourceReference, event.Title, event.Description, event.StartTime, event.EndTime,
		event.AllDay, event.Location, event.IsVirtual, event.VirtualLink, event.Category, event.AttendeeIDs, event.Attendees,
		event.GoogleCalendarID, event.ReminderMinutes, event.Timezone, event.Metadata, event.CreatedBy)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update rewrites all mutable fields of the row identified by
// (source, source_reference) and stamps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	query := `
		UPDATE calendar_events SET
			title=$3, description=$4, start_time=$5, end_time=$6, all_day=$7, location=$8,
			is_virtual=$9, virtual_link=$10, category=$11, attendee_ids=$12, attendees=$13,
			google_calendar_id=$14, reminder_minutes=$15, timezone=$16, metadata=$17, updated_at=now()
		WHERE source=$1 AND source_reference=$2
	`
	res, err := r.db.ExecContext(ctx, query,
		event.Source, event.SourceReference,
		event.Title, event.Description, event.StartTime, event.EndTime, event.AllDay, event.Location,
		event.IsVirtual, event.VirtualLink, event.Category, event.AttendeeIDs, event.Attendees,
		event.GoogleCalendarID, event.ReminderMinutes, event.Timezone, event.Metadata)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteBySource removes the row identified by (source, source_reference).
// Deleting a non-existent row is not an error.
func (r *PostgresRepository) DeleteBySource(ctx context.Context, source, sourceReference string) error {
	query := `DELETE FROM calendar_events WHERE source=$1 AND source_reference=$2`
	if _, err := r.db.ExecContext(ctx, query, source, sourceReference); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
