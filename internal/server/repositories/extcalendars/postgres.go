// Package extcalendars provides the PostgreSQL-backed repository for linked
// external (Google) calendar records.
package extcalendars

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ExternalCalendar, error) {
	query := `SELECT id, user_id, summary, timezone FROM external_calendars WHERE id=$1`

	var c models.ExternalCalendar
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Summary, &c.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, cal *models.ExternalCalendar) error {
	query := `
		INSERT INTO external_calendars (id, user_id, summary, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET user_id = EXCLUDED.user_id, summary = EXCLUDED.summary, timezone = EXCLUDED.timezone
	`
	if _, err := r.db.ExecContext(ctx, query, cal.ID, cal.UserID, cal.Summary, cal.Timezone); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
