// Package passwords provides the PostgreSQL-backed repository for
// password-entry secondary records.
package passwords

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

func (r *PostgresRepository) GetBySource(ctx context.Context, source, sourceReference string) (*models.PasswordEntry, error) {
	query := `SELECT id, source, source_reference, name, website, username, password, category, notes,
			metadata, created_by, created_at, updated_at
		FROM password_entries WHERE source=$1 AND source_reference=$2`

	var e models.PasswordEntry
	err := r.db.QueryRowContext(ctx, query, source, sourceReference).Scan(
		&e.ID, &e.Source, &e.SourceReference, &e.Name, &e.Website, &e.Username, &e.Password, &e.Category, &e.Notes,
		&e.Metadata, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, entry *models.PasswordEntry) error {
	query := `
		INSERT INTO password_entries (id, source, source_reference, name, website, username, password, category, notes, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Source, entry.SourceReference, entry.Name, entry.Website, entry.Username,
		entry.Password, entry.Category, entry.Notes, entry.Metadata, entry.CreatedBy)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, entry *models.PasswordEntry) error {
	query := `
		UPDATE password_entries SET
			name=$3, website=$4, username=$5, password=$6, category=$7, notes=$8, metadata=$9, updated_at=now()
		WHERE source=$1 AND source_reference=$2
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.Source, entry.SourceReference,
		entry.Name, entry.Website, entry.Username, entry.Password, entry.Category, entry.Notes, entry.Metadata)
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

// DeleteBySource is idempotent: deleting a non-existent row is not an error.
func (r *PostgresRepository) DeleteBySource(ctx context.Context, source, sourceReference string) error {
	query := `DELETE FROM password_entries WHERE source=$1 AND source_reference=$2`
	if _, err := r.db.ExecContext(ctx, query, source, sourceReference); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
