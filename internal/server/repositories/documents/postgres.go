// Package documents provides the PostgreSQL-backed repository for document
// secondary records.
package documents

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

func (r *PostgresRepository) GetByFileURL(ctx context.Context, fileURL string) (*models.Document, error) {
	query := `SELECT id, title, file_url, file_size, file_type, category, source, source_reference,
			assigned_to, metadata, created_by, created_at, updated_at
		FROM documents WHERE file_url=$1`

	var d models.Document
	err := r.db.QueryRowContext(ctx, query, fileURL).Scan(
		&d.ID, &d.Title, &d.FileURL, &d.FileSize, &d.FileType, &d.Category, &d.Source, &d.SourceReference,
		&d.AssignedTo, &d.Metadata, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, title, file_url, file_size, file_type, category, source, source_reference, assigned_to, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.FileURL, doc.FileSize, doc.FileType, doc.Category,
		doc.Source, doc.SourceReference, doc.AssignedTo, doc.Metadata, doc.CreatedBy)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents SET
			title=$2, file_size=$3, file_type=$4, category=$5, source=$6, source_reference=$7,
			assigned_to=$8, metadata=$9, updated_at=now()
		WHERE file_url=$1
	`
	res, err := r.db.ExecContext(ctx, query,
		doc.FileURL, doc.Title, doc.FileSize, doc.FileType, doc.Category,
		doc.Source, doc.SourceReference, doc.AssignedTo, doc.Metadata)
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

// DeleteByFileURL is idempotent: deleting a non-existent row is not an error.
func (r *PostgresRepository) DeleteByFileURL(ctx context.Context, fileURL string) error {
	query := `DELETE FROM documents WHERE file_url=$1`
	if _, err := r.db.ExecContext(ctx, query, fileURL); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
