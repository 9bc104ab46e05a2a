// Package syncaudit provides the PostgreSQL-backed repository for the
// append-only sync audit trail.
package syncaudit

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *models.SyncAudit) error {
	query := `
		INSERT INTO sync_audit (id, request_id, operation_type, source_table, source_id,
			target_table, target_id, status, error_message, metadata, created_by, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.RequestID, rec.OperationType, rec.SourceTable, rec.SourceID,
		rec.TargetTable, rec.TargetID, rec.Status, rec.ErrorMessage, rec.Metadata, rec.CreatedBy, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByRequestID returns all audit rows of one logical operation in
// insertion order (pending first, terminal after).
func (r *PostgresRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.SyncAudit, error) {
	query := `SELECT id, request_id, operation_type, source_table, source_id,
			target_table, target_id, status, error_message, metadata, created_by, created_at, completed_at
		FROM sync_audit WHERE request_id=$1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncAudit
	for rows.Next() {
		var rec models.SyncAudit
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.OperationType, &rec.SourceTable, &rec.SourceID,
			&rec.TargetTable, &rec.TargetID, &rec.Status, &rec.ErrorMessage, &rec.Metadata,
			&rec.CreatedBy, &rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
