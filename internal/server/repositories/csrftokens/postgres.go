// Package csrftokens provides the PostgreSQL-backed store for per-session
// anti-forgery tokens.
package csrftokens

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

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) (*models.CSRFToken, error) {
	query := `SELECT session_id, token, expires FROM csrf_tokens WHERE session_id=$1`

	var t models.CSRFToken
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&t.SessionID, &t.Token, &t.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

// Upsert overwrites any previous token for the session: one active token
// per session.
func (r *PostgresRepository) Upsert(ctx context.Context, token *models.CSRFToken) error {
	query := `
		INSERT INTO csrf_tokens (session_id, token, expires)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id)
		DO UPDATE SET token = EXCLUDED.token, expires = EXCLUDED.expires
	`
	if _, err := r.db.ExecContext(ctx, query, token.SessionID, token.Token, token.Expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM csrf_tokens WHERE session_id=$1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired prunes tokens whose expiry is at or before nowMillis.
// Called opportunistically from token issuance.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, nowMillis int64) error {
	query := `DELETE FROM csrf_tokens WHERE expires <= $1`
	if _, err := r.db.ExecContext(ctx, query, nowMillis); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
