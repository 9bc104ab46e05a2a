// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/migrations"
	"github.com/famhub/famhub/internal/server/repositories/calendar"
	"github.com/famhub/famhub/internal/server/repositories/csrftokens"
	"github.com/famhub/famhub/internal/server/repositories/documents"
	"github.com/famhub/famhub/internal/server/repositories/extcalendars"
	"github.com/famhub/famhub/internal/server/repositories/passwords"
	"github.com/famhub/famhub/internal/server/repositories/syncaudit"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Calendar returns a calendar.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Calendar(db dbx.DBTX) calendar.Repository {
	return calendar.NewPostgresRepository(db)
}

// Passwords returns a passwords.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Passwords(db dbx.DBTX) passwords.Repository {
	return passwords.NewPostgresRepository(db)
}

// Documents returns a documents.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

// SyncAudit returns a syncaudit.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) SyncAudit(db dbx.DBTX) syncaudit.Repository {
	return syncaudit.NewPostgresRepository(db)
}

// CSRFTokens returns a csrftokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) CSRFTokens(db dbx.DBTX) csrftokens.Repository {
	return csrftokens.NewPostgresRepository(db)
}

// ExternalCalendars returns an extcalendars.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) ExternalCalendars(db dbx.DBTX) extcalendars.Repository {
	return extcalendars.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
