package repomanager

import (
	"context"
	"database/sql"

	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/repositories/calendar"
	"github.com/famhub/famhub/internal/server/repositories/csrftokens"
	"github.com/famhub/famhub/internal/server/repositories/documents"
	"github.com/famhub/famhub/internal/server/repositories/extcalendars"
	"github.com/famhub/famhub/internal/server/repositories/passwords"
	"github.com/famhub/famhub/internal/server/repositories/syncaudit"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Calendar(db dbx.DBTX) calendar.Repository
	Passwords(db dbx.DBTX) passwords.Repository
	Documents(db dbx.DBTX) documents.Repository
	SyncAudit(db dbx.DBTX) syncaudit.Repository
	CSRFTokens(db dbx.DBTX) csrftokens.Repository
	ExternalCalendars(db dbx.DBTX) extcalendars.Repository
}
