package csrftokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+session_id,\s*token,\s*expires\s+FROM\s+csrf_tokens\s+WHERE\s+session_id=\$1\s*$`

	rows := sqlmock.NewRows([]string{"session_id", "token", "expires"}).
		AddRow("sess-1", "abcd1234", int64(1718000000000))
	mock.ExpectQuery(q).WithArgs("sess-1").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Token != "abcd1234" || got.Expires != 1718000000000 {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+session_id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+csrf_tokens\s*\(session_id,\s*token,\s*expires\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(session_id\)\s*DO\s+UPDATE\s+SET`

	mock.ExpectExec(q).
		WithArgs("sess-1", "abcd1234", int64(1718000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.CSRFToken{SessionID: "sess-1", Token: "abcd1234", Expires: 1718000000000}
	if err := repo.Upsert(context.Background(), token); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+csrf_tokens`).
		WillReturnError(errors.New("db down"))

	err := repo.Upsert(context.Background(), &models.CSRFToken{SessionID: "sess-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+csrf_tokens\s+WHERE\s+session_id=\$1\s*$`).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+csrf_tokens\s+WHERE\s+expires\s*<=\s*\$1\s*$`).
		WithArgs(int64(1718000000000)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteExpired(context.Background(), 1718000000000); err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
}
