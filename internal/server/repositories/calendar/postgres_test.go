package calendar

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func testEvent() *models.CalendarEvent {
	return &models.CalendarEvent{
		ID:              "ev-1",
		Source:          "trips",
		SourceReference: "trip-17",
		Title:           "Flight to Lisbon",
		StartTime:       "2024-06-10T08:00:00",
		EndTime:         "2024-06-10T11:00:00",
		Category:        "travel",
		CreatedBy:       "system",
	}
}

func TestGetBySource_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+calendar_events\s+WHERE\s+source=\$1\s+AND\s+source_reference=\$2\s*$`

	rows := sqlmock.NewRows([]string{
		"id", "source", "source_reference", "title", "description", "start_time", "end_time",
		"all_day", "location", "is_virtual", "virtual_link", "category", "attendee_ids", "attendees",
		"google_calendar_id", "reminder_minutes", "timezone", "metadata", "created_by", "created_at", "updated_at",
	}).AddRow(
		"ev-1", "trips", "trip-17", "Flight to Lisbon", "", "2024-06-10T08:00:00", "2024-06-10T11:00:00",
		false, "", false, "", "travel", nil, nil,
		"", 0, "", nil, "system", time.Time{}, time.Time{},
	)
	mock.ExpectQuery(q).WithArgs("trips", "trip-17").WillReturnRows(rows)

	got, err := repo.GetBySource(context.Background(), "trips", "trip-17")
	if err != nil {
		t.Fatalf("GetBySource error: %v", err)
	}
	if got.ID != "ev-1" || got.Title != "Flight to Lisbon" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestGetBySource_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+calendar_events`).
		WithArgs("trips", "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySource(context.Background(), "trips", "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+calendar_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Insert(context.Background(), testEvent()); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsert_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+calendar_events`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Insert(context.Background(), testEvent())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+calendar_events`).
		WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), testEvent())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+calendar_events\s+SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), testEvent()); err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_NoRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+calendar_events\s+SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), testEvent())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDeleteBySource_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+calendar_events\s+WHERE\s+source=\$1\s+AND\s+source_reference=\$2\s*$`

	// Zero rows deleted is still a success.
	mock.ExpectExec(q).WithArgs("trips", "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteBySource(context.Background(), "trips", "ghost"); err != nil {
		t.Fatalf("DeleteBySource error: %v", err)
	}
}
