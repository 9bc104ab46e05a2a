// Package sync implements the cross-domain synchronization engine: idempotent
// upsert/delete of calendar-event, password-entry, and document secondary
// records keyed by their natural identity, with append-only audit logging and
// saga-style composite operations.
//
// The engine exclusively owns writes to the secondary tables. Domain tables
// (trips, appointments, portals) are owned by their feature modules and
// referenced here only through the (source, source_reference) identity pair.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/logging"
	"github.com/famhub/famhub/internal/server/models"
	"github.com/famhub/famhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Target table names recorded in audit rows.
const (
	tableCalendarEvents  = "calendar_events"
	tablePasswordEntries = "password_entries"
	tableDocuments       = "documents"
)

// Service is the sync engine. All methods are safe for concurrent use:
// cross-request consistency rests entirely on the storage-layer unique keys
// (insert-then-detect-conflict-then-re-read, no pessimistic locking).
type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger

	// seams for tests
	newID func() string
	now   func() time.Time
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		db:     db,
		repos:  repos,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
		now:    time.Now,
	}
}

// NewComposite returns a composite operation bound to this service's logger.
func (s *Service) NewComposite() *Composite {
	return NewComposite(s.logger)
}

// EnsureCalendarEvent creates or updates the calendar event identified by
// (source, source_reference). The second call for the same identity updates
// the row in place and reports Existed=true. A lost insert race is recovered
// by re-reading the winner's row.
func (s *Service) EnsureCalendarEvent(ctx context.Context, data *CalendarEventData) (*EnsureResult, error) {
	requestID := s.newID()
	actor := actorOr(data.CreatedBy)

	s.auditPending(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tableCalendarEvents, actor)

	event, err := s.normalizeCalendarEvent(ctx, data)
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tableCalendarEvents, actor, "", err)
		return nil, err
	}
	event.CreatedBy = actor

	repo := s.repos.Calendar(s.db)

	existing, err := repo.GetBySource(ctx, event.Source, event.SourceReference)
	switch {
	case err == nil:
		event.ID = existing.ID
		if err := repo.Update(ctx, event); err != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpUpdate, event.Source, event.SourceReference, tableCalendarEvents, actor, existing.ID, err)
			return nil, fmt.Errorf("update calendar event: %w", err)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpUpdate, event.Source, event.SourceReference, tableCalendarEvents, actor, existing.ID, nil)
		return &EnsureResult{ID: existing.ID, Existed: true}, nil

	case !errors.Is(err, common.ErrorNotFound):
		s.auditTerminal(ctx, requestID, models.AuditOpSync, event.Source, event.SourceReference, tableCalendarEvents, actor, "", err)
		return nil, fmt.Errorf("lookup calendar event: %w", err)
	}

	event.ID = s.newID()
	err = repo.Insert(ctx, event)
	if errors.Is(err, common.ErrorAlreadyExists) {
		// Concurrent identical request won the insert. Re-read and treat
		// as success-if-found: at most one logical record per identity.
		winner, rerr := repo.GetBySource(ctx, event.Source, event.SourceReference)
		if rerr != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpCreate, event.Source, event.SourceReference, tableCalendarEvents, actor, "", rerr)
			return nil, fmt.Errorf("re-read after insert conflict: %w", rerr)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, event.Source, event.SourceReference, tableCalendarEvents, actor, winner.ID, nil)
		return &EnsureResult{ID: winner.ID, Existed: true}, nil
	}
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, event.Source, event.SourceReference, tableCalendarEvents, actor, "", err)
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	s.auditTerminal(ctx, requestID, models.AuditOpCreate, event.Source, event.SourceReference, tableCalendarEvents, actor, event.ID, nil)
	return &EnsureResult{ID: event.ID}, nil
}

// RemoveCalendarEvent deletes the event identified by the source pair.
// Idempotent: removing a non-existent event is not an error.
func (s *Service) RemoveCalendarEvent(ctx context.Context, source, sourceReference string) error {
	return s.removeCalendarEvent(ctx, source, sourceReference, models.AuditStatusSuccess)
}

// RollbackCalendarEvent is the compensation flavor of RemoveCalendarEvent:
// the same delete, audited with status rolled_back so the trail distinguishes
// undone work from user-requested deletes.
func (s *Service) RollbackCalendarEvent(ctx context.Context, source, sourceReference string) error {
	return s.removeCalendarEvent(ctx, source, sourceReference, models.AuditStatusRolledBack)
}

func (s *Service) removeCalendarEvent(ctx context.Context, source, sourceReference, okStatus string) error {
	requestID := s.newID()
	s.auditPending(ctx, requestID, models.AuditOpDelete, source, sourceReference, tableCalendarEvents, common.SystemUser)

	err := s.repos.Calendar(s.db).DeleteBySource(ctx, source, sourceReference)
	s.auditTerminalStatus(ctx, requestID, models.AuditOpDelete, source, sourceReference, tableCalendarEvents, common.SystemUser, "", okStatus, err)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

// EnsurePasswordEntry creates or updates the password entry identified by
// (source, source_reference). Entries are created opportunistically when a
// domain record carries portal credentials and updated in place afterwards.
func (s *Service) EnsurePasswordEntry(ctx context.Context, data *PasswordEntryData) (*EnsureResult, error) {
	requestID := s.newID()
	actor := actorOr(data.CreatedBy)

	s.auditPending(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tablePasswordEntries, actor)

	entry, err := normalizePasswordEntry(data)
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tablePasswordEntries, actor, "", err)
		return nil, err
	}
	entry.CreatedBy = actor

	repo := s.repos.Passwords(s.db)

	existing, err := repo.GetBySource(ctx, entry.Source, entry.SourceReference)
	switch {
	case err == nil:
		entry.ID = existing.ID
		if err := repo.Update(ctx, entry); err != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpUpdate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, existing.ID, err)
			return nil, fmt.Errorf("update password entry: %w", err)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpUpdate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, existing.ID, nil)
		return &EnsureResult{ID: existing.ID, Existed: true}, nil

	case !errors.Is(err, common.ErrorNotFound):
		s.auditTerminal(ctx, requestID, models.AuditOpSync, entry.Source, entry.SourceReference, tablePasswordEntries, actor, "", err)
		return nil, fmt.Errorf("lookup password entry: %w", err)
	}

	entry.ID = s.newID()
	err = repo.Insert(ctx, entry)
	if errors.Is(err, common.ErrorAlreadyExists) {
		winner, rerr := repo.GetBySource(ctx, entry.Source, entry.SourceReference)
		if rerr != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpCreate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, "", rerr)
			return nil, fmt.Errorf("re-read after insert conflict: %w", rerr)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, winner.ID, nil)
		return &EnsureResult{ID: winner.ID, Existed: true}, nil
	}
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, "", err)
		return nil, fmt.Errorf("insert password entry: %w", err)
	}

	s.auditTerminal(ctx, requestID, models.AuditOpCreate, entry.Source, entry.SourceReference, tablePasswordEntries, actor, entry.ID, nil)
	return &EnsureResult{ID: entry.ID}, nil
}

// RemovePasswordEntry deletes the entry identified by the source pair.
// Idempotent. Entries are never auto-deleted elsewhere; this is the owning
// record's explicit delete flow.
func (s *Service) RemovePasswordEntry(ctx context.Context, source, sourceReference string) error {
	return s.removePasswordEntry(ctx, source, sourceReference, models.AuditStatusSuccess)
}

// RollbackPasswordEntry deletes the entry as composite compensation,
// audited with status rolled_back.
func (s *Service) RollbackPasswordEntry(ctx context.Context, source, sourceReference string) error {
	return s.removePasswordEntry(ctx, source, sourceReference, models.AuditStatusRolledBack)
}

func (s *Service) removePasswordEntry(ctx context.Context, source, sourceReference, okStatus string) error {
	requestID := s.newID()
	s.auditPending(ctx, requestID, models.AuditOpDelete, source, sourceReference, tablePasswordEntries, common.SystemUser)

	err := s.repos.Passwords(s.db).DeleteBySource(ctx, source, sourceReference)
	s.auditTerminalStatus(ctx, requestID, models.AuditOpDelete, source, sourceReference, tablePasswordEntries, common.SystemUser, "", okStatus, err)
	if err != nil {
		return fmt.Errorf("delete password entry: %w", err)
	}
	return nil
}

// EnsureDocument creates or updates the document identified by its file_url.
// A second upload with the same URL updates metadata rather than duplicating.
func (s *Service) EnsureDocument(ctx context.Context, data *DocumentData) (*EnsureResult, error) {
	requestID := s.newID()
	actor := actorOr(data.CreatedBy)

	s.auditPending(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tableDocuments, actor)

	doc, err := normalizeDocument(data)
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpSync, data.Source, data.SourceReference, tableDocuments, actor, "", err)
		return nil, err
	}
	doc.CreatedBy = actor

	repo := s.repos.Documents(s.db)

	existing, err := repo.GetByFileURL(ctx, doc.FileURL)
	switch {
	case err == nil:
		doc.ID = existing.ID
		if err := repo.Update(ctx, doc); err != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpUpdate, doc.Source, doc.SourceReference, tableDocuments, actor, existing.ID, err)
			return nil, fmt.Errorf("update document: %w", err)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpUpdate, doc.Source, doc.SourceReference, tableDocuments, actor, existing.ID, nil)
		return &EnsureResult{ID: existing.ID, Existed: true}, nil

	case !errors.Is(err, common.ErrorNotFound):
		s.auditTerminal(ctx, requestID, models.AuditOpSync, doc.Source, doc.SourceReference, tableDocuments, actor, "", err)
		return nil, fmt.Errorf("lookup document: %w", err)
	}

	doc.ID = s.newID()
	err = repo.Insert(ctx, doc)
	if errors.Is(err, common.ErrorAlreadyExists) {
		winner, rerr := repo.GetByFileURL(ctx, doc.FileURL)
		if rerr != nil {
			s.auditTerminal(ctx, requestID, models.AuditOpCreate, doc.Source, doc.SourceReference, tableDocuments, actor, "", rerr)
			return nil, fmt.Errorf("re-read after insert conflict: %w", rerr)
		}
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, doc.Source, doc.SourceReference, tableDocuments, actor, winner.ID, nil)
		return &EnsureResult{ID: winner.ID, Existed: true}, nil
	}
	if err != nil {
		s.auditTerminal(ctx, requestID, models.AuditOpCreate, doc.Source, doc.SourceReference, tableDocuments, actor, "", err)
		return nil, fmt.Errorf("insert document: %w", err)
	}

	s.auditTerminal(ctx, requestID, models.AuditOpCreate, doc.Source, doc.SourceReference, tableDocuments, actor, doc.ID, nil)
	return &EnsureResult{ID: doc.ID}, nil
}

// RemoveDocument deletes the document identified by its file_url. Idempotent.
func (s *Service) RemoveDocument(ctx context.Context, fileURL string) error {
	return s.removeDocument(ctx, fileURL, models.AuditStatusSuccess)
}

// RollbackDocument deletes the document as composite compensation, audited
// with status rolled_back.
func (s *Service) RollbackDocument(ctx context.Context, fileURL string) error {
	return s.removeDocument(ctx, fileURL, models.AuditStatusRolledBack)
}

func (s *Service) removeDocument(ctx context.Context, fileURL, okStatus string) error {
	requestID := s.newID()
	s.auditPending(ctx, requestID, models.AuditOpDelete, "", fileURL, tableDocuments, common.SystemUser)

	err := s.repos.Documents(s.db).DeleteByFileURL(ctx, fileURL)
	s.auditTerminalStatus(ctx, requestID, models.AuditOpDelete, "", fileURL, tableDocuments, common.SystemUser, "", okStatus, err)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// AuditTrail returns all audit rows recorded under one request id.
func (s *Service) AuditTrail(ctx context.Context, requestID string) ([]*models.SyncAudit, error) {
	return s.repos.SyncAudit(s.db).ListByRequestID(ctx, requestID)
}

// normalizeCalendarEvent applies the engine's normalization rules: legacy
// virtual-link spelling, timezone resolution, canonical start, end-time
// synthesis, all-day exclusive ends.
func (s *Service) normalizeCalendarEvent(ctx context.Context, data *CalendarEventData) (*models.CalendarEvent, error) {
	if data.Source == "" || data.SourceReference == "" {
		return nil, fmt.Errorf("%w: source and source_reference are required", common.ErrorValidation)
	}
	if data.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	start, err := parseDateTime(data.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", common.ErrorValidation, err)
	}

	virtualLink := data.VirtualLink
	if virtualLink == "" {
		virtualLink = data.VirtualMeetingLink
	}

	timezone := data.Timezone
	if timezone == "" {
		timezone = data.Metadata.String(models.MetaTimezone)
	}
	if timezone == "" && data.GoogleCalendarID != "" {
		// Best effort: a missing linked calendar leaves the event naive.
		if cal, err := s.repos.ExternalCalendars(s.db).Get(ctx, data.GoogleCalendarID); err == nil {
			timezone = cal.Timezone
		}
	}

	var startStr, endStr string
	if data.AllDay {
		day := start.startOfDay()
		startStr = day.String()
		endStr = resolveAllDayEnd(start, data.EndTime).String()
	} else {
		startStr = start.String()
		endStr = resolveEnd(start, data.EndTime, data.Metadata).String()
	}

	return &models.CalendarEvent{
		Source:           data.Source,
		SourceReference:  data.SourceReference,
		Title:            data.Title,
		Description:      data.Description,
		StartTime:        startStr,
		EndTime:          endStr,
		AllDay:           data.AllDay,
		Location:         data.Location,
		IsVirtual:        data.IsVirtual || virtualLink != "",
		VirtualLink:      virtualLink,
		Category:         data.Category,
		AttendeeIDs:      models.StringList(data.AttendeeIDs),
		Attendees:        models.StringList(data.Attendees),
		GoogleCalendarID: data.GoogleCalendarID,
		ReminderMinutes:  data.ReminderMinutes,
		Timezone:         timezone,
		Metadata:         data.Metadata,
	}, nil
}

func normalizePasswordEntry(data *PasswordEntryData) (*models.PasswordEntry, error) {
	if data.Source == "" || data.SourceReference == "" {
		return nil, fmt.Errorf("%w: source and source_reference are required", common.ErrorValidation)
	}
	name := data.Name
	if name == "" {
		name = data.Title
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if data.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	return &models.PasswordEntry{
		Source:          data.Source,
		SourceReference: data.SourceReference,
		Name:            name,
		Website:         data.Website,
		Username:        data.Username,
		Password:        data.Password,
		Category:        data.Category,
		Notes:           data.Notes,
		Metadata:        data.Metadata,
	}, nil
}

func normalizeDocument(data *DocumentData) (*models.Document, error) {
	if data.FileURL == "" {
		return nil, fmt.Errorf("%w: file_url is required", common.ErrorValidation)
	}
	if data.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	return &models.Document{
		Title:           data.Title,
		FileURL:         data.FileURL,
		FileSize:        data.FileSize,
		FileType:        data.FileType,
		Category:        data.Category,
		Source:          data.Source,
		SourceReference: data.SourceReference,
		AssignedTo:      models.StringList(data.AssignedTo),
		Metadata:        data.Metadata,
	}, nil
}

func actorOr(createdBy string) string {
	if createdBy == "" {
		return common.SystemUser
	}
	return createdBy
}

// auditPending records the pending row of one logical operation. Failures
// are swallowed: the audit trail is forensics, never control flow, and a
// broken trail must not fail the primary operation.
func (s *Service) auditPending(ctx context.Context, requestID, op, sourceTable, sourceID, targetTable, actor string) {
	rec := &models.SyncAudit{
		ID:            s.newID(),
		RequestID:     requestID,
		OperationType: op,
		SourceTable:   sourceTable,
		SourceID:      sourceID,
		TargetTable:   targetTable,
		Status:        models.AuditStatusPending,
		CreatedBy:     actor,
	}
	if err := s.repos.SyncAudit(s.db).Insert(ctx, rec); err != nil {
		s.logger.Warn(ctx, "audit write failed", "request_id", requestID, "status", rec.Status, "error", err.Error())
	}
}

// auditTerminal records the terminal row: success when opErr is nil, failed
// otherwise. Same swallow policy as auditPending.
func (s *Service) auditTerminal(ctx context.Context, requestID, op, sourceTable, sourceID, targetTable, actor, targetID string, opErr error) {
	s.auditTerminalStatus(ctx, requestID, op, sourceTable, sourceID, targetTable, actor, targetID, models.AuditStatusSuccess, opErr)
}

// auditTerminalStatus is auditTerminal with the non-error status supplied by
// the caller; rollback deletes record rolled_back instead of success.
func (s *Service) auditTerminalStatus(ctx context.Context, requestID, op, sourceTable, sourceID, targetTable, actor, targetID, okStatus string, opErr error) {
	status := okStatus
	errMsg := ""
	if opErr != nil {
		status = models.AuditStatusFailed
		errMsg = opErr.Error()
	}
	rec := &models.SyncAudit{
		ID:            s.newID(),
		RequestID:     requestID,
		OperationType: op,
		SourceTable:   sourceTable,
		SourceID:      sourceID,
		TargetTable:   targetTable,
		TargetID:      targetID,
		Status:        status,
		ErrorMessage:  errMsg,
		CreatedBy:     actor,
		CompletedAt:   sql.NullTime{Time: s.now(), Valid: true},
	}
	if err := s.repos.SyncAudit(s.db).Insert(ctx, rec); err != nil {
		s.logger.Warn(ctx, "audit write failed", "request_id", requestID, "status", status, "error", err.Error())
	}
}
