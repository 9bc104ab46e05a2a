package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/dbx"
	"github.com/famhub/famhub/internal/server/models"
	"github.com/famhub/famhub/internal/server/repositories/calendar"
	"github.com/famhub/famhub/internal/server/repositories/csrftokens"
	"github.com/famhub/famhub/internal/server/repositories/documents"
	"github.com/famhub/famhub/internal/server/repositories/extcalendars"
	"github.com/famhub/famhub/internal/server/repositories/passwords"
	"github.com/famhub/famhub/internal/server/repositories/syncaudit"
)

// In-memory repository fakes. Error hooks let individual tests inject
// storage failures without a second fake type.

type fakeCalendarRepo struct {
	byKey     map[string]*models.CalendarEvent
	insertErr error
	updateErr error
	getErr    error
	// missOnce makes the next GetBySource miss even when the row exists,
	// to simulate a lost insert race.
	missOnce bool
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{byKey: make(map[string]*models.CalendarEvent)}
}

func sourceKey(source, ref string) string { return source + "|" + ref }

func (f *fakeCalendarRepo) GetBySource(ctx context.Context, source, ref string) (*models.CalendarEvent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.missOnce {
		f.missOnce = false
		return nil, common.ErrorNotFound
	}
	e, ok := f.byKey[sourceKey(source, ref)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeCalendarRepo) Insert(ctx context.Context, event *models.CalendarEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := sourceKey(event.Source, event.SourceReference)
	if _, ok := f.byKey[key]; ok {
		return common.ErrorAlreadyExists
	}
	copied := *event
	f.byKey[key] = &copied
	return nil
}

func (f *fakeCalendarRepo) Update(ctx context.Context, event *models.CalendarEvent) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	key := sourceKey(event.Source, event.SourceReference)
	if _, ok := f.byKey[key]; !ok {
		return common.ErrorNotFound
	}
	copied := *event
	f.byKey[key] = &copied
	return nil
}

func (f *fakeCalendarRepo) DeleteBySource(ctx context.Context, source, ref string) error {
	delete(f.byKey, sourceKey(source, ref))
	return nil
}

type fakePasswordsRepo struct {
	byKey     map[string]*models.PasswordEntry
	insertErr error
}

func newFakePasswordsRepo() *fakePasswordsRepo {
	return &fakePasswordsRepo{byKey: make(map[string]*models.PasswordEntry)}
}

func (f *fakePasswordsRepo) GetBySource(ctx context.Context, source, ref string) (*models.PasswordEntry, error) {
	e, ok := f.byKey[sourceKey(source, ref)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakePasswordsRepo) Insert(ctx context.Context, entry *models.PasswordEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := sourceKey(entry.Source, entry.SourceReference)
	if _, ok := f.byKey[key]; ok {
		return common.ErrorAlreadyExists
	}
	copied := *entry
	f.byKey[key] = &copied
	return nil
}

func (f *fakePasswordsRepo) Update(ctx context.Context, entry *models.PasswordEntry) error {
	key := sourceKey(entry.Source, entry.SourceReference)
	if _, ok := f.byKey[key]; !ok {
		return common.ErrorNotFound
	}
	copied := *entry
	f.byKey[key] = &copied
	return nil
}

func (f *fakePasswordsRepo) DeleteBySource(ctx context.Context, source, ref string) error {
	delete(f.byKey, sourceKey(source, ref))
	return nil
}

type fakeDocumentsRepo struct {
	byURL map[string]*models.Document
}

func newFakeDocumentsRepo() *fakeDocumentsRepo {
	return &fakeDocumentsRepo{byURL: make(map[string]*models.Document)}
}

func (f *fakeDocumentsRepo) GetByFileURL(ctx context.Context, fileURL string) (*models.Document, error) {
	d, ok := f.byURL[fileURL]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDocumentsRepo) Insert(ctx context.Context, doc *models.Document) error {
	if _, ok := f.byURL[doc.FileURL]; ok {
		return common.ErrorAlreadyExists
	}
	copied := *doc
	f.byURL[doc.FileURL] = &copied
	return nil
}

func (f *fakeDocumentsRepo) Update(ctx context.Context, doc *models.Document) error {
	if _, ok := f.byURL[doc.FileURL]; !ok {
		return common.ErrorNotFound
	}
	copied := *doc
	f.byURL[doc.FileURL] = &copied
	return nil
}

func (f *fakeDocumentsRepo) DeleteByFileURL(ctx context.Context, fileURL string) error {
	delete(f.byURL, fileURL)
	return nil
}

type fakeAuditRepo struct {
	rows      []*models.SyncAudit
	insertErr error
}

func (f *fakeAuditRepo) Insert(ctx context.Context, rec *models.SyncAudit) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	copied := *rec
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeAuditRepo) ListByRequestID(ctx context.Context, requestID string) ([]*models.SyncAudit, error) {
	var out []*models.SyncAudit
	for _, r := range f.rows {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeExtCalendarsRepo struct {
	byID map[string]*models.ExternalCalendar
}

func (f *fakeExtCalendarsRepo) Get(ctx context.Context, id string) (*models.ExternalCalendar, error) {
	if f.byID == nil {
		return nil, common.ErrorNotFound
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeExtCalendarsRepo) Upsert(ctx context.Context, cal *models.ExternalCalendar) error {
	if f.byID == nil {
		f.byID = make(map[string]*models.ExternalCalendar)
	}
	f.byID[cal.ID] = cal
	return nil
}

type fakeRepoManager struct {
	calendar  *fakeCalendarRepo
	passwords *fakePasswordsRepo
	documents *fakeDocumentsRepo
	audit     *fakeAuditRepo
	extcals   *fakeExtCalendarsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		calendar:  newFakeCalendarRepo(),
		passwords: newFakePasswordsRepo(),
		documents: newFakeDocumentsRepo(),
		audit:     &fakeAuditRepo{},
		extcals:   &fakeExtCalendarsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Calendar(db dbx.DBTX) calendar.Repository            { return m.calendar }
func (m *fakeRepoManager) Passwords(db dbx.DBTX) passwords.Repository          { return m.passwords }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository          { return m.documents }
func (m *fakeRepoManager) SyncAudit(db dbx.DBTX) syncaudit.Repository          { return m.audit }
func (m *fakeRepoManager) CSRFTokens(db dbx.DBTX) csrftokens.Repository        { return nil }
func (m *fakeRepoManager) ExternalCalendars(db dbx.DBTX) extcalendars.Repository {
	return m.extcals
}

func newTestService(t *testing.T) (*Service, *fakeRepoManager) {
	t.Helper()
	rm := newFakeRepoManager()
	svc := NewService(nil, rm, nil)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, rm
}

func validEventData() *CalendarEventData {
	return &CalendarEventData{
		Source:          "trips",
		SourceReference: "trip-17",
		Title:           "Flight to Lisbon",
		StartTime:       "2024-06-10T08:00:00",
		EndTime:         "2024-06-10T11:00:00",
		Category:        "travel",
	}
}

func TestEnsureCalendarEvent_CreateThenUpdate(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)
	assert.False(t, first.Existed)

	data := validEventData()
	data.Title = "Flight to Lisbon (updated)"
	second, err := svc.EnsureCalendarEvent(ctx, data)
	require.NoError(t, err)
	assert.True(t, second.Existed)
	assert.Equal(t, first.ID, second.ID)

	// Second call wins: one logical row, updated in place.
	stored := rm.calendar.byKey[sourceKey("trips", "trip-17")]
	require.NotNil(t, stored)
	assert.Equal(t, "Flight to Lisbon (updated)", stored.Title)
	assert.Len(t, rm.calendar.byKey, 1)
}

func TestEnsureCalendarEvent_InsertRaceRecovered(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	// Simulate losing the insert race: the initial lookup misses, the
	// insert conflicts against the winner's row, and the re-read finds it.
	rm.calendar.byKey[sourceKey("trips", "trip-17")] = &models.CalendarEvent{
		ID:              "winner-id",
		Source:          "trips",
		SourceReference: "trip-17",
		Title:           "Flight to Lisbon",
	}
	rm.calendar.missOnce = true

	res, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)
	assert.True(t, res.Existed)
	assert.Equal(t, "winner-id", res.ID)
}

func TestEnsureCalendarEvent_ValidationBeforeStorage(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		mut  func(*CalendarEventData)
	}{
		{"missing source", func(d *CalendarEventData) { d.Source = "" }},
		{"missing reference", func(d *CalendarEventData) { d.SourceReference = "" }},
		{"missing title", func(d *CalendarEventData) { d.Title = "" }},
		{"bad start", func(d *CalendarEventData) { d.StartTime = "not a time" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validEventData()
			tt.mut(data)
			_, err := svc.EnsureCalendarEvent(ctx, data)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
	assert.Empty(t, rm.calendar.byKey)
}

func TestEnsureCalendarEvent_NormalizationApplied(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	data := validEventData()
	data.EndTime = ""
	data.VirtualMeetingLink = "https://meet.example.com/abc"
	data.VirtualLink = ""

	_, err := svc.EnsureCalendarEvent(ctx, data)
	require.NoError(t, err)

	stored := rm.calendar.byKey[sourceKey("trips", "trip-17")]
	require.NotNil(t, stored)
	assert.Equal(t, "2024-06-10T09:00:00", stored.EndTime)
	assert.Equal(t, "https://meet.example.com/abc", stored.VirtualLink)
	assert.True(t, stored.IsVirtual)
}

func TestEnsureCalendarEvent_TimezoneFromLinkedCalendar(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	require.NoError(t, rm.extcals.Upsert(ctx, &models.ExternalCalendar{
		ID:       "cal-1",
		Timezone: "Europe/Lisbon",
	}))

	data := validEventData()
	data.GoogleCalendarID = "cal-1"

	_, err := svc.EnsureCalendarEvent(ctx, data)
	require.NoError(t, err)

	stored := rm.calendar.byKey[sourceKey("trips", "trip-17")]
	assert.Equal(t, "Europe/Lisbon", stored.Timezone)
}

func TestEnsureCalendarEvent_AllDayExclusiveEnd(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	data := validEventData()
	data.AllDay = true
	data.StartTime = "2024-06-10"
	data.EndTime = "2024-06-12"

	_, err := svc.EnsureCalendarEvent(ctx, data)
	require.NoError(t, err)

	stored := rm.calendar.byKey[sourceKey("trips", "trip-17")]
	assert.Equal(t, "2024-06-10T00:00:00", stored.StartTime)
	assert.Equal(t, "2024-06-13T00:00:00", stored.EndTime)
}

func TestEnsureCalendarEvent_AuditTrailWritten(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)

	require.Len(t, rm.audit.rows, 2)
	assert.Equal(t, models.AuditStatusPending, rm.audit.rows[0].Status)
	assert.Equal(t, models.AuditStatusSuccess, rm.audit.rows[1].Status)
	assert.Equal(t, rm.audit.rows[0].RequestID, rm.audit.rows[1].RequestID)
	assert.Equal(t, models.AuditOpCreate, rm.audit.rows[1].OperationType)
	assert.True(t, rm.audit.rows[1].CompletedAt.Valid)
}

func TestEnsureCalendarEvent_AuditFailureSwallowed(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	rm.audit.insertErr = errors.New("audit table gone")

	res, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Len(t, rm.calendar.byKey, 1)
}

func TestRemoveCalendarEvent_Idempotent(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCalendarEvent(ctx, "trips", "trip-17"))
	assert.Empty(t, rm.calendar.byKey)

	// Second delete of the same identity is still a success.
	require.NoError(t, svc.RemoveCalendarEvent(ctx, "trips", "trip-17"))
}

func TestRollbackCalendarEvent_AuditedAsRolledBack(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)

	require.NoError(t, svc.RollbackCalendarEvent(ctx, "trips", "trip-17"))
	assert.Empty(t, rm.calendar.byKey)

	// The compensation delete gets its own pending row and a terminal row
	// stamped rolled_back, not success.
	require.Len(t, rm.audit.rows, 4)
	assert.Equal(t, models.AuditOpDelete, rm.audit.rows[3].OperationType)
	assert.Equal(t, models.AuditStatusRolledBack, rm.audit.rows[3].Status)
	assert.Equal(t, rm.audit.rows[2].RequestID, rm.audit.rows[3].RequestID)
}

func TestEnsurePasswordEntry_CreateUpdateAndAliases(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	data := &PasswordEntryData{
		Source:          "health_portals",
		SourceReference: "portal-3",
		Title:           "Pediatrician portal",
		Password:        "hunter2",
		Category:        "health",
	}

	first, err := svc.EnsurePasswordEntry(ctx, data)
	require.NoError(t, err)
	assert.False(t, first.Existed)

	stored := rm.passwords.byKey[sourceKey("health_portals", "portal-3")]
	require.NotNil(t, stored)
	// Title is accepted as the name alias.
	assert.Equal(t, "Pediatrician portal", stored.Name)

	data.Name = "Dr. Silva portal"
	data.Password = "hunter3"
	second, err := svc.EnsurePasswordEntry(ctx, data)
	require.NoError(t, err)
	assert.True(t, second.Existed)
	assert.Equal(t, first.ID, second.ID)

	stored = rm.passwords.byKey[sourceKey("health_portals", "portal-3")]
	assert.Equal(t, "Dr. Silva portal", stored.Name)
	assert.Equal(t, "hunter3", stored.Password)
}

func TestEnsurePasswordEntry_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsurePasswordEntry(ctx, &PasswordEntryData{
		Source:          "health_portals",
		SourceReference: "portal-3",
		Name:            "Portal",
	})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.EnsurePasswordEntry(ctx, &PasswordEntryData{
		Source:          "health_portals",
		SourceReference: "portal-3",
		Password:        "hunter2",
	})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestEnsureDocument_IdentityIsFileURL(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	data := &DocumentData{
		Title:    "Vaccination record",
		FileURL:  "https://files.example.com/documents/2024/06/10/abc.pdf",
		Category: "health",
	}

	first, err := svc.EnsureDocument(ctx, data)
	require.NoError(t, err)
	assert.False(t, first.Existed)

	data.Title = "Vaccination record v2"
	second, err := svc.EnsureDocument(ctx, data)
	require.NoError(t, err)
	assert.True(t, second.Existed)
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, rm.documents.byURL, 1)
	assert.Equal(t, "Vaccination record v2", rm.documents.byURL[data.FileURL].Title)
}

func TestEnsureDocument_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureDocument(ctx, &DocumentData{Title: "No URL"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.EnsureDocument(ctx, &DocumentData{FileURL: "https://files.example.com/x.pdf"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestAuditTrail_ByRequestID(t *testing.T) {
	svc, rm := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureCalendarEvent(ctx, validEventData())
	require.NoError(t, err)
	require.NotEmpty(t, rm.audit.rows)

	requestID := rm.audit.rows[0].RequestID
	trail, err := svc.AuditTrail(ctx, requestID)
	require.NoError(t, err)
	assert.Len(t, trail, 2)

	empty, err := svc.AuditTrail(ctx, "no-such-request")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
