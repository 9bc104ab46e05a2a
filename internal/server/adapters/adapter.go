// Package adapters translates unified event-creation forms into sync-engine
// calls, one adapter per domain (general, travel, health, pets, academics).
// Each adapter validates its domain's required fields before any I/O and
// performs at most one creation attempt per user action; no retries.
package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/famhub/famhub/internal/server/models"
	"github.com/famhub/famhub/internal/server/sync"
)

// EventSink is the slice of the sync engine the adapters drive. Satisfied
// by *sync.Service.
type EventSink interface {
	EnsureCalendarEvent(ctx context.Context, data *sync.CalendarEventData) (*sync.EnsureResult, error)
	EnsurePasswordEntry(ctx context.Context, data *sync.PasswordEntryData) (*sync.EnsureResult, error)
	EnsureDocument(ctx context.Context, data *sync.DocumentData) (*sync.EnsureResult, error)
	RemoveCalendarEvent(ctx context.Context, source, sourceReference string) error
	RemovePasswordEntry(ctx context.Context, source, sourceReference string) error
	RemoveDocument(ctx context.Context, fileURL string) error
	RollbackCalendarEvent(ctx context.Context, source, sourceReference string) error
	RollbackPasswordEntry(ctx context.Context, source, sourceReference string) error
	RollbackDocument(ctx context.Context, fileURL string) error
	NewComposite() *sync.Composite
}

// createdNew reports whether a forward upsert created its row. A re-save of
// an existing record returns Existed=true; compensating that step must not
// delete a record the request did not create.
func createdNew(result any) bool {
	res, ok := result.(*sync.EnsureResult)
	return ok && !res.Existed
}

// ValidationResult lists human-readable field errors. Valid is true only
// when Errors is empty.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func validation(errs ...string) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// CreateResult reports what one adapter call produced. EventIDs lists the
// calendar events in creation order (two for a round trip).
type CreateResult struct {
	EventIDs []string `json:"event_ids"`
	// ExtraRecords counts secondary records beyond calendar events
	// (password entries, documents) created alongside.
	ExtraRecords int `json:"extra_records,omitempty"`
}

// EventAdapter is the per-domain capability set.
type EventAdapter interface {
	Domain() string
	ValidateFields(form *EventForm) ValidationResult
	MapToPayload(form *EventForm) (*sync.CalendarEventData, error)
	CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error)
}

// Registry dispatches forms to adapters by domain name.
type Registry struct {
	adapters map[string]EventAdapter
}

func NewRegistry(sink EventSink) *Registry {
	r := &Registry{adapters: make(map[string]EventAdapter)}
	r.Register(&GeneralAdapter{Sink: sink})
	r.Register(&TravelAdapter{Sink: sink})
	r.Register(&HealthAdapter{Sink: sink})
	r.Register(&PetsAdapter{Sink: sink})
	r.Register(&AcademicsAdapter{Sink: sink})
	return r
}

func (r *Registry) Register(a EventAdapter) {
	r.adapters[a.Domain()] = a
}

// Get returns the adapter for domain, or an error naming the unknown domain.
func (r *Registry) Get(domain string) (EventAdapter, error) {
	a, ok := r.adapters[domain]
	if !ok {
		return nil, fmt.Errorf("unknown event domain %q", domain)
	}
	return a, nil
}

// mergeAttendees splits the comma-separated free-text emails, merges them
// with the structured list, and dedupes preserving first-seen order.
func mergeAttendees(structured []string, freeText string) []string {
	seen := make(map[string]struct{})
	var result []string
	appendOne := func(email string) {
		email = strings.TrimSpace(email)
		if email == "" {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		seen[email] = struct{}{}
		result = append(result, email)
	}
	for _, e := range structured {
		appendOne(e)
	}
	for _, e := range strings.Split(freeText, ",") {
		appendOne(e)
	}
	return result
}

// baseCalendarData maps the domain-independent form fields. Adapters refine
// the result with their own source, category, and metadata.
func baseCalendarData(form *EventForm) *sync.CalendarEventData {
	meta := models.Metadata{}
	for k, v := range form.Metadata {
		meta[k] = v
	}
	meta[models.MetaNotifyAttendees] = form.NotifyFlag()

	return &sync.CalendarEventData{
		Source:           form.Source,
		SourceReference:  form.SourceReference,
		Title:            form.Title,
		Description:      form.Description,
		StartTime:        form.StartTime,
		EndTime:          form.EndTime,
		AllDay:           form.AllDay,
		Location:         form.Location,
		IsVirtual:        form.IsVirtual,
		VirtualLink:      form.VirtualLink,
		Category:         form.Category,
		AttendeeIDs:      form.AttendeeIDs,
		Attendees:        mergeAttendees(form.Attendees, form.ExternalAttendees),
		GoogleCalendarID: form.GoogleCalendarID,
		ReminderMinutes:  form.ReminderMinutes,
		Timezone:         form.Timezone,
		Metadata:         meta,
		CreatedBy:        form.CreatedBy,
	}
}
