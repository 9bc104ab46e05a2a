package adapters

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/server/sync"
)

// HealthAdapter handles medical appointments. A form carrying patient-portal
// credentials also ensures a password entry, and a portal document link
// ensures a document record; all records ride one composite operation so a
// late failure removes whatever earlier steps created.
type HealthAdapter struct {
	Sink EventSink
}

func (a *HealthAdapter) Domain() string { return "health" }

func (a *HealthAdapter) ValidateFields(form *EventForm) ValidationResult {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "title is required")
	}
	if form.StartTime == "" {
		errs = append(errs, "start time is required")
	}
	if form.Health == nil || form.Health.Provider == "" {
		errs = append(errs, "provider is required")
	}
	if form.Health != nil && form.Health.PortalPassword != "" && form.Health.PortalURL == "" {
		errs = append(errs, "portal url is required when portal credentials are given")
	}
	return validation(errs...)
}

func (a *HealthAdapter) MapToPayload(form *EventForm) (*sync.CalendarEventData, error) {
	data := baseCalendarData(form)
	if data.Source == "" {
		data.Source = "medical_appointments"
	}
	if data.Category == "" {
		data.Category = "health"
	}
	data.Metadata["provider"] = form.Health.Provider
	return data, nil
}

func (a *HealthAdapter) CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error) {
	if v := a.ValidateFields(form); !v.Valid {
		return nil, fmt.Errorf("validation: %v", v.Errors)
	}
	data, err := a.MapToPayload(form)
	if err != nil {
		return nil, err
	}
	h := form.Health

	op := a.Sink.NewComposite().
		Add(sync.Step{
			Type: "calendar_event",
			Forward: func(ctx context.Context) (any, error) {
				return a.Sink.EnsureCalendarEvent(ctx, data)
			},
			Backward: func(ctx context.Context, result any) error {
				if !createdNew(result) {
					return nil
				}
				return a.Sink.RollbackCalendarEvent(ctx, data.Source, data.SourceReference)
			},
		})

	extra := 0
	if h.PortalPassword != "" {
		extra++
		op.Add(sync.Step{
			Type: "portal_password",
			Forward: func(ctx context.Context) (any, error) {
				return a.Sink.EnsurePasswordEntry(ctx, &sync.PasswordEntryData{
					Source:          data.Source,
					SourceReference: data.SourceReference,
					Name:            h.Provider + " patient portal",
					Website:         h.PortalURL,
					Username:        h.PortalUsername,
					Password:        h.PortalPassword,
					Category:        "health",
					CreatedBy:       form.CreatedBy,
				})
			},
			Backward: func(ctx context.Context, result any) error {
				if !createdNew(result) {
					return nil
				}
				return a.Sink.RollbackPasswordEntry(ctx, data.Source, data.SourceReference)
			},
		})
	}
	if h.DocumentURL != "" {
		extra++
		title := h.DocumentTitle
		if title == "" {
			title = h.Provider + " document"
		}
		op.Add(sync.Step{
			Type: "portal_document",
			Forward: func(ctx context.Context) (any, error) {
				return a.Sink.EnsureDocument(ctx, &sync.DocumentData{
					Title:           title,
					FileURL:         h.DocumentURL,
					Category:        "health",
					Source:          data.Source,
					SourceReference: data.SourceReference,
					CreatedBy:       form.CreatedBy,
				})
			},
			Backward: func(ctx context.Context, result any) error {
				if !createdNew(result) {
					return nil
				}
				return a.Sink.RollbackDocument(ctx, h.DocumentURL)
			},
		})
	}

	result := op.Execute(ctx)
	if !result.OK {
		return nil, result.Err
	}

	eventRes, _ := result.Completed[0].Result.(*sync.EnsureResult)
	out := &CreateResult{ExtraRecords: extra}
	if eventRes != nil {
		out.EventIDs = []string{eventRes.ID}
	}
	return out, nil
}
