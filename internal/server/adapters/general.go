package adapters

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/server/sync"
)

// GeneralAdapter handles plain calendar events with no domain extras.
type GeneralAdapter struct {
	Sink EventSink
}

func (a *GeneralAdapter) Domain() string { return "general" }

func (a *GeneralAdapter) ValidateFields(form *EventForm) ValidationResult {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "title is required")
	}
	if form.StartTime == "" {
		errs = append(errs, "start time is required")
	}
	return validation(errs...)
}

func (a *GeneralAdapter) MapToPayload(form *EventForm) (*sync.CalendarEventData, error) {
	data := baseCalendarData(form)
	if data.Source == "" {
		data.Source = "general_events"
	}
	if data.Category == "" {
		data.Category = "general"
	}
	return data, nil
}

func (a *GeneralAdapter) CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error) {
	if v := a.ValidateFields(form); !v.Valid {
		return nil, fmt.Errorf("validation: %v", v.Errors)
	}
	data, err := a.MapToPayload(form)
	if err != nil {
		return nil, err
	}
	res, err := a.Sink.EnsureCalendarEvent(ctx, data)
	if err != nil {
		return nil, err
	}
	return &CreateResult{EventIDs: []string{res.ID}}, nil
}
