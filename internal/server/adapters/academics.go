package adapters

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/server/sync"
)

// AcademicsAdapter handles school events (conferences, exams, deadlines).
type AcademicsAdapter struct {
	Sink EventSink
}

func (a *AcademicsAdapter) Domain() string { return "academics" }

func (a *AcademicsAdapter) ValidateFields(form *EventForm) ValidationResult {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "title is required")
	}
	if form.StartTime == "" {
		errs = append(errs, "start time is required")
	}
	if form.Academics == nil || form.Academics.StudentName == "" {
		errs = append(errs, "student name is required")
	}
	return validation(errs...)
}

func (a *AcademicsAdapter) MapToPayload(form *EventForm) (*sync.CalendarEventData, error) {
	data := baseCalendarData(form)
	if data.Source == "" {
		data.Source = "academic_events"
	}
	if data.Category == "" {
		data.Category = "academics"
	}
	data.Metadata["student_name"] = form.Academics.StudentName
	if form.Academics.School != "" {
		data.Metadata["school"] = form.Academics.School
	}
	return data, nil
}

func (a *AcademicsAdapter) CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error) {
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
