package adapters

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/server/sync"
)

// PetsAdapter handles pet-care events (vet visits, grooming, medication).
type PetsAdapter struct {
	Sink EventSink
}

func (a *PetsAdapter) Domain() string { return "pets" }

func (a *PetsAdapter) ValidateFields(form *EventForm) ValidationResult {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "title is required")
	}
	if form.StartTime == "" {
		errs = append(errs, "start time is required")
	}
	if form.Pets == nil || form.Pets.PetName == "" {
		errs = append(errs, "pet name is required")
	}
	return validation(errs...)
}

func (a *PetsAdapter) MapToPayload(form *EventForm) (*sync.CalendarEventData, error) {
	data := baseCalendarData(form)
	if data.Source == "" {
		data.Source = "pet_care"
	}
	if data.Category == "" {
		data.Category = "pets"
	}
	data.Metadata["pet_name"] = form.Pets.PetName
	if form.Pets.Vet != "" {
		data.Metadata["vet"] = form.Pets.Vet
	}
	return data, nil
}

func (a *PetsAdapter) CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error) {
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
