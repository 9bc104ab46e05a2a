package adapters

import (
	"context"
	"fmt"

	"github.com/famhub/famhub/internal/server/sync"
)

// VehicleTypeFlight is the only vehicle type with mandatory carrier fields.
const VehicleTypeFlight = "flight"

// TravelAdapter handles trip legs. A round trip creates two calendar events
// inside one composite operation: if the return leg fails, the outbound
// leg's event is compensated away instead of leaving a half-created trip.
type TravelAdapter struct {
	Sink EventSink
}

func (a *TravelAdapter) Domain() string { return "travel" }

func (a *TravelAdapter) ValidateFields(form *EventForm) ValidationResult {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "title is required")
	}
	if form.StartTime == "" {
		errs = append(errs, "start time is required")
	}
	t := form.Travel
	if t == nil {
		errs = append(errs, "travel details are required")
		return validation(errs...)
	}
	if t.VehicleType == "" {
		errs = append(errs, "vehicle type is required")
	}
	if t.VehicleType == VehicleTypeFlight {
		if t.Airline == "" {
			errs = append(errs, "airline is required for flights")
		}
		if t.FlightNumber == "" {
			errs = append(errs, "flight number is required for flights")
		}
		if t.DepartureAirport == "" {
			errs = append(errs, "departure airport is required for flights")
		}
		if t.ArrivalAirport == "" {
			errs = append(errs, "arrival airport is required for flights")
		}
	}
	return validation(errs...)
}

func (a *TravelAdapter) MapToPayload(form *EventForm) (*sync.CalendarEventData, error) {
	data := baseCalendarData(form)
	if data.Source == "" {
		data.Source = "trip_legs"
	}
	if data.Category == "" {
		data.Category = "travel"
	}

	t := form.Travel
	data.Metadata["vehicle_type"] = t.VehicleType
	if t.VehicleType == VehicleTypeFlight {
		data.Metadata["airline"] = t.Airline
		data.Metadata["flight_number"] = t.FlightNumber
		data.Metadata["departure_airport"] = t.DepartureAirport
		data.Metadata["arrival_airport"] = t.ArrivalAirport
		if data.Location == "" {
			data.Location = t.DepartureAirport
		}
	}
	return data, nil
}

// returnLegPayload derives the inbound leg from the outbound payload. The
// outbound event id links the pair so either leg can find its sibling.
func (a *TravelAdapter) returnLegPayload(outbound *sync.CalendarEventData, form *EventForm, outboundEventID string) *sync.CalendarEventData {
	t := form.Travel

	leg := *outbound
	leg.SourceReference = outbound.SourceReference + "-return"
	leg.StartTime = t.ReturnStartTime
	leg.EndTime = t.ReturnEndTime
	leg.Title = form.Title + " (return)"

	meta := make(map[string]any, len(outbound.Metadata)+2)
	for k, v := range outbound.Metadata {
		meta[k] = v
	}
	meta["outbound_event_id"] = outboundEventID
	if t.VehicleType == VehicleTypeFlight {
		if t.ReturnFlightNumber != "" {
			meta["flight_number"] = t.ReturnFlightNumber
		}
		meta["departure_airport"] = t.ArrivalAirport
		meta["arrival_airport"] = t.DepartureAirport
		leg.Location = t.ArrivalAirport
	}
	leg.Metadata = meta
	return &leg
}

func (a *TravelAdapter) CreateEvent(ctx context.Context, form *EventForm) (*CreateResult, error) {
	if v := a.ValidateFields(form); !v.Valid {
		return nil, fmt.Errorf("validation: %v", v.Errors)
	}
	outbound, err := a.MapToPayload(form)
	if err != nil {
		return nil, err
	}

	if form.Travel.ReturnStartTime == "" {
		res, err := a.Sink.EnsureCalendarEvent(ctx, outbound)
		if err != nil {
			return nil, err
		}
		return &CreateResult{EventIDs: []string{res.ID}}, nil
	}

	// Round trip: both legs in one composite so a failed inbound leg
	// removes the outbound event again.
	var outboundID string
	op := a.Sink.NewComposite().
		Add(sync.Step{
			Type: "outbound_leg",
			Forward: func(ctx context.Context) (any, error) {
				res, err := a.Sink.EnsureCalendarEvent(ctx, outbound)
				if err != nil {
					return nil, err
				}
				outboundID = res.ID
				return res, nil
			},
			Backward: func(ctx context.Context, result any) error {
				if !createdNew(result) {
					return nil
				}
				return a.Sink.RollbackCalendarEvent(ctx, outbound.Source, outbound.SourceReference)
			},
		}).
		Add(sync.Step{
			Type: "return_leg",
			Forward: func(ctx context.Context) (any, error) {
				return a.Sink.EnsureCalendarEvent(ctx, a.returnLegPayload(outbound, form, outboundID))
			},
		})

	result := op.Execute(ctx)
	if !result.OK {
		return nil, result.Err
	}

	ids := make([]string, 0, len(result.Completed))
	for _, step := range result.Completed {
		if res, ok := step.Result.(*sync.EnsureResult); ok {
			ids = append(ids, res.ID)
		}
	}
	return &CreateResult{EventIDs: ids}, nil
}
