package adapters

import "github.com/famhub/famhub/internal/server/models"

// EventForm is the unified event-creation form submitted by the UI. The
// generic fields cover every domain; the typed detail blocks replace the
// original grab-bag record so each adapter validates an explicit shape.
//
// notifyAttendees arrives in three legacy spellings: camelCase, snake_case,
// or a metadata flag. NotifyFlag() resolves them, first non-nil wins.
type EventForm struct {
	Domain string `json:"domain"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	AllDay      bool   `json:"all_day,omitempty"`
	Location    string `json:"location,omitempty"`
	Category    string `json:"category,omitempty"`

	IsVirtual   bool   `json:"is_virtual,omitempty"`
	VirtualLink string `json:"virtual_link,omitempty"`

	Source          string `json:"source,omitempty"`
	SourceReference string `json:"source_reference,omitempty"`

	AttendeeIDs []string `json:"attendee_ids,omitempty"`
	// Attendees holds structured external attendee emails.
	Attendees []string `json:"attendees,omitempty"`
	// ExternalAttendees is the comma-separated free-text field from the
	// form; split and merged with Attendees during mapping.
	ExternalAttendees string `json:"external_attendees,omitempty"`

	NotifyAttendeesCamel *bool `json:"notifyAttendees,omitempty"`
	NotifyAttendeesSnake *bool `json:"notify_attendees,omitempty"`

	GoogleCalendarID string          `json:"google_calendar_id,omitempty"`
	ReminderMinutes  int             `json:"reminder_minutes,omitempty"`
	Timezone         string          `json:"timezone,omitempty"`
	Metadata         models.Metadata `json:"metadata,omitempty"`
	CreatedBy        string          `json:"-"`

	Travel    *TravelDetails   `json:"travel,omitempty"`
	Health    *HealthDetails   `json:"health,omitempty"`
	Pets      *PetDetails      `json:"pets,omitempty"`
	Academics *AcademicDetails `json:"academics,omitempty"`
}

// TravelDetails carries trip-leg fields. Flight fields are required only
// when VehicleType is "flight". A non-empty ReturnStartTime makes the trip
// a round trip with a second leg.
type TravelDetails struct {
	VehicleType      string `json:"vehicle_type"`
	Airline          string `json:"airline,omitempty"`
	FlightNumber     string `json:"flight_number,omitempty"`
	DepartureAirport string `json:"departure_airport,omitempty"`
	ArrivalAirport   string `json:"arrival_airport,omitempty"`
	ReturnStartTime  string `json:"return_start_time,omitempty"`
	ReturnEndTime    string `json:"return_end_time,omitempty"`
	ReturnFlightNumber string `json:"return_flight_number,omitempty"`
}

// HealthDetails carries appointment fields. Portal credentials, when
// present, opportunistically create a password entry next to the event;
// a portal document link creates a document record.
type HealthDetails struct {
	Provider       string `json:"provider"`
	PortalURL      string `json:"portal_url,omitempty"`
	PortalUsername string `json:"portal_username,omitempty"`
	PortalPassword string `json:"portal_password,omitempty"`
	DocumentURL    string `json:"document_url,omitempty"`
	DocumentTitle  string `json:"document_title,omitempty"`
}

type PetDetails struct {
	PetName string `json:"pet_name"`
	Vet     string `json:"vet,omitempty"`
}

type AcademicDetails struct {
	StudentName string `json:"student_name"`
	School      string `json:"school,omitempty"`
}

// NotifyFlag resolves the notify-attendees intent from the three legacy
// input shapes: explicit camelCase field, explicit snake_case field, then
// the metadata flag. First non-undefined wins; default false.
func (f *EventForm) NotifyFlag() bool {
	if f.NotifyAttendeesCamel != nil {
		return *f.NotifyAttendeesCamel
	}
	if f.NotifyAttendeesSnake != nil {
		return *f.NotifyAttendeesSnake
	}
	if v, ok := f.Metadata.Bool(models.MetaNotifyAttendees); ok {
		return v
	}
	return false
}
