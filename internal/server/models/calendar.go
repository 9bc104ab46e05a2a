package models

import "time"

// CalendarEvent is a secondary record owned exclusively by the sync engine.
// Identity is the (Source, SourceReference) pair; no other writer may touch
// these rows.
//
// StartTime and EndTime are canonical textual datetimes, not time.Time:
// naive values represent local wall-clock time in an as-yet-unspecified zone
// and must round-trip unchanged, while offset-qualified values keep their
// original offset. For all-day events EndTime is exclusive (the next day at
// nominal midnight).
type CalendarEvent struct {
	ID              string     `db:"id"`
	Source          string     `db:"source"`
	SourceReference string     `db:"source_reference"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	StartTime       string     `db:"start_time"`
	EndTime         string     `db:"end_time"`
	AllDay          bool       `db:"all_day"`
	Location        string     `db:"location"`
	IsVirtual       bool       `db:"is_virtual"`
	VirtualLink     string     `db:"virtual_link"`
	Category        string     `db:"category"`
	AttendeeIDs     StringList `db:"attendee_ids"`
	Attendees       StringList `db:"attendees"` // external attendee emails
	GoogleCalendarID string    `db:"google_calendar_id"`
	ReminderMinutes int        `db:"reminder_minutes"`
	Timezone        string     `db:"timezone"`
	Metadata        Metadata   `db:"metadata"`
	CreatedBy       string     `db:"created_by"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// ExternalCalendar is a linked external (Google) calendar record. Only the
// fields the sync engine needs are modeled; the engine uses it to resolve a
// missing event timezone.
type ExternalCalendar struct {
	ID       string `db:"id"`
	UserID   string `db:"user_id"`
	Summary  string `db:"summary"`
	Timezone string `db:"timezone"`
}
