package sync

import "github.com/famhub/famhub/internal/server/models"

// CalendarEventData is the wire-shaped payload accepted by
// EnsureCalendarEvent. Field names mirror what domain adapters and upstream
// webhooks actually send, including the legacy virtual_meeting_link spelling
// that normalization folds into VirtualLink.
type CalendarEventData struct {
	Source          string `json:"source"`
	SourceReference string `json:"source_reference"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location,omitempty"`

	IsVirtual          bool   `json:"is_virtual,omitempty"`
	VirtualLink        string `json:"virtual_link,omitempty"`
	VirtualMeetingLink string `json:"virtual_meeting_link,omitempty"` // legacy spelling

	Category         string          `json:"category"`
	AttendeeIDs      []string        `json:"attendee_ids,omitempty"`
	Attendees        []string        `json:"attendees,omitempty"` // external emails
	GoogleCalendarID string          `json:"google_calendar_id,omitempty"`
	ReminderMinutes  int             `json:"reminder_minutes,omitempty"`
	Timezone         string          `json:"timezone,omitempty"`
	Metadata         models.Metadata `json:"metadata,omitempty"`
	CreatedBy        string          `json:"created_by,omitempty"`
}

// PasswordEntryData is the payload accepted by EnsurePasswordEntry.
// Name and Title are aliases; the first non-empty wins.
type PasswordEntryData struct {
	Source          string `json:"source"`
	SourceReference string `json:"source_reference"`

	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Website  string `json:"website,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`

	Metadata  models.Metadata `json:"metadata,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
}

// DocumentData is the payload accepted by EnsureDocument. FileURL is the
// identity key.
type DocumentData struct {
	Title           string   `json:"title"`
	FileURL         string   `json:"file_url"`
	FileSize        int64    `json:"file_size,omitempty"`
	FileType        string   `json:"file_type,omitempty"`
	Category        string   `json:"category"`
	Source          string   `json:"source,omitempty"`
	SourceReference string   `json:"source_reference,omitempty"`
	AssignedTo      []string `json:"assigned_to,omitempty"`

	Metadata  models.Metadata `json:"metadata,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
}

// EnsureResult reports the outcome of an idempotent upsert. Existed is true
// when the identity key already had a row, whether discovered by lookup or
// by recovering from an insert race.
type EnsureResult struct {
	ID      string `json:"id"`
	Existed bool   `json:"existed"`
}
