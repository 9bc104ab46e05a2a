// Package models defines server-side data models persisted in the database.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Well-known metadata keys. The bag deliberately stays open for
// forward-compatibility, but these keys have defined types and are
// validated at the sync-engine boundary.
const (
	MetaTimezone        = "timezone"
	MetaDurationMinutes = "duration_minutes"
	MetaNotifyAttendees = "notify_attendees"
	MetaProviderEndTime = "google_end_time"
)

// Metadata is the free-form key/value bag carrying domain-specific extras
// through the generic secondary-record shapes. Stored as JSONB.
type Metadata map[string]any

// Value implements driver.Valuer so Metadata can be written as JSONB.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}

// String returns the string value for key, or "" if absent or not a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer value for key. JSON numbers arrive as float64;
// plain ints are accepted too. Returns 0 if absent or mistyped.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Bool looks up a boolean flag. The second return reports whether the key
// was present and boolean-typed, so callers can distinguish "false" from
// "not set".
func (m Metadata) Bool(key string) (bool, bool) {
	v, ok := m[key].(bool)
	return v, ok
}

// StringList is a JSON-encoded list of strings (attendee ids, emails, ...).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
