package models

import "time"

// CSRFToken is the per-session anti-forgery token. One active token per
// session; overwritten on regeneration, deleted on expiry.
type CSRFToken struct {
	SessionID string `db:"session_id"`
	Token     string `db:"token"`
	// Expires is epoch milliseconds, matching what the browser-side
	// companion stores next to its cookie copy.
	Expires int64 `db:"expires"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *CSRFToken) Expired(now time.Time) bool {
	return now.UnixMilli() >= t.Expires
}
