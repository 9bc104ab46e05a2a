// Package common contains shared constants and sentinel errors used across
// famhub components.
package common

const (
	// CSRFHeaderName is the request header carrying the anti-forgery token.
	CSRFHeaderName = "x-csrf-token"

	// CSRFCookieName is the cookie mirror of the anti-forgery token,
	// checked second when the header is absent (double-submit pattern).
	CSRFCookieName = "csrf-token"

	// SessionCookieName identifies the browser session CSRF tokens are
	// keyed by.
	SessionCookieName = "fh_session"

	// SystemUser is the owning-user id stamped on records created without
	// an authenticated caller (trusted service calls, internal jobs).
	SystemUser = "system"
)
