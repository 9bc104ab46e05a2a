// Package common defines shared constants and sentinel errors used across
// famhub components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Adapter validation errors.
	ErrorValidation = errors.New("validation error")

	// CSRF errors (invalid, missing, or expired token).
	ErrCSRFTokenInvalid = errors.New("invalid csrf token")
	ErrCSRFTokenExpired = errors.New("csrf token expired")

	// Auth errors (invalid or malformed bearer token).
	ErrInvalidToken = errors.New("invalid token")
)
