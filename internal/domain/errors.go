package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword is returned when a password doesn't meet requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidRuleEncoding is returned when a schedule rule string does not
	// match the persisted rule grammar. Malformed encodings are never coerced
	// to a default rule; the caller must surface the error.
	ErrInvalidRuleEncoding = errors.New("invalid schedule rule encoding")

	// ErrInvalidStatus is returned when a chazara status value is not one of
	// the known states.
	ErrInvalidStatus = errors.New("invalid chazara status")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
