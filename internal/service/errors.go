package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrAnchorNotFound indicates a schedule rule references an anchor
	// schedule that does not exist.
	ErrAnchorNotFound = errors.New("anchor schedule not found")

	// ErrAnchorNotInLimud indicates a schedule rule references an anchor
	// schedule in a different limud. Chains never cross limud boundaries.
	ErrAnchorNotInLimud = errors.New("anchor schedule belongs to a different limud")
)
