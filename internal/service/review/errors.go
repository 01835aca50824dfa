package review

import "errors"

// Common review service errors
var (
	// ErrSectionNotFound indicates the requested section does not exist.
	ErrSectionNotFound = errors.New("section not found")

	// ErrScheduleNotFound indicates the requested schedule does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrLimudNotFound indicates the requested limud does not exist.
	ErrLimudNotFound = errors.New("limud not found")

	// ErrScheduleNotInLimud indicates the section and schedule belong to
	// different limudim. Points only exist for coordinates within one limud.
	ErrScheduleNotInLimud = errors.New("section and schedule belong to different limudim")
)
