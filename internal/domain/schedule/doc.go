// Package schedule implements the review-point date and status derivation
// engine. Everything in this package is pure computation: callers supply the
// section, the schedule, the clock, and a callback that resolves anchor
// points, and get back derived dates and a status. No I/O happens here; the
// service layer owns repository access and persistence.
package schedule
