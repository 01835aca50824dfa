package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ChazaraStatus represents the lifecycle state of a review point.
type ChazaraStatus string

// Possible chazara status values. Completed and exempt are terminal and set
// only by explicit user actions; the remaining states are derived from the
// schedule rule and the clock.
const (
	ChazaraStatusUnknown   ChazaraStatus = "unknown"
	ChazaraStatusExempt    ChazaraStatus = "exempt"
	ChazaraStatusEarly     ChazaraStatus = "early"
	ChazaraStatusActive    ChazaraStatus = "active"
	ChazaraStatusLate      ChazaraStatus = "late"
	ChazaraStatusCompleted ChazaraStatus = "completed"
)

// IsTerminal reports whether the status is one of the terminal states that
// short-circuit date derivation.
func (s ChazaraStatus) IsTerminal() bool {
	return s == ChazaraStatusCompleted || s == ChazaraStatusExempt
}

// IsValid reports whether the status is one of the known states.
func (s ChazaraStatus) IsValid() bool {
	switch s {
	case ChazaraStatusUnknown, ChazaraStatusExempt, ChazaraStatusEarly,
		ChazaraStatusActive, ChazaraStatusLate, ChazaraStatusCompleted:
		return true
	default:
		return false
	}
}

// ReviewPoint-specific validation errors
var (
	// ErrPointIDEmpty is returned when a review point ID is empty or nil.
	ErrPointIDEmpty = errors.New("review point ID cannot be empty")

	// ErrPointSectionIDEmpty is returned when a point's section ID is empty or nil.
	ErrPointSectionIDEmpty = errors.New("review point section ID cannot be empty")

	// ErrPointScheduleIDEmpty is returned when a point's schedule ID is empty or nil.
	ErrPointScheduleIDEmpty = errors.New("review point schedule ID cannot be empty")

	// ErrPointCompletionDateMissing is returned when a completed point has no
	// completion date.
	ErrPointCompletionDateMissing = errors.New("completed review point must have a completion date")

	// ErrPointCompletionDateSet is returned when a point that is not
	// completed carries a completion date.
	ErrPointCompletionDateSet = errors.New("only completed review points may have a completion date")
)

// ReviewPoint is the materialized review state for one (section, schedule)
// coordinate. Exactly one point exists per coordinate; it is created lazily
// on first access. Status and CompletionDate are the only externally
// persisted mutable state — active and due dates are derived on demand from
// the section, the schedule rule, and (for chained rules) the anchor
// point's completion.
//
// The persisted Status field caches the most recently derived value for
// display; the authoritative value is always recomputable from the rule
// chain, the clock, and CompletionDate.
type ReviewPoint struct {
	ID             uuid.UUID     `json:"id"`
	SectionID      uuid.UUID     `json:"section_id"`
	ScheduleID     uuid.UUID     `json:"schedule_id"`
	Status         ChazaraStatus `json:"status"`
	CompletionDate *time.Time    `json:"completion_date,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewReviewPoint creates a new ReviewPoint for the given coordinate with
// status unknown. It generates a new UUID for the point ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewReviewPoint(sectionID, scheduleID uuid.UUID) (*ReviewPoint, error) {
	point := &ReviewPoint{
		ID:         uuid.New(),
		SectionID:  sectionID,
		ScheduleID: scheduleID,
		Status:     ChazaraStatusUnknown,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := point.Validate(); err != nil {
		return nil, err
	}

	return point, nil
}

// Validate checks if the ReviewPoint has valid data, including the terminal
// state invariants: completed points carry a completion date, all other
// points do not.
func (p *ReviewPoint) Validate() error {
	if p.ID == uuid.Nil {
		return ErrPointIDEmpty
	}

	if p.SectionID == uuid.Nil {
		return ErrPointSectionIDEmpty
	}

	if p.ScheduleID == uuid.Nil {
		return ErrPointScheduleIDEmpty
	}

	if !p.Status.IsValid() {
		return ErrInvalidStatus
	}

	if p.Status == ChazaraStatusCompleted && p.CompletionDate == nil {
		return ErrPointCompletionDateMissing
	}

	if p.Status != ChazaraStatusCompleted && p.CompletionDate != nil {
		return ErrPointCompletionDateSet
	}

	return nil
}

// Clone returns a copy of the point. The review service mutates copies and
// persists them, so a failed save never leaves a half-updated point in
// memory.
func (p *ReviewPoint) Clone() *ReviewPoint {
	clone := *p
	if p.CompletionDate != nil {
		d := *p.CompletionDate
		clone.CompletionDate = &d
	}
	return &clone
}
