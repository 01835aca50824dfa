package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScheduledChazara-specific validation errors
var (
	// ErrScheduleIDEmpty is returned when a schedule ID is empty or nil.
	ErrScheduleIDEmpty = errors.New("schedule ID cannot be empty")

	// ErrScheduleLimudIDEmpty is returned when a schedule's limud ID is empty or nil.
	ErrScheduleLimudIDEmpty = errors.New("schedule limud ID cannot be empty")

	// ErrScheduleNameEmpty is returned when a schedule's name is empty.
	ErrScheduleNameEmpty = errors.New("schedule name cannot be empty")

	// ErrScheduleRuleNil is returned when a schedule has no rule.
	ErrScheduleRuleNil = errors.New("schedule rule cannot be nil")

	// ErrScheduleAnchorMismatch is returned when a schedule's DelayedFromID
	// does not match its rule's anchor. The two must agree: the rule is
	// authoritative during date resolution, and the stored column backs
	// SQL-side chain queries.
	ErrScheduleAnchorMismatch = errors.New("schedule delayed-from ID must match rule anchor")

	// ErrScheduleSelfAnchor is returned when a schedule's rule anchors on the
	// schedule itself, the degenerate one-element cycle.
	ErrScheduleSelfAnchor = errors.New("schedule cannot be delayed from itself")
)

// ScheduledChazara is a named review-schedule definition within a limud.
// Each (section, schedule) pair materializes as one ReviewPoint whose dates
// and status are derived from the schedule's rule.
//
// DelayedFromID mirrors the rule's anchor schedule reference. Chains of
// delayed-from pointers must stay acyclic; that invariant is enforced at
// creation time by the service layer, not re-validated here.
type ScheduledChazara struct {
	ID            uuid.UUID    `json:"id"`
	LimudID       uuid.UUID    `json:"limud_id"`
	Name          string       `json:"name"`
	Hidden        bool         `json:"hidden"` // Hidden from the dashboard, still scheduled
	DelayedFromID *uuid.UUID   `json:"delayed_from_id,omitempty"`
	Rule          ScheduleRule `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewScheduledChazara creates a new ScheduledChazara in the given limud with
// the given name and rule. DelayedFromID is taken from the rule's anchor.
// It generates a new UUID for the schedule ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewScheduledChazara(limudID uuid.UUID, name string, rule ScheduleRule, hidden bool) (*ScheduledChazara, error) {
	if rule == nil {
		return nil, ErrScheduleRuleNil
	}

	sc := &ScheduledChazara{
		ID:            uuid.New(),
		LimudID:       limudID,
		Name:          name,
		Hidden:        hidden,
		DelayedFromID: rule.AnchorScheduleID(),
		Rule:          rule,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return sc, nil
}

// Validate checks if the ScheduledChazara has valid data.
// Returns an error if any field fails validation.
func (sc *ScheduledChazara) Validate() error {
	if sc.ID == uuid.Nil {
		return ErrScheduleIDEmpty
	}

	if sc.LimudID == uuid.Nil {
		return ErrScheduleLimudIDEmpty
	}

	if sc.Name == "" {
		return ErrScheduleNameEmpty
	}

	if sc.Rule == nil {
		return ErrScheduleRuleNil
	}

	if err := sc.Rule.Validate(); err != nil {
		return err
	}

	if !anchorIDsEqual(sc.DelayedFromID, sc.Rule.AnchorScheduleID()) {
		return ErrScheduleAnchorMismatch
	}

	if sc.DelayedFromID != nil && *sc.DelayedFromID == sc.ID {
		return ErrScheduleSelfAnchor
	}

	return nil
}

func anchorIDsEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
