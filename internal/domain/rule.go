package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rule-specific validation errors
var (
	// ErrRuleDueDateZero is returned when a fixed-due-date rule has no date.
	ErrRuleDueDateZero = errors.New("fixed due date cannot be zero")

	// ErrRuleNegativeDelay is returned when a rule's delay is negative.
	ErrRuleNegativeDelay = errors.New("rule delay days cannot be negative")

	// ErrRuleNegativeActive is returned when a rule's active window is negative.
	ErrRuleNegativeActive = errors.New("rule active days cannot be negative")

	// ErrRuleAnchorEmpty is returned when a horizontal-delay rule references
	// an anchor schedule with a nil ID.
	ErrRuleAnchorEmpty = errors.New("rule anchor schedule ID cannot be nil")
)

// RuleKind identifies the variant of a schedule rule.
type RuleKind string

// Possible rule kinds. The single-letter values double as the kind prefix
// of the persisted rule encoding.
const (
	RuleKindFixed      RuleKind = "F"
	RuleKindHorizontal RuleKind = "H"
	RuleKindVertical   RuleKind = "V"
)

// ScheduleRule describes how a review point's active and due dates are
// derived. It is a closed set of variants: FixedDueDate, HorizontalDelay,
// and VerticalDelay. The date derivation itself lives in the schedule
// package; rules only carry the declarative parameters.
type ScheduleRule interface {
	// Kind returns the rule variant.
	Kind() RuleKind

	// Encode serializes the rule into the stable string form used by the
	// data layer and by backup files. ParseRule is its inverse.
	Encode() string

	// Validate checks the rule's fields for internal consistency.
	Validate() error

	// AnchorScheduleID returns the ID of the schedule this rule's dates are
	// measured from, or nil when the rule anchors on the section's initial
	// learning date (or has no anchor at all).
	AnchorScheduleID() *uuid.UUID
}

// FixedDueDate is a rule under which every point on the schedule is due on
// the same calendar date. There is no active window: points are simply
// not-yet-due before the date and due after it.
type FixedDueDate struct {
	Due time.Time
}

// Kind implements ScheduleRule.
func (r FixedDueDate) Kind() RuleKind { return RuleKindFixed }

// AnchorScheduleID implements ScheduleRule. Fixed rules have no anchor.
func (r FixedDueDate) AnchorScheduleID() *uuid.UUID { return nil }

// Validate implements ScheduleRule.
func (r FixedDueDate) Validate() error {
	if r.Due.IsZero() {
		return ErrRuleDueDateZero
	}
	return nil
}

// HorizontalDelay is a rule under which a point becomes active DaysDelayed
// days after its anchor date and due DaysActive days after that. The anchor
// is the section's initial learning date when DelayedFromID is nil, or the
// completion date of the point at the same section for the referenced
// schedule when it is set.
type HorizontalDelay struct {
	DelayedFromID *uuid.UUID
	DaysDelayed   int
	DaysActive    int
}

// Kind implements ScheduleRule.
func (r HorizontalDelay) Kind() RuleKind { return RuleKindHorizontal }

// AnchorScheduleID implements ScheduleRule.
func (r HorizontalDelay) AnchorScheduleID() *uuid.UUID { return r.DelayedFromID }

// Validate implements ScheduleRule.
func (r HorizontalDelay) Validate() error {
	if r.DelayedFromID != nil && *r.DelayedFromID == uuid.Nil {
		return ErrRuleAnchorEmpty
	}
	if r.DaysDelayed < 0 {
		return ErrRuleNegativeDelay
	}
	if r.DaysActive < 0 {
		return ErrRuleNegativeActive
	}
	return nil
}

// VerticalDelay is a rule under which a point becomes due once a given
// number of later sections have had their initial learning logged. The rule
// round-trips through the persisted encoding, but date resolution is an
// extension point: the engine reports its dates as indeterminate.
type VerticalDelay struct {
	SectionsDelay int
	DaysActive    int
	MaxDaysActive *int
}

// Kind implements ScheduleRule.
func (r VerticalDelay) Kind() RuleKind { return RuleKindVertical }

// AnchorScheduleID implements ScheduleRule. Vertical rules anchor on later
// sections, not on another schedule.
func (r VerticalDelay) AnchorScheduleID() *uuid.UUID { return nil }

// Validate implements ScheduleRule.
func (r VerticalDelay) Validate() error {
	if r.SectionsDelay < 0 {
		return ErrRuleNegativeDelay
	}
	if r.DaysActive < 0 {
		return ErrRuleNegativeActive
	}
	if r.MaxDaysActive != nil && *r.MaxDaysActive < 0 {
		return ErrRuleNegativeActive
	}
	return nil
}
