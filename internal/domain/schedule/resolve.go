package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// AnchorState describes what the resolver learned about the anchor point of
// a chained horizontal-delay rule.
type AnchorState int

const (
	// AnchorIndeterminate means the anchor could not be resolved: the lookup
	// failed or was cancelled, the anchor schedule is dangling, or the
	// underlying section is gone. Partial data must never fail a read-only
	// derivation, so this degrades to an unknown status.
	AnchorIndeterminate AnchorState = iota

	// AnchorPending means the anchor point exists (or would be created
	// lazily) but has never been completed. The dependent point is blocked
	// behind it and reports as early.
	AnchorPending

	// AnchorCompleted means the anchor point has been completed; its
	// completion date is the anchor date for the dependent rule.
	AnchorCompleted
)

// AnchorResolution is the result of resolving one anchor point.
type AnchorResolution struct {
	State       AnchorState
	CompletedOn time.Time // set only when State == AnchorCompleted
}

// AnchorResolver resolves the review point at the same section for the given
// anchor schedule ID. Implementations typically close over the section and a
// repository; a nil resolver treats every anchor as indeterminate.
type AnchorResolver func(scheduleID uuid.UUID) AnchorResolution

// Reachability classifies how far date resolution got.
type Reachability int

const (
	// Resolved means a due date (and possibly an active date) was derived.
	Resolved Reachability = iota

	// Blocked means the rule is well-formed but its anchor point has not
	// been completed yet, so no dates exist. Blocked points report as
	// early: they will normally start once the anchor completes.
	Blocked

	// Indeterminate means no dates can be derived at all: missing data, a
	// dangling anchor reference, or a rule kind with no date resolution.
	Indeterminate
)

// Dates is the derived review window for one point.
type Dates struct {
	Active       *time.Time
	Due          *time.Time
	Reachability Reachability
}

// ResolveDates derives the active and due dates for the point at the given
// section and schedule. Day arithmetic is calendar-day addition (AddDate),
// so windows stay correct across daylight-saving transitions.
func ResolveDates(section *domain.Section, sc *domain.ScheduledChazara, resolve AnchorResolver) Dates {
	if section == nil || sc == nil || sc.Rule == nil {
		return Dates{Reachability: Indeterminate}
	}

	switch rule := sc.Rule.(type) {
	case domain.FixedDueDate:
		due := rule.Due
		// Fixed rules have no active window by design.
		return Dates{Due: &due, Reachability: Resolved}

	case domain.HorizontalDelay:
		anchor, reach := resolveAnchorDate(section, rule, resolve)
		if reach != Resolved {
			return Dates{Reachability: reach}
		}

		active := anchor.AddDate(0, 0, rule.DaysDelayed)
		due := active.AddDate(0, 0, rule.DaysActive)
		return Dates{Active: &active, Due: &due, Reachability: Resolved}

	case domain.VerticalDelay:
		// Date resolution for vertical delays is an extension point; the
		// rule round-trips through storage but derives no dates yet.
		return Dates{Reachability: Indeterminate}

	default:
		return Dates{Reachability: Indeterminate}
	}
}

// resolveAnchorDate finds the date a horizontal-delay rule is measured from:
// the section's initial learning date, or the completion date of the point
// at the referenced anchor schedule.
func resolveAnchorDate(
	section *domain.Section,
	rule domain.HorizontalDelay,
	resolve AnchorResolver,
) (time.Time, Reachability) {
	if rule.DelayedFromID == nil {
		return section.InitialDate, Resolved
	}

	if resolve == nil {
		return time.Time{}, Indeterminate
	}

	switch res := resolve(*rule.DelayedFromID); res.State {
	case AnchorCompleted:
		return res.CompletedOn, Resolved
	case AnchorPending:
		return time.Time{}, Blocked
	default:
		return time.Time{}, Indeterminate
	}
}

// ComputeActiveDate derives just the active date for the point at the given
// section and schedule, or nil when none is resolvable.
func ComputeActiveDate(section *domain.Section, sc *domain.ScheduledChazara, resolve AnchorResolver) *time.Time {
	return ResolveDates(section, sc, resolve).Active
}

// ComputeDueDate derives just the due date for the point at the given
// section and schedule, or nil when none is resolvable.
func ComputeDueDate(section *domain.Section, sc *domain.ScheduledChazara, resolve AnchorResolver) *time.Time {
	return ResolveDates(section, sc, resolve).Due
}
