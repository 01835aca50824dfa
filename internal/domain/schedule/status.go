package schedule

import (
	"time"

	"github.com/phrazzld/chazara-api/internal/domain"
)

// Snapshot is the full derived state of one review point: the authoritative
// status plus the dates it was derived from. Terminal points report no
// dates.
type Snapshot struct {
	Status domain.ChazaraStatus
	Active *time.Time
	Due    *time.Time
}

// ComputeStatus derives the authoritative status for the point at the given
// section and schedule. The prior status matters only for the two terminal
// states, which are set by explicit user actions and short-circuit
// derivation; every non-terminal status is recomputed from scratch, so the
// result for a given clock and rule chain never depends on stale cached
// state.
func ComputeStatus(
	now time.Time,
	section *domain.Section,
	sc *domain.ScheduledChazara,
	prior domain.ChazaraStatus,
	resolve AnchorResolver,
) domain.ChazaraStatus {
	return Derive(now, section, sc, prior, resolve).Status
}

// Derive computes the snapshot for one point: status plus the derived
// window. Non-terminal status is a pure function of (now, active, due,
// reachability):
//
//	no due date, anchor pending  -> early (blocked, but will normally start)
//	no due date otherwise        -> unknown
//	now < active                 -> early
//	active <= now < due          -> active
//	now >= due                   -> late
//
// Fixed-due-date rules have no active window, so they are active until due
// and late after.
func Derive(
	now time.Time,
	section *domain.Section,
	sc *domain.ScheduledChazara,
	prior domain.ChazaraStatus,
	resolve AnchorResolver,
) Snapshot {
	if prior.IsTerminal() {
		return Snapshot{Status: prior}
	}

	dates := ResolveDates(section, sc, resolve)
	return Snapshot{
		Status: statusFromDates(now, dates),
		Active: dates.Active,
		Due:    dates.Due,
	}
}

func statusFromDates(now time.Time, dates Dates) domain.ChazaraStatus {
	if dates.Due == nil {
		if dates.Reachability == Blocked {
			return domain.ChazaraStatusEarly
		}
		return domain.ChazaraStatusUnknown
	}

	if dates.Active != nil && now.Before(*dates.Active) {
		return domain.ChazaraStatusEarly
	}

	if now.Before(*dates.Due) {
		return domain.ChazaraStatusActive
	}

	return domain.ChazaraStatusLate
}
