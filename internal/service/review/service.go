package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// PointSnapshot is the full externally visible state of one review point:
// the persisted point, its authoritative status, and the derived review
// window. Terminal points (completed, exempt) carry no dates.
type PointSnapshot struct {
	Point      *domain.ReviewPoint  `json:"point"`
	Status     domain.ChazaraStatus `json:"status"`
	ActiveDate *time.Time           `json:"active_date,omitempty"`
	DueDate    *time.Time           `json:"due_date,omitempty"`
}

// DashboardEntry is one row of a limud's status dashboard: the snapshot for
// one (section, schedule) coordinate plus the names needed for display.
type DashboardEntry struct {
	SectionID    uuid.UUID            `json:"section_id"`
	SectionName  string               `json:"section_name"`
	ScheduleID   uuid.UUID            `json:"schedule_id"`
	ScheduleName string               `json:"schedule_name"`
	Status       domain.ChazaraStatus `json:"status"`
	ActiveDate   *time.Time           `json:"active_date,omitempty"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
}

// RefreshSummary reports the outcome of a bulk status refresh. A refresh
// tolerates per-point failures: Failed counts points whose status could not
// be derived or persisted, and never aborts the rest of the run.
type RefreshSummary struct {
	Refreshed int `json:"refreshed"` // points examined
	Changed   int `json:"changed"`   // points whose persisted status changed
	Failed    int `json:"failed"`    // points skipped due to errors
}

// ReviewService provides review point state and transitions.
type ReviewService interface {
	// GetSnapshot retrieves the current snapshot for the point at the given
	// (section, schedule) coordinate, materializing the point with status
	// unknown on first access.
	//
	// The derived status is recomputed on every call (subject to a short TTL
	// debounce) and persisted back best-effort; a failed status-cache write
	// is logged but never fails the read.
	//
	// Returns ErrSectionNotFound or ErrScheduleNotFound if either side of
	// the coordinate does not exist, and ErrScheduleNotInLimud if they
	// belong to different limudim.
	GetSnapshot(ctx context.Context, sectionID, scheduleID uuid.UUID) (*PointSnapshot, error)

	// GetDashboard derives snapshots for every (section, schedule) coordinate
	// of the limud, excluding hidden schedules. Points are materialized
	// lazily as a side effect. Per-point derivation failures degrade that
	// entry to status unknown rather than failing the dashboard.
	//
	// Returns ErrLimudNotFound if the limud does not exist.
	GetDashboard(ctx context.Context, limudID uuid.UUID) ([]*DashboardEntry, error)

	// MarkCompleted marks the point at the given coordinate as completed on
	// the given date. A zero completedOn means "now". Completion is terminal:
	// the point stops deriving dates, and any points whose rules anchor on
	// this schedule start measuring from completedOn.
	//
	// If the save fails, the in-memory point is left unchanged and the error
	// is surfaced.
	MarkCompleted(ctx context.Context, sectionID, scheduleID uuid.UUID, completedOn time.Time) (*PointSnapshot, error)

	// MarkExempt marks the point at the given coordinate as exempt,
	// permanently excusing it from review. Exemption is terminal and carries
	// no completion date.
	MarkExempt(ctx context.Context, sectionID, scheduleID uuid.UUID) (*PointSnapshot, error)

	// Unmark clears a terminal state (completed or exempt), re-deriving the
	// point's natural status from its rule chain and the clock. Unmarking a
	// non-terminal point is a no-op that returns the current snapshot.
	Unmark(ctx context.Context, sectionID, scheduleID uuid.UUID) (*PointSnapshot, error)

	// RefreshLimud re-derives and persists the status of every point in the
	// limud. Per-point failures are counted, logged, and skipped.
	//
	// Returns ErrLimudNotFound if the limud does not exist.
	RefreshLimud(ctx context.Context, limudID uuid.UUID) (*RefreshSummary, error)

	// RefreshAll runs RefreshLimud across every limud in the store. Used by
	// the background refresh job. Per-limud failures are logged and skipped.
	RefreshAll(ctx context.Context) (*RefreshSummary, error)
}
