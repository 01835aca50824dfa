package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// PointStore defines the interface for review point persistence.
// Exactly one point exists per (section, schedule) coordinate; GetOrCreate
// enforces that invariant with lazy creation on first access.
type PointStore interface {
	// Get retrieves the review point at the given coordinate.
	// Returns ErrPointNotFound if no point has been materialized yet.
	Get(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error)

	// GetOrCreate retrieves the review point at the given coordinate,
	// creating it with status unknown if it does not exist yet. Creation is
	// race-safe: concurrent callers for the same coordinate observe the
	// same row.
	GetOrCreate(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error)

	// ListBySection retrieves all materialized points for the given section.
	ListBySection(ctx context.Context, sectionID uuid.UUID) ([]*domain.ReviewPoint, error)

	// Update persists a point's status and completion date.
	// Returns ErrPointNotFound if the point does not exist.
	// Returns validation errors from the domain ReviewPoint if data is invalid.
	Update(ctx context.Context, point *domain.ReviewPoint) error

	// WithTx returns a new PointStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PointStore
}
