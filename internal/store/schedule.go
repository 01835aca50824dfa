package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// ScheduleStore defines the interface for scheduled chazara persistence.
// Rules are persisted in their stable string encoding and parsed back on
// read; a row whose encoding no longer parses surfaces
// domain.ErrInvalidRuleEncoding rather than a silently defaulted rule.
type ScheduleStore interface {
	// Create saves a new scheduled chazara. Cycle validation of the
	// delayed-from chain happens in the service layer before Create is
	// called. Returns validation errors from the domain ScheduledChazara
	// if data is invalid.
	Create(ctx context.Context, sc *domain.ScheduledChazara) error

	// GetByID retrieves a scheduled chazara by its unique ID.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledChazara, error)

	// ListByLimud retrieves all scheduled chazaras in the given limud,
	// ordered by creation time.
	ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.ScheduledChazara, error)

	// Delete removes a scheduled chazara and, by cascade, its review points.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new ScheduleStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ScheduleStore
}
