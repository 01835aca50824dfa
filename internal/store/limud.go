package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// LimudStore defines the interface for limud data persistence.
type LimudStore interface {
	// Create saves a new limud.
	// Returns validation errors from the domain Limud if data is invalid.
	Create(ctx context.Context, limud *domain.Limud) error

	// GetByID retrieves a limud by its unique ID.
	// Returns ErrLimudNotFound if the limud does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Limud, error)

	// ListByUser retrieves all limudim owned by the given user, ordered by
	// creation time.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error)

	// ListAll retrieves every limud in the store. Used by the background
	// dashboard refresh job.
	ListAll(ctx context.Context) ([]*domain.Limud, error)

	// Delete removes a limud and, by cascade, its sections, schedules, and
	// review points. Returns ErrLimudNotFound if the limud does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new LimudStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) LimudStore
}
