package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// SectionStore defines the interface for section data persistence.
type SectionStore interface {
	// Create saves a new section.
	// Returns validation errors from the domain Section if data is invalid.
	Create(ctx context.Context, section *domain.Section) error

	// GetByID retrieves a section by its unique ID.
	// Returns ErrSectionNotFound if the section does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Section, error)

	// ListByLimud retrieves all sections in the given limud, ordered by
	// initial learning date.
	ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.Section, error)

	// Update modifies an existing section (rename, initial-date edit).
	// Returns ErrSectionNotFound if the section does not exist.
	// Returns validation errors from the domain Section if data is invalid.
	Update(ctx context.Context, section *domain.Section) error

	// Delete removes a section and, by cascade, its review points.
	// Returns ErrSectionNotFound if the section does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new SectionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SectionStore
}
