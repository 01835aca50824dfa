package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
	"github.com/phrazzld/chazara-api/internal/store"
)

// PostgresSectionStore implements the store.SectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSectionStore creates a new PostgreSQL implementation of the SectionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSectionStore(db store.DBTX, log *slog.Logger) *PostgresSectionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresSectionStore{
		db:     db,
		logger: log.With(slog.String("component", "section_store")),
	}
}

// Ensure PostgresSectionStore implements store.SectionStore interface
var _ store.SectionStore = (*PostgresSectionStore)(nil)

// Create implements store.SectionStore.Create
// Returns store.ErrInvalidEntity if the owning limud does not exist.
func (s *PostgresSectionStore) Create(ctx context.Context, section *domain.Section) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := section.Validate(); err != nil {
		log.Warn("section validation failed during create",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return err
	}

	query := `
		INSERT INTO sections (id, limud_id, name, initial_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		section.ID,
		section.LimudID,
		section.Name,
		section.InitialDate,
		section.CreatedAt,
		section.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during section creation",
				slog.String("section_id", section.ID.String()),
				slog.String("limud_id", section.LimudID.String()))
			return fmt.Errorf("%w: limud with ID %s not found",
				store.ErrInvalidEntity, section.LimudID)
		}

		log.Error("failed to create section",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return MapError(err)
	}

	log.Info("section created successfully",
		slog.String("section_id", section.ID.String()),
		slog.String("limud_id", section.LimudID.String()))
	return nil
}

// GetByID implements store.SectionStore.GetByID
// Returns store.ErrSectionNotFound if the section does not exist.
func (s *PostgresSectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Section, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, limud_id, name, initial_date, created_at, updated_at
		FROM sections
		WHERE id = $1
	`

	var section domain.Section
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&section.ID,
		&section.LimudID,
		&section.Name,
		&section.InitialDate,
		&section.CreatedAt,
		&section.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("section not found", slog.String("section_id", id.String()))
			return nil, store.ErrSectionNotFound
		}
		log.Error("failed to get section by ID",
			slog.String("error", err.Error()),
			slog.String("section_id", id.String()))
		return nil, MapError(err)
	}

	section.InitialDate = section.InitialDate.UTC()
	return &section, nil
}

// ListByLimud implements store.SectionStore.ListByLimud
// Returns an empty slice if the limud has no sections.
func (s *PostgresSectionStore) ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.Section, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, limud_id, name, initial_date, created_at, updated_at
		FROM sections
		WHERE limud_id = $1
		ORDER BY initial_date, created_at
	`

	rows, err := s.db.QueryContext(ctx, query, limudID)
	if err != nil {
		log.Error("failed to query sections by limud",
			slog.String("error", err.Error()),
			slog.String("limud_id", limudID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sections := []*domain.Section{}
	for rows.Next() {
		var section domain.Section
		err := rows.Scan(
			&section.ID,
			&section.LimudID,
			&section.Name,
			&section.InitialDate,
			&section.CreatedAt,
			&section.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan section row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		section.InitialDate = section.InitialDate.UTC()
		sections = append(sections, &section)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return sections, nil
}

// Update implements store.SectionStore.Update
// Returns store.ErrSectionNotFound if the section does not exist.
func (s *PostgresSectionStore) Update(ctx context.Context, section *domain.Section) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := section.Validate(); err != nil {
		log.Warn("section validation failed during update",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return err
	}

	query := `
		UPDATE sections
		SET name = $1, initial_date = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		section.Name,
		section.InitialDate,
		section.UpdatedAt,
		section.ID,
	)

	if err != nil {
		log.Error("failed to update section",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "section"); err != nil {
		log.Debug("section not found for update",
			slog.String("section_id", section.ID.String()))
		return store.ErrSectionNotFound
	}

	log.Info("section updated successfully",
		slog.String("section_id", section.ID.String()))
	return nil
}

// Delete implements store.SectionStore.Delete
// Review points for the section are removed by ON DELETE CASCADE.
// Returns store.ErrSectionNotFound if the section does not exist.
func (s *PostgresSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM sections WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete section",
			slog.String("error", err.Error()),
			slog.String("section_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "section"); err != nil {
		log.Debug("section not found for delete", slog.String("section_id", id.String()))
		return store.ErrSectionNotFound
	}

	log.Info("section deleted successfully", slog.String("section_id", id.String()))
	return nil
}

// WithTx implements store.SectionStore.WithTx
// It returns a new SectionStore that uses the provided transaction.
func (s *PostgresSectionStore) WithTx(tx *sql.Tx) store.SectionStore {
	return &PostgresSectionStore{
		db:     tx,
		logger: s.logger,
	}
}
