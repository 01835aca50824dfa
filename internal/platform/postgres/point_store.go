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

// PostgresPointStore implements the store.PointStore interface
// using a PostgreSQL database as the storage backend.
//
// The review_points table carries a unique constraint on
// (section_id, schedule_id); GetOrCreate leans on it so concurrent first
// accesses of the same coordinate converge on a single row.
type PostgresPointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPointStore creates a new PostgreSQL implementation of the PointStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPointStore(db store.DBTX, log *slog.Logger) *PostgresPointStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresPointStore{
		db:     db,
		logger: log.With(slog.String("component", "point_store")),
	}
}

// Ensure PostgresPointStore implements store.PointStore interface
var _ store.PointStore = (*PostgresPointStore)(nil)

// Get implements store.PointStore.Get
// Returns store.ErrPointNotFound if no point has been materialized for the
// coordinate yet.
func (s *PostgresPointStore) Get(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, section_id, schedule_id, status, completion_date, created_at, updated_at
		FROM review_points
		WHERE section_id = $1 AND schedule_id = $2
	`

	point, err := scanPoint(s.db.QueryRowContext(ctx, query, sectionID, scheduleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review point not found",
				slog.String("section_id", sectionID.String()),
				slog.String("schedule_id", scheduleID.String()))
			return nil, store.ErrPointNotFound
		}
		log.Error("failed to get review point",
			slog.String("error", err.Error()),
			slog.String("section_id", sectionID.String()),
			slog.String("schedule_id", scheduleID.String()))
		return nil, MapError(err)
	}

	return point, nil
}

// GetOrCreate implements store.PointStore.GetOrCreate
// It inserts a fresh unknown-status point for the coordinate if none exists,
// then reads whichever row won. The ON CONFLICT DO NOTHING keeps concurrent
// first accesses race-safe.
func (s *PostgresPointStore) GetOrCreate(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	point, err := domain.NewReviewPoint(sectionID, scheduleID)
	if err != nil {
		log.Warn("review point validation failed during get-or-create",
			slog.String("error", err.Error()),
			slog.String("section_id", sectionID.String()),
			slog.String("schedule_id", scheduleID.String()))
		return nil, err
	}

	insert := `
		INSERT INTO review_points (id, section_id, schedule_id, status, completion_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
		ON CONFLICT (section_id, schedule_id) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		insert,
		point.ID,
		point.SectionID,
		point.ScheduleID,
		point.Status,
		point.CreatedAt,
		point.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during review point creation",
				slog.String("section_id", sectionID.String()),
				slog.String("schedule_id", scheduleID.String()))
			return nil, fmt.Errorf("%w: referenced section or schedule not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create review point",
			slog.String("error", err.Error()),
			slog.String("section_id", sectionID.String()),
			slog.String("schedule_id", scheduleID.String()))
		return nil, MapError(err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 1 {
		log.Debug("review point materialized",
			slog.String("point_id", point.ID.String()),
			slog.String("section_id", sectionID.String()),
			slog.String("schedule_id", scheduleID.String()))
		return point, nil
	}

	// Insert lost the race or the row already existed; read it back.
	return s.Get(ctx, sectionID, scheduleID)
}

// ListBySection implements store.PointStore.ListBySection
// Returns an empty slice if no points have been materialized for the section.
func (s *PostgresPointStore) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, section_id, schedule_id, status, completion_date, created_at, updated_at
		FROM review_points
		WHERE section_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		log.Error("failed to query review points by section",
			slog.String("error", err.Error()),
			slog.String("section_id", sectionID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	points := []*domain.ReviewPoint{}
	for rows.Next() {
		point, err := scanPoint(rows)
		if err != nil {
			log.Error("failed to scan review point row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return points, nil
}

// Update implements store.PointStore.Update
// Returns store.ErrPointNotFound if the point does not exist.
func (s *PostgresPointStore) Update(ctx context.Context, point *domain.ReviewPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		log.Warn("review point validation failed during update",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()))
		return err
	}

	query := `
		UPDATE review_points
		SET status = $1, completion_date = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		point.Status,
		point.CompletionDate,
		point.UpdatedAt,
		point.ID,
	)

	if err != nil {
		log.Error("failed to update review point",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "review point"); err != nil {
		log.Debug("review point not found for update",
			slog.String("point_id", point.ID.String()))
		return store.ErrPointNotFound
	}

	log.Debug("review point updated successfully",
		slog.String("point_id", point.ID.String()),
		slog.String("status", string(point.Status)))
	return nil
}

// WithTx implements store.PointStore.WithTx
// It returns a new PointStore that uses the provided transaction.
func (s *PostgresPointStore) WithTx(tx *sql.Tx) store.PointStore {
	return &PostgresPointStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanPoint(row rowScanner) (*domain.ReviewPoint, error) {
	var point domain.ReviewPoint
	var status string
	var completionDate sql.NullTime

	err := row.Scan(
		&point.ID,
		&point.SectionID,
		&point.ScheduleID,
		&status,
		&completionDate,
		&point.CreatedAt,
		&point.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	point.Status = domain.ChazaraStatus(status)
	if completionDate.Valid {
		d := completionDate.Time.UTC()
		point.CompletionDate = &d
	}

	return &point, nil
}
