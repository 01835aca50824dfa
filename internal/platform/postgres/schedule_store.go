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

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend.
//
// Rules are persisted in their stable string encoding (the rule column) and
// parsed back into domain.ScheduleRule values on read. The delayed_from_id
// column mirrors the rule's anchor reference so chain membership can be
// queried in SQL without decoding rules.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the ScheduleStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleStore(db store.DBTX, log *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: log.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore interface
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// Create implements store.ScheduleStore.Create
// Returns store.ErrInvalidEntity if the owning limud or the anchor schedule
// does not exist.
func (s *PostgresScheduleStore) Create(ctx context.Context, sc *domain.ScheduledChazara) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sc.Validate(); err != nil {
		log.Warn("schedule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("schedule_id", sc.ID.String()))
		return err
	}

	query := `
		INSERT INTO scheduled_chazaras (id, limud_id, name, hidden, delayed_from_id, rule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		sc.ID,
		sc.LimudID,
		sc.Name,
		sc.Hidden,
		sc.DelayedFromID,
		sc.Rule.Encode(),
		sc.CreatedAt,
		sc.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during schedule creation",
				slog.String("schedule_id", sc.ID.String()),
				slog.String("limud_id", sc.LimudID.String()))
			return fmt.Errorf("%w: referenced limud or anchor schedule not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", sc.ID.String()))
		return MapError(err)
	}

	log.Info("schedule created successfully",
		slog.String("schedule_id", sc.ID.String()),
		slog.String("limud_id", sc.LimudID.String()),
		slog.String("rule", sc.Rule.Encode()))
	return nil
}

// GetByID implements store.ScheduleStore.GetByID
// Returns store.ErrScheduleNotFound if the schedule does not exist.
// Returns domain.ErrInvalidRuleEncoding (wrapped) if the stored rule no
// longer parses.
func (s *PostgresScheduleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledChazara, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, limud_id, name, hidden, delayed_from_id, rule, created_at, updated_at
		FROM scheduled_chazaras
		WHERE id = $1
	`

	sc, err := scanSchedule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule not found", slog.String("schedule_id", id.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule by ID",
			slog.String("error", err.Error()),
			slog.String("schedule_id", id.String()))
		return nil, MapError(err)
	}

	return sc, nil
}

// ListByLimud implements store.ScheduleStore.ListByLimud
// Returns an empty slice if the limud has no schedules.
func (s *PostgresScheduleStore) ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.ScheduledChazara, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, limud_id, name, hidden, delayed_from_id, rule, created_at, updated_at
		FROM scheduled_chazaras
		WHERE limud_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, limudID)
	if err != nil {
		log.Error("failed to query schedules by limud",
			slog.String("error", err.Error()),
			slog.String("limud_id", limudID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	schedules := []*domain.ScheduledChazara{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			log.Error("failed to scan schedule row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		schedules = append(schedules, sc)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return schedules, nil
}

// Delete implements store.ScheduleStore.Delete
// Review points for the schedule are removed by ON DELETE CASCADE. Schedules
// delayed from the deleted one keep their rule; their points degrade to
// unknown until the rule is repointed.
// Returns store.ErrScheduleNotFound if the schedule does not exist.
func (s *PostgresScheduleStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM scheduled_chazaras WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "schedule"); err != nil {
		log.Debug("schedule not found for delete", slog.String("schedule_id", id.String()))
		return store.ErrScheduleNotFound
	}

	log.Info("schedule deleted successfully", slog.String("schedule_id", id.String()))
	return nil
}

// WithTx implements store.ScheduleStore.WithTx
// It returns a new ScheduleStore that uses the provided transaction.
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*domain.ScheduledChazara, error) {
	var sc domain.ScheduledChazara
	var delayedFrom uuid.NullUUID
	var ruleEncoding string

	err := row.Scan(
		&sc.ID,
		&sc.LimudID,
		&sc.Name,
		&sc.Hidden,
		&delayedFrom,
		&ruleEncoding,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if delayedFrom.Valid {
		id := delayedFrom.UUID
		sc.DelayedFromID = &id
	}

	rule, err := domain.ParseRule(ruleEncoding)
	if err != nil {
		return nil, fmt.Errorf("schedule %s has unparseable rule %q: %w", sc.ID, ruleEncoding, err)
	}
	sc.Rule = rule

	return &sc, nil
}
