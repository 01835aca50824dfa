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

// PostgresLimudStore implements the store.LimudStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLimudStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLimudStore creates a new PostgreSQL implementation of the LimudStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLimudStore(db store.DBTX, log *slog.Logger) *PostgresLimudStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresLimudStore{
		db:     db,
		logger: log.With(slog.String("component", "limud_store")),
	}
}

// Ensure PostgresLimudStore implements store.LimudStore interface
var _ store.LimudStore = (*PostgresLimudStore)(nil)

// Create implements store.LimudStore.Create
// Returns store.ErrInvalidEntity if the owning user does not exist.
func (s *PostgresLimudStore) Create(ctx context.Context, limud *domain.Limud) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := limud.Validate(); err != nil {
		log.Warn("limud validation failed during create",
			slog.String("error", err.Error()),
			slog.String("limud_id", limud.ID.String()))
		return err
	}

	query := `
		INSERT INTO limudim (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		limud.ID,
		limud.UserID,
		limud.Name,
		limud.CreatedAt,
		limud.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during limud creation",
				slog.String("limud_id", limud.ID.String()),
				slog.String("user_id", limud.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, limud.UserID)
		}

		log.Error("failed to create limud",
			slog.String("error", err.Error()),
			slog.String("limud_id", limud.ID.String()))
		return MapError(err)
	}

	log.Info("limud created successfully",
		slog.String("limud_id", limud.ID.String()),
		slog.String("user_id", limud.UserID.String()))
	return nil
}

// GetByID implements store.LimudStore.GetByID
// Returns store.ErrLimudNotFound if the limud does not exist.
func (s *PostgresLimudStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Limud, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM limudim
		WHERE id = $1
	`

	var limud domain.Limud
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&limud.ID,
		&limud.UserID,
		&limud.Name,
		&limud.CreatedAt,
		&limud.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("limud not found", slog.String("limud_id", id.String()))
			return nil, store.ErrLimudNotFound
		}
		log.Error("failed to get limud by ID",
			slog.String("error", err.Error()),
			slog.String("limud_id", id.String()))
		return nil, MapError(err)
	}

	return &limud, nil
}

// ListByUser implements store.LimudStore.ListByUser
// Returns an empty slice if the user owns no limudim.
func (s *PostgresLimudStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM limudim
		WHERE user_id = $1
		ORDER BY created_at
	`
	return s.queryLimudim(ctx, query, userID)
}

// ListAll implements store.LimudStore.ListAll
func (s *PostgresLimudStore) ListAll(ctx context.Context) ([]*domain.Limud, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM limudim
		ORDER BY created_at
	`
	return s.queryLimudim(ctx, query)
}

func (s *PostgresLimudStore) queryLimudim(ctx context.Context, query string, args ...interface{}) ([]*domain.Limud, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query limudim",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	limudim := []*domain.Limud{}
	for rows.Next() {
		var limud domain.Limud
		err := rows.Scan(
			&limud.ID,
			&limud.UserID,
			&limud.Name,
			&limud.CreatedAt,
			&limud.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan limud row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		limudim = append(limudim, &limud)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return limudim, nil
}

// Delete implements store.LimudStore.Delete
// Sections, schedules, and review points in the limud are removed by
// ON DELETE CASCADE.
// Returns store.ErrLimudNotFound if the limud does not exist.
func (s *PostgresLimudStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM limudim WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete limud",
			slog.String("error", err.Error()),
			slog.String("limud_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "limud"); err != nil {
		log.Debug("limud not found for delete", slog.String("limud_id", id.String()))
		return store.ErrLimudNotFound
	}

	log.Info("limud deleted successfully", slog.String("limud_id", id.String()))
	return nil
}

// WithTx implements store.LimudStore.WithTx
// It returns a new LimudStore that uses the provided transaction.
func (s *PostgresLimudStore) WithTx(tx *sql.Tx) store.LimudStore {
	return &PostgresLimudStore{
		db:     tx,
		logger: s.logger,
	}
}
