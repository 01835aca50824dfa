package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/store"
)

// LimudService provides CRUD operations for limudim and the sections and
// review schedules inside them. Every operation checks that the acting user
// owns the limud being touched.
type LimudService interface {
	// CreateLimud creates a new limud owned by the given user.
	CreateLimud(ctx context.Context, userID uuid.UUID, name string) (*domain.Limud, error)

	// ListLimudim retrieves all limudim owned by the given user.
	ListLimudim(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error)

	// GetLimud retrieves one limud, checking ownership.
	// Returns store.ErrLimudNotFound or ErrNotOwned.
	GetLimud(ctx context.Context, userID, limudID uuid.UUID) (*domain.Limud, error)

	// DeleteLimud removes a limud and, by cascade, its sections, schedules,
	// and review points.
	DeleteLimud(ctx context.Context, userID, limudID uuid.UUID) error

	// CreateSection records a newly learned section in the limud.
	CreateSection(ctx context.Context, userID, limudID uuid.UUID, name string, initialDate time.Time) (*domain.Section, error)

	// ListSections retrieves the limud's sections ordered by initial date.
	ListSections(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.Section, error)

	// UpdateSection renames a section and/or moves its initial learning
	// date. An empty name or zero date leaves that field unchanged. Derived
	// review dates shift automatically on the next read.
	UpdateSection(ctx context.Context, userID, sectionID uuid.UUID, name string, initialDate time.Time) (*domain.Section, error)

	// DeleteSection removes a section and, by cascade, its review points.
	DeleteSection(ctx context.Context, userID, sectionID uuid.UUID) error

	// CreateSchedule adds a review schedule to the limud. The rule's anchor
	// chain is validated before the schedule is saved: the anchor must
	// exist, belong to the same limud, and the resulting delayed-from chain
	// must stay acyclic.
	//
	// Returns ErrAnchorNotFound, ErrAnchorNotInLimud, or
	// store.ErrCycleDetected when the chain is invalid.
	CreateSchedule(ctx context.Context, userID, limudID uuid.UUID, name string, rule domain.ScheduleRule, hidden bool) (*domain.ScheduledChazara, error)

	// ListSchedules retrieves the limud's schedules ordered by creation time.
	ListSchedules(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.ScheduledChazara, error)

	// DeleteSchedule removes a schedule and, by cascade, its review points.
	// Schedules anchored on the deleted one keep their rules; their points
	// degrade to unknown status until repointed.
	DeleteSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error
}

// LimudServiceImpl implements the LimudService interface
type LimudServiceImpl struct {
	limudStore    store.LimudStore
	sectionStore  store.SectionStore
	scheduleStore store.ScheduleStore
	db            *sql.DB
	logger        *slog.Logger
}

// NewLimudService creates a new LimudService
func NewLimudService(
	limudStore store.LimudStore,
	sectionStore store.SectionStore,
	scheduleStore store.ScheduleStore,
	db *sql.DB,
	log *slog.Logger,
) LimudService {
	if limudStore == nil {
		panic("limudStore cannot be nil")
	}
	if sectionStore == nil {
		panic("sectionStore cannot be nil")
	}
	if scheduleStore == nil {
		panic("scheduleStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &LimudServiceImpl{
		limudStore:    limudStore,
		sectionStore:  sectionStore,
		scheduleStore: scheduleStore,
		db:            db,
		logger:        log.With("component", "limud_service"),
	}
}

// ownedLimud loads a limud and checks it belongs to the acting user.
func (s *LimudServiceImpl) ownedLimud(ctx context.Context, userID, limudID uuid.UUID) (*domain.Limud, error) {
	limud, err := s.limudStore.GetByID(ctx, limudID)
	if err != nil {
		return nil, err
	}
	if limud.UserID != userID {
		return nil, ErrNotOwned
	}
	return limud, nil
}

// CreateLimud creates a new limud owned by the given user.
func (s *LimudServiceImpl) CreateLimud(ctx context.Context, userID uuid.UUID, name string) (*domain.Limud, error) {
	limud, err := domain.NewLimud(userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create limud: %w", err)
	}

	if err := s.limudStore.Create(ctx, limud); err != nil {
		s.logger.Error("failed to save limud",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to create limud: %w", err)
	}

	s.logger.Info("limud created",
		"limud_id", limud.ID,
		"user_id", userID)
	return limud, nil
}

// ListLimudim retrieves all limudim owned by the given user.
func (s *LimudServiceImpl) ListLimudim(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error) {
	limudim, err := s.limudStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list limudim",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list limudim: %w", err)
	}
	return limudim, nil
}

// GetLimud retrieves one limud, checking ownership.
func (s *LimudServiceImpl) GetLimud(ctx context.Context, userID, limudID uuid.UUID) (*domain.Limud, error) {
	return s.ownedLimud(ctx, userID, limudID)
}

// DeleteLimud removes a limud and everything inside it.
func (s *LimudServiceImpl) DeleteLimud(ctx context.Context, userID, limudID uuid.UUID) error {
	if _, err := s.ownedLimud(ctx, userID, limudID); err != nil {
		return err
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.limudStore.WithTx(tx).Delete(ctx, limudID); err != nil {
			s.logger.Error("failed to delete limud",
				"error", err,
				"limud_id", limudID)
			return fmt.Errorf("failed to delete limud: %w", err)
		}

		s.logger.Info("limud deleted",
			"limud_id", limudID,
			"user_id", userID)
		return nil
	})
}

// CreateSection records a newly learned section in the limud.
func (s *LimudServiceImpl) CreateSection(
	ctx context.Context,
	userID, limudID uuid.UUID,
	name string,
	initialDate time.Time,
) (*domain.Section, error) {
	if _, err := s.ownedLimud(ctx, userID, limudID); err != nil {
		return nil, err
	}

	section, err := domain.NewSection(limudID, name, initialDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	if err := s.sectionStore.Create(ctx, section); err != nil {
		s.logger.Error("failed to save section",
			"error", err,
			"limud_id", limudID)
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	s.logger.Info("section created",
		"section_id", section.ID,
		"limud_id", limudID)
	return section, nil
}

// ListSections retrieves the limud's sections.
func (s *LimudServiceImpl) ListSections(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.Section, error) {
	if _, err := s.ownedLimud(ctx, userID, limudID); err != nil {
		return nil, err
	}

	sections, err := s.sectionStore.ListByLimud(ctx, limudID)
	if err != nil {
		s.logger.Error("failed to list sections",
			"error", err,
			"limud_id", limudID)
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// UpdateSection renames a section and/or moves its initial learning date.
func (s *LimudServiceImpl) UpdateSection(
	ctx context.Context,
	userID, sectionID uuid.UUID,
	name string,
	initialDate time.Time,
) (*domain.Section, error) {
	section, err := s.sectionStore.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedLimud(ctx, userID, section.LimudID); err != nil {
		return nil, err
	}

	if name != "" {
		if err := section.Rename(name); err != nil {
			return nil, fmt.Errorf("failed to update section: %w", err)
		}
	}
	if !initialDate.IsZero() {
		if err := section.ChangeInitialDate(initialDate); err != nil {
			return nil, fmt.Errorf("failed to update section: %w", err)
		}
	}

	if err := s.sectionStore.Update(ctx, section); err != nil {
		s.logger.Error("failed to update section",
			"error", err,
			"section_id", sectionID)
		return nil, fmt.Errorf("failed to update section: %w", err)
	}

	s.logger.Info("section updated",
		"section_id", sectionID)
	return section, nil
}

// DeleteSection removes a section and its review points.
func (s *LimudServiceImpl) DeleteSection(ctx context.Context, userID, sectionID uuid.UUID) error {
	section, err := s.sectionStore.GetByID(ctx, sectionID)
	if err != nil {
		return err
	}
	if _, err := s.ownedLimud(ctx, userID, section.LimudID); err != nil {
		return err
	}

	if err := s.sectionStore.Delete(ctx, sectionID); err != nil {
		s.logger.Error("failed to delete section",
			"error", err,
			"section_id", sectionID)
		return fmt.Errorf("failed to delete section: %w", err)
	}

	s.logger.Info("section deleted",
		"section_id", sectionID)
	return nil
}

// CreateSchedule adds a review schedule to the limud after validating its
// anchor chain.
func (s *LimudServiceImpl) CreateSchedule(
	ctx context.Context,
	userID, limudID uuid.UUID,
	name string,
	rule domain.ScheduleRule,
	hidden bool,
) (*domain.ScheduledChazara, error) {
	if _, err := s.ownedLimud(ctx, userID, limudID); err != nil {
		return nil, err
	}

	sc, err := domain.NewScheduledChazara(limudID, name, rule, hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	// Validate the chain and insert inside one transaction so a concurrent
	// write cannot slip a cycle in between check and create.
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txSchedules := s.scheduleStore.WithTx(tx)

		if err := s.validateAnchorChain(ctx, txSchedules, limudID, rule); err != nil {
			return err
		}
		return txSchedules.Create(ctx, sc)
	})
	if err != nil {
		if errors.Is(err, ErrAnchorNotFound) ||
			errors.Is(err, ErrAnchorNotInLimud) ||
			errors.Is(err, store.ErrCycleDetected) {
			s.logger.Debug("rejected schedule with invalid anchor chain",
				"error", err,
				"limud_id", limudID)
			return nil, err
		}
		s.logger.Error("failed to save schedule",
			"error", err,
			"limud_id", limudID)
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.logger.Info("schedule created",
		"schedule_id", sc.ID,
		"limud_id", limudID,
		"rule", rule.Encode())
	return sc, nil
}

// validateAnchorChain walks the delayed-from chain starting at the rule's
// anchor. The new schedule has a fresh ID, so it cannot itself close a loop;
// the visited set guards against cycles already present in stored data.
func (s *LimudServiceImpl) validateAnchorChain(
	ctx context.Context,
	schedules store.ScheduleStore,
	limudID uuid.UUID,
	rule domain.ScheduleRule,
) error {
	visited := map[uuid.UUID]bool{}

	current := rule.AnchorScheduleID()
	for current != nil {
		if visited[*current] {
			return fmt.Errorf("%w: chain revisits schedule %s", store.ErrCycleDetected, *current)
		}
		visited[*current] = true

		anchor, err := schedules.GetByID(ctx, *current)
		if err != nil {
			if errors.Is(err, store.ErrScheduleNotFound) {
				return fmt.Errorf("%w: %s", ErrAnchorNotFound, *current)
			}
			return fmt.Errorf("failed to resolve anchor chain: %w", err)
		}
		if anchor.LimudID != limudID {
			return fmt.Errorf("%w: %s", ErrAnchorNotInLimud, *current)
		}

		current = anchor.DelayedFromID
	}

	return nil
}

// ListSchedules retrieves the limud's schedules.
func (s *LimudServiceImpl) ListSchedules(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.ScheduledChazara, error) {
	if _, err := s.ownedLimud(ctx, userID, limudID); err != nil {
		return nil, err
	}

	schedules, err := s.scheduleStore.ListByLimud(ctx, limudID)
	if err != nil {
		s.logger.Error("failed to list schedules",
			"error", err,
			"limud_id", limudID)
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule and its review points.
func (s *LimudServiceImpl) DeleteSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	sc, err := s.scheduleStore.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if _, err := s.ownedLimud(ctx, userID, sc.LimudID); err != nil {
		return err
	}

	if err := s.scheduleStore.Delete(ctx, scheduleID); err != nil {
		s.logger.Error("failed to delete schedule",
			"error", err,
			"schedule_id", scheduleID)
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	s.logger.Info("schedule deleted",
		"schedule_id", scheduleID)
	return nil
}
