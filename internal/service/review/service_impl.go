package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/domain/schedule"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
	"github.com/phrazzld/chazara-api/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	limudStore    store.LimudStore
	sectionStore  store.SectionStore
	scheduleStore store.ScheduleStore
	pointStore    store.PointStore
	cache         *snapshotCache
	timeFunc      func() time.Time // Injectable for testing
	logger        *slog.Logger
}

// NewReviewService creates a new ReviewService implementation. cacheTTL
// bounds how long a derived snapshot may be served without recomputation; a
// non-positive TTL disables the debounce.
func NewReviewService(
	limudStore store.LimudStore,
	sectionStore store.SectionStore,
	scheduleStore store.ScheduleStore,
	pointStore store.PointStore,
	cacheTTL time.Duration,
	log *slog.Logger,
) ReviewService {
	if limudStore == nil {
		panic("limudStore cannot be nil")
	}
	if sectionStore == nil {
		panic("sectionStore cannot be nil")
	}
	if scheduleStore == nil {
		panic("scheduleStore cannot be nil")
	}
	if pointStore == nil {
		panic("pointStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &reviewServiceImpl{
		limudStore:    limudStore,
		sectionStore:  sectionStore,
		scheduleStore: scheduleStore,
		pointStore:    pointStore,
		cache:         newSnapshotCache(cacheTTL),
		timeFunc:      time.Now,
		logger:        log.With(slog.String("component", "review_service")),
	}
}

// GetSnapshot implements ReviewService.GetSnapshot.
func (s *reviewServiceImpl) GetSnapshot(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
) (*PointSnapshot, error) {
	now := s.timeFunc().UTC()
	key := pointKey{sectionID: sectionID, scheduleID: scheduleID}

	if snap, ok := s.cache.get(key, now); ok {
		return snap, nil
	}

	section, sc, err := s.loadCoordinate(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, err
	}

	point, err := s.pointStore.GetOrCreate(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize review point: %w", err)
	}

	snap := s.derive(ctx, now, section, sc, point)
	s.persistStatusBestEffort(ctx, point, snap.Status)
	s.cache.put(key, snap, now)
	return snap, nil
}

// GetDashboard implements ReviewService.GetDashboard.
func (s *reviewServiceImpl) GetDashboard(
	ctx context.Context,
	limudID uuid.UUID,
) ([]*DashboardEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	if _, err := s.limudStore.GetByID(ctx, limudID); err != nil {
		if errors.Is(err, store.ErrLimudNotFound) {
			return nil, ErrLimudNotFound
		}
		return nil, fmt.Errorf("failed to get limud: %w", err)
	}

	sections, err := s.sectionStore.ListByLimud(ctx, limudID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	schedules, err := s.scheduleStore.ListByLimud(ctx, limudID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	entries := []*DashboardEntry{}
	for _, section := range sections {
		for _, sc := range schedules {
			if sc.Hidden {
				continue
			}

			entry := &DashboardEntry{
				SectionID:    section.ID,
				SectionName:  section.Name,
				ScheduleID:   sc.ID,
				ScheduleName: sc.Name,
				Status:       domain.ChazaraStatusUnknown,
			}

			point, err := s.pointStore.GetOrCreate(ctx, section.ID, sc.ID)
			if err != nil {
				// Reads degrade: a point we cannot load shows as unknown.
				log.Warn("failed to materialize point for dashboard",
					slog.String("error", err.Error()),
					slog.String("section_id", section.ID.String()),
					slog.String("schedule_id", sc.ID.String()))
				entries = append(entries, entry)
				continue
			}

			snap := s.derive(ctx, now, section, sc, point)
			s.persistStatusBestEffort(ctx, point, snap.Status)

			entry.Status = snap.Status
			entry.ActiveDate = snap.ActiveDate
			entry.DueDate = snap.DueDate
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// MarkCompleted implements ReviewService.MarkCompleted.
func (s *reviewServiceImpl) MarkCompleted(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
	completedOn time.Time,
) (*PointSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if completedOn.IsZero() {
		completedOn = s.timeFunc()
	}
	completedOn = completedOn.UTC()

	point, err := s.loadPoint(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, err
	}

	// Mutate a clone so a failed save leaves the loaded point untouched.
	updated := point.Clone()
	updated.Status = domain.ChazaraStatusCompleted
	updated.CompletionDate = &completedOn
	updated.UpdatedAt = s.timeFunc().UTC()

	if err := s.pointStore.Update(ctx, updated); err != nil {
		log.Error("failed to persist completion",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()))
		return nil, fmt.Errorf("failed to mark point completed: %w", err)
	}

	s.cache.invalidate(pointKey{sectionID: sectionID, scheduleID: scheduleID})
	log.Info("review point completed",
		slog.String("point_id", updated.ID.String()),
		slog.Time("completed_on", completedOn))

	return &PointSnapshot{Point: updated, Status: updated.Status}, nil
}

// MarkExempt implements ReviewService.MarkExempt.
func (s *reviewServiceImpl) MarkExempt(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
) (*PointSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	point, err := s.loadPoint(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, err
	}

	updated := point.Clone()
	updated.Status = domain.ChazaraStatusExempt
	updated.CompletionDate = nil
	updated.UpdatedAt = s.timeFunc().UTC()

	if err := s.pointStore.Update(ctx, updated); err != nil {
		log.Error("failed to persist exemption",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()))
		return nil, fmt.Errorf("failed to mark point exempt: %w", err)
	}

	s.cache.invalidate(pointKey{sectionID: sectionID, scheduleID: scheduleID})
	log.Info("review point exempted",
		slog.String("point_id", updated.ID.String()))

	return &PointSnapshot{Point: updated, Status: updated.Status}, nil
}

// Unmark implements ReviewService.Unmark.
func (s *reviewServiceImpl) Unmark(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
) (*PointSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	section, sc, err := s.loadCoordinate(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, err
	}

	point, err := s.pointStore.GetOrCreate(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize review point: %w", err)
	}

	if !point.Status.IsTerminal() {
		return s.derive(ctx, now, section, sc, point), nil
	}

	// Clear the terminal state, then re-derive the natural status.
	updated := point.Clone()
	updated.CompletionDate = nil
	updated.Status = domain.ChazaraStatusUnknown

	snap := s.derive(ctx, now, section, sc, updated)
	updated.Status = snap.Status
	updated.UpdatedAt = s.timeFunc().UTC()

	if err := s.pointStore.Update(ctx, updated); err != nil {
		log.Error("failed to persist unmark",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()))
		return nil, fmt.Errorf("failed to unmark point: %w", err)
	}

	s.cache.invalidate(pointKey{sectionID: sectionID, scheduleID: scheduleID})
	log.Info("review point unmarked",
		slog.String("point_id", updated.ID.String()),
		slog.String("status", string(updated.Status)))

	snap.Point = updated
	return snap, nil
}

// RefreshLimud implements ReviewService.RefreshLimud.
func (s *reviewServiceImpl) RefreshLimud(
	ctx context.Context,
	limudID uuid.UUID,
) (*RefreshSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	if _, err := s.limudStore.GetByID(ctx, limudID); err != nil {
		if errors.Is(err, store.ErrLimudNotFound) {
			return nil, ErrLimudNotFound
		}
		return nil, fmt.Errorf("failed to get limud: %w", err)
	}

	sections, err := s.sectionStore.ListByLimud(ctx, limudID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	schedules, err := s.scheduleStore.ListByLimud(ctx, limudID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	summary := &RefreshSummary{}
	for _, section := range sections {
		for _, sc := range schedules {
			summary.Refreshed++

			point, err := s.pointStore.GetOrCreate(ctx, section.ID, sc.ID)
			if err != nil {
				summary.Failed++
				log.Warn("refresh skipped point: materialization failed",
					slog.String("error", err.Error()),
					slog.String("section_id", section.ID.String()),
					slog.String("schedule_id", sc.ID.String()))
				continue
			}

			snap := s.derive(ctx, now, section, sc, point)
			if snap.Status == point.Status {
				continue
			}

			updated := point.Clone()
			updated.Status = snap.Status
			updated.UpdatedAt = s.timeFunc().UTC()
			if err := s.pointStore.Update(ctx, updated); err != nil {
				summary.Failed++
				log.Warn("refresh skipped point: update failed",
					slog.String("error", err.Error()),
					slog.String("point_id", point.ID.String()))
				continue
			}

			summary.Changed++
			s.cache.invalidate(pointKey{sectionID: section.ID, scheduleID: sc.ID})
		}
	}

	log.Info("limud refresh finished",
		slog.String("limud_id", limudID.String()),
		slog.Int("refreshed", summary.Refreshed),
		slog.Int("changed", summary.Changed),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// RefreshAll implements ReviewService.RefreshAll.
func (s *reviewServiceImpl) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limudim, err := s.limudStore.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list limudim: %w", err)
	}

	total := &RefreshSummary{}
	for _, limud := range limudim {
		summary, err := s.RefreshLimud(ctx, limud.ID)
		if err != nil {
			log.Warn("refresh skipped limud",
				slog.String("error", err.Error()),
				slog.String("limud_id", limud.ID.String()))
			continue
		}
		total.Refreshed += summary.Refreshed
		total.Changed += summary.Changed
		total.Failed += summary.Failed
	}

	return total, nil
}

// loadCoordinate loads and cross-checks both sides of a point coordinate.
func (s *reviewServiceImpl) loadCoordinate(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
) (*domain.Section, *domain.ScheduledChazara, error) {
	section, err := s.sectionStore.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, store.ErrSectionNotFound) {
			return nil, nil, ErrSectionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get section: %w", err)
	}

	sc, err := s.scheduleStore.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		return nil, nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if sc.LimudID != section.LimudID {
		return nil, nil, ErrScheduleNotInLimud
	}

	return section, sc, nil
}

// loadPoint loads the coordinate and materializes its point.
func (s *reviewServiceImpl) loadPoint(
	ctx context.Context,
	sectionID, scheduleID uuid.UUID,
) (*domain.ReviewPoint, error) {
	if _, _, err := s.loadCoordinate(ctx, sectionID, scheduleID); err != nil {
		return nil, err
	}

	point, err := s.pointStore.GetOrCreate(ctx, sectionID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize review point: %w", err)
	}
	return point, nil
}

// derive runs the pure status derivation for one point, wiring the anchor
// resolver to the stores.
func (s *reviewServiceImpl) derive(
	ctx context.Context,
	now time.Time,
	section *domain.Section,
	sc *domain.ScheduledChazara,
	point *domain.ReviewPoint,
) *PointSnapshot {
	snap := schedule.Derive(now, section, sc, point.Status, s.resolverFor(ctx, section))
	return &PointSnapshot{
		Point:      point,
		Status:     snap.Status,
		ActiveDate: snap.Active,
		DueDate:    snap.Due,
	}
}

// resolverFor builds the anchor resolver for one section. Resolution is
// single-step: it reads the anchor point's persisted completion date and
// never recurses into the anchor's own derivation, so rule chains cost one
// lookup per link and a cycle in stored data cannot loop.
func (s *reviewServiceImpl) resolverFor(ctx context.Context, section *domain.Section) schedule.AnchorResolver {
	log := logger.FromContextOrDefault(ctx, s.logger)

	return func(anchorScheduleID uuid.UUID) schedule.AnchorResolution {
		if _, err := s.scheduleStore.GetByID(ctx, anchorScheduleID); err != nil {
			// Dangling anchor reference or read failure: degrade to unknown.
			if !errors.Is(err, store.ErrScheduleNotFound) {
				log.Warn("anchor schedule lookup failed",
					slog.String("error", err.Error()),
					slog.String("anchor_schedule_id", anchorScheduleID.String()))
			}
			return schedule.AnchorResolution{State: schedule.AnchorIndeterminate}
		}

		point, err := s.pointStore.Get(ctx, section.ID, anchorScheduleID)
		if err != nil {
			if errors.Is(err, store.ErrPointNotFound) {
				// The anchor point exists conceptually but has never been
				// touched, so it cannot have been completed.
				return schedule.AnchorResolution{State: schedule.AnchorPending}
			}
			log.Warn("anchor point lookup failed",
				slog.String("error", err.Error()),
				slog.String("section_id", section.ID.String()),
				slog.String("anchor_schedule_id", anchorScheduleID.String()))
			return schedule.AnchorResolution{State: schedule.AnchorIndeterminate}
		}

		if point.Status == domain.ChazaraStatusCompleted && point.CompletionDate != nil {
			return schedule.AnchorResolution{
				State:       schedule.AnchorCompleted,
				CompletedOn: *point.CompletionDate,
			}
		}
		return schedule.AnchorResolution{State: schedule.AnchorPending}
	}
}

// persistStatusBestEffort writes a freshly derived status back to the store
// as a display cache. Failures are logged and swallowed: the authoritative
// status is always recomputable, and a read must not fail because its cache
// write did.
func (s *reviewServiceImpl) persistStatusBestEffort(
	ctx context.Context,
	point *domain.ReviewPoint,
	status domain.ChazaraStatus,
) {
	if point.Status == status || status.IsTerminal() {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	updated := point.Clone()
	updated.Status = status
	updated.UpdatedAt = s.timeFunc().UTC()

	if err := s.pointStore.Update(ctx, updated); err != nil {
		log.Warn("failed to persist derived status",
			slog.String("error", err.Error()),
			slog.String("point_id", point.ID.String()),
			slog.String("status", string(status)))
		return
	}

	point.Status = updated.Status
	point.UpdatedAt = updated.UpdatedAt
}
