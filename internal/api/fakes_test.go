package api

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/phrazzld/chazara-api/internal/store"
)

// memLimudService is an in-memory LimudService for handler tests. It mirrors
// the real service's ownership and chain checks closely enough to exercise
// every handler status-code path.
type memLimudService struct {
	limudim   map[uuid.UUID]*domain.Limud
	sections  map[uuid.UUID]*domain.Section
	schedules map[uuid.UUID]*domain.ScheduledChazara
}

var _ service.LimudService = (*memLimudService)(nil)

func newMemLimudService() *memLimudService {
	return &memLimudService{
		limudim:   map[uuid.UUID]*domain.Limud{},
		sections:  map[uuid.UUID]*domain.Section{},
		schedules: map[uuid.UUID]*domain.ScheduledChazara{},
	}
}

func (m *memLimudService) owned(userID, limudID uuid.UUID) (*domain.Limud, error) {
	limud, ok := m.limudim[limudID]
	if !ok {
		return nil, store.ErrLimudNotFound
	}
	if limud.UserID != userID {
		return nil, service.ErrNotOwned
	}
	return limud, nil
}

func (m *memLimudService) CreateLimud(ctx context.Context, userID uuid.UUID, name string) (*domain.Limud, error) {
	limud, err := domain.NewLimud(userID, name)
	if err != nil {
		return nil, err
	}
	m.limudim[limud.ID] = limud
	return limud, nil
}

func (m *memLimudService) ListLimudim(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error) {
	var out []*domain.Limud
	for _, l := range m.limudim {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLimudService) GetLimud(ctx context.Context, userID, limudID uuid.UUID) (*domain.Limud, error) {
	return m.owned(userID, limudID)
}

func (m *memLimudService) DeleteLimud(ctx context.Context, userID, limudID uuid.UUID) error {
	if _, err := m.owned(userID, limudID); err != nil {
		return err
	}
	delete(m.limudim, limudID)
	return nil
}

func (m *memLimudService) CreateSection(ctx context.Context, userID, limudID uuid.UUID, name string, initialDate time.Time) (*domain.Section, error) {
	if _, err := m.owned(userID, limudID); err != nil {
		return nil, err
	}
	section, err := domain.NewSection(limudID, name, initialDate)
	if err != nil {
		return nil, err
	}
	m.sections[section.ID] = section
	return section, nil
}

func (m *memLimudService) ListSections(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.Section, error) {
	if _, err := m.owned(userID, limudID); err != nil {
		return nil, err
	}
	var out []*domain.Section
	for _, s := range m.sections {
		if s.LimudID == limudID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLimudService) UpdateSection(ctx context.Context, userID, sectionID uuid.UUID, name string, initialDate time.Time) (*domain.Section, error) {
	section, ok := m.sections[sectionID]
	if !ok {
		return nil, store.ErrSectionNotFound
	}
	if _, err := m.owned(userID, section.LimudID); err != nil {
		return nil, err
	}
	if name != "" {
		if err := section.Rename(name); err != nil {
			return nil, err
		}
	}
	if !initialDate.IsZero() {
		if err := section.ChangeInitialDate(initialDate); err != nil {
			return nil, err
		}
	}
	return section, nil
}

func (m *memLimudService) DeleteSection(ctx context.Context, userID, sectionID uuid.UUID) error {
	section, ok := m.sections[sectionID]
	if !ok {
		return store.ErrSectionNotFound
	}
	if _, err := m.owned(userID, section.LimudID); err != nil {
		return err
	}
	delete(m.sections, sectionID)
	return nil
}

func (m *memLimudService) CreateSchedule(ctx context.Context, userID, limudID uuid.UUID, name string, rule domain.ScheduleRule, hidden bool) (*domain.ScheduledChazara, error) {
	if _, err := m.owned(userID, limudID); err != nil {
		return nil, err
	}
	if anchorID := rule.AnchorScheduleID(); anchorID != nil {
		anchor, ok := m.schedules[*anchorID]
		if !ok {
			return nil, service.ErrAnchorNotFound
		}
		if anchor.LimudID != limudID {
			return nil, service.ErrAnchorNotInLimud
		}
	}
	sc, err := domain.NewScheduledChazara(limudID, name, rule, hidden)
	if err != nil {
		return nil, err
	}
	m.schedules[sc.ID] = sc
	return sc, nil
}

func (m *memLimudService) ListSchedules(ctx context.Context, userID, limudID uuid.UUID) ([]*domain.ScheduledChazara, error) {
	if _, err := m.owned(userID, limudID); err != nil {
		return nil, err
	}
	var out []*domain.ScheduledChazara
	for _, sc := range m.schedules {
		if sc.LimudID == limudID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *memLimudService) DeleteSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	sc, ok := m.schedules[scheduleID]
	if !ok {
		return store.ErrScheduleNotFound
	}
	if _, err := m.owned(userID, sc.LimudID); err != nil {
		return err
	}
	delete(m.schedules, scheduleID)
	return nil
}

// memSectionStore adapts memLimudService's sections to the store interface
// for the point handler's ownership lookups.
type memSectionStore struct {
	svc *memLimudService
}

var _ store.SectionStore = (*memSectionStore)(nil)

func (m *memSectionStore) Create(ctx context.Context, section *domain.Section) error {
	m.svc.sections[section.ID] = section
	return nil
}

func (m *memSectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Section, error) {
	section, ok := m.svc.sections[id]
	if !ok {
		return nil, store.ErrSectionNotFound
	}
	return section, nil
}

func (m *memSectionStore) ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.Section, error) {
	var out []*domain.Section
	for _, s := range m.svc.sections {
		if s.LimudID == limudID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSectionStore) Update(ctx context.Context, section *domain.Section) error {
	m.svc.sections[section.ID] = section
	return nil
}

func (m *memSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.svc.sections, id)
	return nil
}

func (m *memSectionStore) WithTx(tx *sql.Tx) store.SectionStore { return m }

// stubReviewService returns canned snapshots and records transition calls.
type stubReviewService struct {
	snapshot  *review.PointSnapshot
	dashboard []*review.DashboardEntry
	err       error

	completedOn time.Time
	lastCall    string
}

var _ review.ReviewService = (*stubReviewService)(nil)

func (s *stubReviewService) GetSnapshot(ctx context.Context, sectionID, scheduleID uuid.UUID) (*review.PointSnapshot, error) {
	s.lastCall = "snapshot"
	return s.snapshot, s.err
}

func (s *stubReviewService) GetDashboard(ctx context.Context, limudID uuid.UUID) ([]*review.DashboardEntry, error) {
	s.lastCall = "dashboard"
	return s.dashboard, s.err
}

func (s *stubReviewService) MarkCompleted(ctx context.Context, sectionID, scheduleID uuid.UUID, completedOn time.Time) (*review.PointSnapshot, error) {
	s.lastCall = "complete"
	s.completedOn = completedOn
	return s.snapshot, s.err
}

func (s *stubReviewService) MarkExempt(ctx context.Context, sectionID, scheduleID uuid.UUID) (*review.PointSnapshot, error) {
	s.lastCall = "exempt"
	return s.snapshot, s.err
}

func (s *stubReviewService) Unmark(ctx context.Context, sectionID, scheduleID uuid.UUID) (*review.PointSnapshot, error) {
	s.lastCall = "unmark"
	return s.snapshot, s.err
}

func (s *stubReviewService) RefreshLimud(ctx context.Context, limudID uuid.UUID) (*review.RefreshSummary, error) {
	s.lastCall = "refreshLimud"
	return &review.RefreshSummary{}, s.err
}

func (s *stubReviewService) RefreshAll(ctx context.Context) (*review.RefreshSummary, error) {
	s.lastCall = "refreshAll"
	return &review.RefreshSummary{}, s.err
}
