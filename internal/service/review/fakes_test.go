package review

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/store"
)

// In-memory store fakes for service tests. Error fields inject failures.

type fakeLimudStore struct {
	limudim map[uuid.UUID]*domain.Limud
	listErr error
}

func newFakeLimudStore() *fakeLimudStore {
	return &fakeLimudStore{limudim: make(map[uuid.UUID]*domain.Limud)}
}

func (f *fakeLimudStore) Create(ctx context.Context, limud *domain.Limud) error {
	f.limudim[limud.ID] = limud
	return nil
}

func (f *fakeLimudStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Limud, error) {
	limud, ok := f.limudim[id]
	if !ok {
		return nil, store.ErrLimudNotFound
	}
	return limud, nil
}

func (f *fakeLimudStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Limud, error) {
	result := []*domain.Limud{}
	for _, l := range f.limudim {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (f *fakeLimudStore) ListAll(ctx context.Context) ([]*domain.Limud, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []*domain.Limud{}
	for _, l := range f.limudim {
		result = append(result, l)
	}
	return result, nil
}

func (f *fakeLimudStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.limudim[id]; !ok {
		return store.ErrLimudNotFound
	}
	delete(f.limudim, id)
	return nil
}

func (f *fakeLimudStore) WithTx(tx *sql.Tx) store.LimudStore { return f }

type fakeSectionStore struct {
	sections map[uuid.UUID]*domain.Section
	getErr   error
}

func newFakeSectionStore() *fakeSectionStore {
	return &fakeSectionStore{sections: make(map[uuid.UUID]*domain.Section)}
}

func (f *fakeSectionStore) Create(ctx context.Context, section *domain.Section) error {
	f.sections[section.ID] = section
	return nil
}

func (f *fakeSectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Section, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	section, ok := f.sections[id]
	if !ok {
		return nil, store.ErrSectionNotFound
	}
	return section, nil
}

func (f *fakeSectionStore) ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.Section, error) {
	result := []*domain.Section{}
	for _, s := range f.sections {
		if s.LimudID == limudID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSectionStore) Update(ctx context.Context, section *domain.Section) error {
	if _, ok := f.sections[section.ID]; !ok {
		return store.ErrSectionNotFound
	}
	f.sections[section.ID] = section
	return nil
}

func (f *fakeSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sections[id]; !ok {
		return store.ErrSectionNotFound
	}
	delete(f.sections, id)
	return nil
}

func (f *fakeSectionStore) WithTx(tx *sql.Tx) store.SectionStore { return f }

type fakeScheduleStore struct {
	schedules map[uuid.UUID]*domain.ScheduledChazara
	getErr    error
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[uuid.UUID]*domain.ScheduledChazara)}
}

func (f *fakeScheduleStore) Create(ctx context.Context, sc *domain.ScheduledChazara) error {
	f.schedules[sc.ID] = sc
	return nil
}

func (f *fakeScheduleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledChazara, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sc, ok := f.schedules[id]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	return sc, nil
}

func (f *fakeScheduleStore) ListByLimud(ctx context.Context, limudID uuid.UUID) ([]*domain.ScheduledChazara, error) {
	result := []*domain.ScheduledChazara{}
	for _, sc := range f.schedules {
		if sc.LimudID == limudID {
			result = append(result, sc)
		}
	}
	return result, nil
}

func (f *fakeScheduleStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.schedules[id]; !ok {
		return store.ErrScheduleNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore { return f }

type fakePointStore struct {
	points           map[pointKey]*domain.ReviewPoint
	getOrCreateCalls int
	updateErr        error
	failUpdateFor    uuid.UUID // point ID whose updates fail, if set
}

func newFakePointStore() *fakePointStore {
	return &fakePointStore{points: make(map[pointKey]*domain.ReviewPoint)}
}

func (f *fakePointStore) key(sectionID, scheduleID uuid.UUID) pointKey {
	return pointKey{sectionID: sectionID, scheduleID: scheduleID}
}

func (f *fakePointStore) Get(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error) {
	point, ok := f.points[f.key(sectionID, scheduleID)]
	if !ok {
		return nil, store.ErrPointNotFound
	}
	return point.Clone(), nil
}

func (f *fakePointStore) GetOrCreate(ctx context.Context, sectionID, scheduleID uuid.UUID) (*domain.ReviewPoint, error) {
	f.getOrCreateCalls++
	if point, ok := f.points[f.key(sectionID, scheduleID)]; ok {
		return point.Clone(), nil
	}
	point, err := domain.NewReviewPoint(sectionID, scheduleID)
	if err != nil {
		return nil, err
	}
	f.points[f.key(sectionID, scheduleID)] = point
	return point.Clone(), nil
}

func (f *fakePointStore) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]*domain.ReviewPoint, error) {
	result := []*domain.ReviewPoint{}
	for _, p := range f.points {
		if p.SectionID == sectionID {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

func (f *fakePointStore) Update(ctx context.Context, point *domain.ReviewPoint) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.failUpdateFor != uuid.Nil && point.ID == f.failUpdateFor {
		return errors.New("injected update failure")
	}
	key := f.key(point.SectionID, point.ScheduleID)
	if _, ok := f.points[key]; !ok {
		return store.ErrPointNotFound
	}
	f.points[key] = point.Clone()
	return nil
}

func (f *fakePointStore) WithTx(tx *sql.Tx) store.PointStore { return f }

// stored returns the persisted point for assertions.
func (f *fakePointStore) stored(sectionID, scheduleID uuid.UUID) *domain.ReviewPoint {
	return f.points[f.key(sectionID, scheduleID)]
}
