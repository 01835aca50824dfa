package review

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture wires a review service onto in-memory fakes with a fixed clock.
type fixture struct {
	svc       *reviewServiceImpl
	limudim   *fakeLimudStore
	sections  *fakeSectionStore
	schedules *fakeScheduleStore
	points    *fakePointStore
	limud     *domain.Limud
}

func newFixture(t *testing.T, now time.Time, cacheTTL time.Duration) *fixture {
	t.Helper()

	limudim := newFakeLimudStore()
	sections := newFakeSectionStore()
	schedules := newFakeScheduleStore()
	points := newFakePointStore()

	svc := NewReviewService(limudim, sections, schedules, points, cacheTTL, nil).(*reviewServiceImpl)
	svc.timeFunc = func() time.Time { return now }

	limud, err := domain.NewLimud(uuid.New(), "Bava Kamma")
	require.NoError(t, err)
	require.NoError(t, limudim.Create(context.Background(), limud))

	return &fixture{
		svc:       svc,
		limudim:   limudim,
		sections:  sections,
		schedules: schedules,
		points:    points,
		limud:     limud,
	}
}

func (f *fixture) setNow(now time.Time) {
	f.svc.timeFunc = func() time.Time { return now }
}

func (f *fixture) addSection(t *testing.T, name string, initialDate time.Time) *domain.Section {
	t.Helper()
	section, err := domain.NewSection(f.limud.ID, name, initialDate)
	require.NoError(t, err)
	require.NoError(t, f.sections.Create(context.Background(), section))
	return section
}

func (f *fixture) addSchedule(t *testing.T, name string, rule domain.ScheduleRule) *domain.ScheduledChazara {
	t.Helper()
	sc, err := domain.NewScheduledChazara(f.limud.ID, name, rule, false)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), sc))
	return sc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetSnapshotHorizontalDelay(t *testing.T) {
	initialDate := date(2024, 1, 1)

	tests := []struct {
		name       string
		now        time.Time
		wantStatus domain.ChazaraStatus
	}{
		{
			name:       "before active window",
			now:        date(2024, 1, 5),
			wantStatus: domain.ChazaraStatusEarly,
		},
		{
			name:       "inside active window",
			now:        date(2024, 1, 9),
			wantStatus: domain.ChazaraStatusActive,
		},
		{
			name:       "past due date",
			now:        date(2024, 1, 11),
			wantStatus: domain.ChazaraStatusLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now, 0)
			section := f.addSection(t, "daf 2", initialDate)
			sc := f.addSchedule(t, "first review", domain.HorizontalDelay{
				DaysDelayed: 7,
				DaysActive:  2,
			})

			snap, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, snap.Status)
			require.NotNil(t, snap.ActiveDate)
			require.NotNil(t, snap.DueDate)
			assert.Equal(t, date(2024, 1, 8), *snap.ActiveDate)
			assert.Equal(t, date(2024, 1, 10), *snap.DueDate)

			// The derived status is persisted back as a display cache.
			assert.Equal(t, tt.wantStatus, f.points.stored(section.ID, sc.ID).Status)
		})
	}
}

func TestGetSnapshotFixedDueDate(t *testing.T) {
	dueDate := date(2024, 2, 1)

	t.Run("active until the due date with no active window", func(t *testing.T) {
		f := newFixture(t, date(2024, 1, 15), 0)
		section := f.addSection(t, "daf 2", date(2024, 1, 1))
		sc := f.addSchedule(t, "before the siyum", domain.FixedDueDate{Due: dueDate})

		snap, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.ChazaraStatusActive, snap.Status)
		assert.Nil(t, snap.ActiveDate)
		require.NotNil(t, snap.DueDate)
		assert.Equal(t, dueDate, *snap.DueDate)
	})

	t.Run("late after the due date", func(t *testing.T) {
		f := newFixture(t, date(2024, 2, 2), 0)
		section := f.addSection(t, "daf 2", date(2024, 1, 1))
		sc := f.addSchedule(t, "before the siyum", domain.FixedDueDate{Due: dueDate})

		snap, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.ChazaraStatusLate, snap.Status)
	})
}

func TestGetSnapshotChainedSchedules(t *testing.T) {
	f := newFixture(t, date(2024, 2, 20), 0)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))

	scheduleA := f.addSchedule(t, "first review", domain.HorizontalDelay{
		DaysDelayed: 7,
		DaysActive:  2,
	})
	scheduleB := f.addSchedule(t, "second review", domain.HorizontalDelay{
		DelayedFromID: &scheduleA.ID,
		DaysDelayed:   3,
		DaysActive:    2,
	})

	t.Run("blocked behind incomplete anchor", func(t *testing.T) {
		snap, err := f.svc.GetSnapshot(context.Background(), section.ID, scheduleB.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.ChazaraStatusEarly, snap.Status)
		assert.Nil(t, snap.ActiveDate)
		assert.Nil(t, snap.DueDate)
	})

	t.Run("dates measured from anchor completion", func(t *testing.T) {
		_, err := f.svc.MarkCompleted(context.Background(), section.ID, scheduleA.ID, date(2024, 3, 1))
		require.NoError(t, err)

		f.setNow(date(2024, 3, 5))
		snap, err := f.svc.GetSnapshot(context.Background(), section.ID, scheduleB.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.ChazaraStatusActive, snap.Status)
		require.NotNil(t, snap.ActiveDate)
		require.NotNil(t, snap.DueDate)
		assert.Equal(t, date(2024, 3, 4), *snap.ActiveDate)
		assert.Equal(t, date(2024, 3, 6), *snap.DueDate)
	})

	t.Run("dangling anchor degrades to unknown", func(t *testing.T) {
		missing := uuid.New()
		orphan := f.addSchedule(t, "orphan", domain.HorizontalDelay{
			DelayedFromID: &missing,
			DaysDelayed:   3,
			DaysActive:    2,
		})

		snap, err := f.svc.GetSnapshot(context.Background(), section.ID, orphan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ChazaraStatusUnknown, snap.Status)
	})
}

func TestMarkCompletedAndUnmark(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 0)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{
		DaysDelayed: 7,
		DaysActive:  2,
	})

	completedOn := date(2024, 1, 9)
	snap, err := f.svc.MarkCompleted(context.Background(), section.ID, sc.ID, completedOn)
	require.NoError(t, err)

	assert.Equal(t, domain.ChazaraStatusCompleted, snap.Status)
	require.NotNil(t, snap.Point.CompletionDate)
	assert.Equal(t, completedOn, *snap.Point.CompletionDate)
	assert.Nil(t, snap.ActiveDate, "terminal points report no dates")
	assert.Nil(t, snap.DueDate)

	stored := f.points.stored(section.ID, sc.ID)
	assert.Equal(t, domain.ChazaraStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletionDate)

	// Unmark re-derives the natural status: still inside the active window.
	snap, err = f.svc.Unmark(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ChazaraStatusActive, snap.Status)
	assert.Nil(t, snap.Point.CompletionDate)

	stored = f.points.stored(section.ID, sc.ID)
	assert.Equal(t, domain.ChazaraStatusActive, stored.Status)
	assert.Nil(t, stored.CompletionDate)
}

func TestMarkExempt(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 0)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{
		DaysDelayed: 7,
		DaysActive:  2,
	})

	snap, err := f.svc.MarkExempt(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ChazaraStatusExempt, snap.Status)
	assert.Nil(t, snap.Point.CompletionDate)

	// Exempt short-circuits derivation on subsequent reads.
	snap, err = f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChazaraStatusExempt, snap.Status)
	assert.Nil(t, snap.ActiveDate)
	assert.Nil(t, snap.DueDate)
}

func TestMarkCompletedSaveFailureLeavesPointUnchanged(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 0)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{
		DaysDelayed: 7,
		DaysActive:  2,
	})

	// Materialize the point, then make its updates fail.
	_, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)
	f.points.failUpdateFor = f.points.stored(section.ID, sc.ID).ID

	_, err = f.svc.MarkCompleted(context.Background(), section.ID, sc.ID, date(2024, 1, 9))
	require.Error(t, err)

	stored := f.points.stored(section.ID, sc.ID)
	assert.NotEqual(t, domain.ChazaraStatusCompleted, stored.Status)
	assert.Nil(t, stored.CompletionDate)
}

func TestSnapshotErrors(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 0)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2})

	t.Run("unknown section", func(t *testing.T) {
		_, err := f.svc.GetSnapshot(context.Background(), uuid.New(), sc.ID)
		assert.ErrorIs(t, err, ErrSectionNotFound)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		_, err := f.svc.GetSnapshot(context.Background(), section.ID, uuid.New())
		assert.ErrorIs(t, err, ErrScheduleNotFound)
	})

	t.Run("schedule from another limud", func(t *testing.T) {
		other, err := domain.NewLimud(uuid.New(), "Berachos")
		require.NoError(t, err)
		require.NoError(t, f.limudim.Create(context.Background(), other))

		foreign, err := domain.NewScheduledChazara(other.ID, "foreign", domain.HorizontalDelay{DaysDelayed: 1, DaysActive: 1}, false)
		require.NoError(t, err)
		require.NoError(t, f.schedules.Create(context.Background(), foreign))

		_, err = f.svc.GetSnapshot(context.Background(), section.ID, foreign.ID)
		assert.ErrorIs(t, err, ErrScheduleNotInLimud)
	})
}

func TestSnapshotDebounce(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 30*time.Second)
	section := f.addSection(t, "daf 2", date(2024, 1, 1))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2})

	_, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)
	callsAfterFirst := f.points.getOrCreateCalls

	// Within the TTL the cached snapshot is served without store access.
	_, err = f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, f.points.getOrCreateCalls)

	// A transition invalidates the entry.
	_, err = f.svc.MarkCompleted(context.Background(), section.ID, sc.ID, date(2024, 1, 9))
	require.NoError(t, err)

	snap, err := f.svc.GetSnapshot(context.Background(), section.ID, sc.ID)
	require.NoError(t, err)
	assert.Greater(t, f.points.getOrCreateCalls, callsAfterFirst)
	assert.Equal(t, domain.ChazaraStatusCompleted, snap.Status)
}

func TestRefreshLimud(t *testing.T) {
	f := newFixture(t, date(2024, 1, 11), 0)
	sectionA := f.addSection(t, "daf 2", date(2024, 1, 1))
	sectionB := f.addSection(t, "daf 3", date(2024, 1, 3))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2})

	summary, err := f.svc.RefreshLimud(context.Background(), f.limud.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Refreshed)
	assert.Equal(t, 2, summary.Changed, "both fresh points move from unknown to a derived status")
	assert.Equal(t, 0, summary.Failed)

	// daf 2: due 2024-01-10, now late. daf 3: active 2024-01-10, due 01-12, still active.
	assert.Equal(t, domain.ChazaraStatusLate, f.points.stored(sectionA.ID, sc.ID).Status)
	assert.Equal(t, domain.ChazaraStatusActive, f.points.stored(sectionB.ID, sc.ID).Status)

	t.Run("unknown limud", func(t *testing.T) {
		_, err := f.svc.RefreshLimud(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrLimudNotFound)
	})
}

func TestRefreshLimudToleratesPartialFailure(t *testing.T) {
	f := newFixture(t, date(2024, 1, 11), 0)
	sectionA := f.addSection(t, "daf 2", date(2024, 1, 1))
	sectionB := f.addSection(t, "daf 3", date(2024, 1, 3))
	sc := f.addSchedule(t, "first review", domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2})

	// Materialize daf 2's point and make only its updates fail.
	_, err := f.svc.GetSnapshot(context.Background(), sectionA.ID, sc.ID)
	require.NoError(t, err)
	brokenID := f.points.stored(sectionA.ID, sc.ID).ID
	// Reset its status so the refresh attempts an update.
	f.points.stored(sectionA.ID, sc.ID).Status = domain.ChazaraStatusUnknown
	f.points.failUpdateFor = brokenID

	summary, err := f.svc.RefreshLimud(context.Background(), f.limud.ID)
	require.NoError(t, err, "a per-point failure must not abort the refresh")

	assert.Equal(t, 2, summary.Refreshed)
	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, domain.ChazaraStatusActive, f.points.stored(sectionB.ID, sc.ID).Status)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t, date(2024, 1, 9), 0)
	f.addSection(t, "daf 2", date(2024, 1, 1))
	f.addSchedule(t, "first review", domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2})
	f.addSchedule(t, "fixed", domain.FixedDueDate{Due: date(2024, 2, 1)})

	hidden, err := domain.NewScheduledChazara(f.limud.ID, "hidden drill", domain.HorizontalDelay{DaysDelayed: 1, DaysActive: 1}, true)
	require.NoError(t, err)
	require.NoError(t, f.schedules.Create(context.Background(), hidden))

	entries, err := f.svc.GetDashboard(context.Background(), f.limud.ID)
	require.NoError(t, err)

	require.Len(t, entries, 2, "hidden schedules are excluded")
	statuses := map[string]domain.ChazaraStatus{}
	for _, e := range entries {
		statuses[e.ScheduleName] = e.Status
	}
	assert.Equal(t, domain.ChazaraStatusActive, statuses["first review"])
	assert.Equal(t, domain.ChazaraStatusActive, statuses["fixed"])

	t.Run("unknown limud", func(t *testing.T) {
		_, err := f.svc.GetDashboard(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrLimudNotFound)
	})
}
