package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointHandlerFixture struct {
	*limudHandlerFixture
	limudID   uuid.UUID
	sectionID uuid.UUID
	schedID   uuid.UUID
}

func newPointHandlerFixture(t *testing.T) *pointHandlerFixture {
	t.Helper()

	base := newLimudHandlerFixture(t)
	h := NewPointHandler(base.reviews, base.svc, &memSectionStore{svc: base.svc}, nil)

	base.router.Get("/api/points/{sectionId}/{scheduleId}", h.GetSnapshot)
	base.router.Post("/api/points/{sectionId}/{scheduleId}/complete", h.Complete)
	base.router.Post("/api/points/{sectionId}/{scheduleId}/exempt", h.Exempt)
	base.router.Post("/api/points/{sectionId}/{scheduleId}/unmark", h.Unmark)

	ctx := context.Background()
	limud, err := base.svc.CreateLimud(ctx, base.userID, "Berachos")
	require.NoError(t, err)
	section, err := base.svc.CreateSection(ctx, base.userID, limud.ID, "daf 2",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	sc, err := base.svc.CreateSchedule(ctx, base.userID, limud.ID, "after a week",
		domain.HorizontalDelay{DaysDelayed: 7, DaysActive: 2}, false)
	require.NoError(t, err)

	return &pointHandlerFixture{
		limudHandlerFixture: base,
		limudID:             limud.ID,
		sectionID:           section.ID,
		schedID:             sc.ID,
	}
}

func (fx *pointHandlerFixture) pointPath(suffix string) string {
	return "/api/points/" + fx.sectionID.String() + "/" + fx.schedID.String() + suffix
}

func (fx *pointHandlerFixture) setSnapshot(status domain.ChazaraStatus, activeDate, dueDate, completionDate *time.Time) {
	point := &domain.ReviewPoint{
		ID:             uuid.New(),
		SectionID:      fx.sectionID,
		ScheduleID:     fx.schedID,
		Status:         status,
		CompletionDate: completionDate,
	}
	fx.reviews.snapshot = &review.PointSnapshot{
		Point:      point,
		Status:     status,
		ActiveDate: activeDate,
		DueDate:    dueDate,
	}
}

func TestGetSnapshotEndpoint(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)

	active := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	fx.setSnapshot(domain.ChazaraStatusActive, &active, &due, nil)

	w := fx.do(t, http.MethodGet, fx.pointPath(""), fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PointResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "2024-01-08", resp.ActiveDate)
	assert.Equal(t, "2024-01-10", resp.DueDate)
	assert.Empty(t, resp.CompletionDate)
}

func TestGetSnapshotOwnership(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)
	fx.setSnapshot(domain.ChazaraStatusUnknown, nil, nil, nil)

	w := fx.do(t, http.MethodGet, fx.pointPath(""), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEqual(t, "snapshot", fx.reviews.lastCall, "review state must not be touched for foreign users")

	// Unknown section
	w = fx.do(t, http.MethodGet, "/api/points/"+uuid.NewString()+"/"+fx.schedID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteEndpoint(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)

	completed := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	fx.setSnapshot(domain.ChazaraStatusCompleted, nil, nil, &completed)

	w := fx.do(t, http.MethodPost, fx.pointPath("/complete"), fx.userID, CompletePointRequest{
		CompletedOn: "2024-01-09",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "complete", fx.reviews.lastCall)
	assert.True(t, fx.reviews.completedOn.Equal(completed))

	var resp PointResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "2024-01-09", resp.CompletionDate)
	assert.Empty(t, resp.ActiveDate)
	assert.Empty(t, resp.DueDate)
}

func TestCompleteEndpointDefaultsToNow(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)

	completed := time.Now().UTC()
	fx.setSnapshot(domain.ChazaraStatusCompleted, nil, nil, &completed)

	// Empty body: the service receives a zero time, meaning "now".
	w := fx.do(t, http.MethodPost, fx.pointPath("/complete"), fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fx.reviews.completedOn.IsZero())
}

func TestCompleteEndpointBadDate(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)
	fx.setSnapshot(domain.ChazaraStatusUnknown, nil, nil, nil)

	w := fx.do(t, http.MethodPost, fx.pointPath("/complete"), fx.userID, CompletePointRequest{
		CompletedOn: "Jan 9 2024",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExemptEndpoint(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)
	fx.setSnapshot(domain.ChazaraStatusExempt, nil, nil, nil)

	w := fx.do(t, http.MethodPost, fx.pointPath("/exempt"), fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "exempt", fx.reviews.lastCall)

	var resp PointResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "exempt", resp.Status)
}

func TestUnmarkEndpoint(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)

	active := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	fx.setSnapshot(domain.ChazaraStatusLate, &active, &due, nil)

	w := fx.do(t, http.MethodPost, fx.pointPath("/unmark"), fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unmark", fx.reviews.lastCall)

	var resp PointResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "late", resp.Status)
}

func TestPointEndpointErrorMapping(t *testing.T) {
	t.Parallel()
	fx := newPointHandlerFixture(t)
	fx.reviews.err = review.ErrScheduleNotInLimud

	w := fx.do(t, http.MethodGet, fx.pointPath(""), fx.userID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
