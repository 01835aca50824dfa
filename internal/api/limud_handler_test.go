package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/api/shared"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limudHandlerFixture struct {
	router  chi.Router
	svc     *memLimudService
	reviews *stubReviewService
	userID  uuid.UUID
}

func newLimudHandlerFixture(t *testing.T) *limudHandlerFixture {
	t.Helper()

	svc := newMemLimudService()
	reviews := &stubReviewService{}
	h := NewLimudHandler(svc, reviews, nil)

	r := chi.NewRouter()
	r.Post("/api/limudim", h.CreateLimud)
	r.Get("/api/limudim", h.ListLimudim)
	r.Get("/api/limudim/{id}", h.GetLimud)
	r.Delete("/api/limudim/{id}", h.DeleteLimud)
	r.Post("/api/limudim/{id}/sections", h.CreateSection)
	r.Get("/api/limudim/{id}/sections", h.ListSections)
	r.Patch("/api/sections/{id}", h.UpdateSection)
	r.Delete("/api/sections/{id}", h.DeleteSection)
	r.Post("/api/limudim/{id}/schedules", h.CreateSchedule)
	r.Get("/api/limudim/{id}/schedules", h.ListSchedules)
	r.Delete("/api/schedules/{id}", h.DeleteSchedule)
	r.Get("/api/limudim/{id}/dashboard", h.GetDashboard)

	return &limudHandlerFixture{
		router:  r,
		svc:     svc,
		reviews: reviews,
		userID:  uuid.New(),
	}
}

// do issues a request through the router as the given user. A nil userID
// leaves the request unauthenticated.
func (fx *limudHandlerFixture) do(t *testing.T, method, target string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	r := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		r = r.WithContext(ctx)
	}

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, r)
	return w
}

func (fx *limudHandlerFixture) createLimud(t *testing.T) LimudResponse {
	t.Helper()
	w := fx.do(t, http.MethodPost, "/api/limudim", fx.userID, CreateLimudRequest{Name: "Berachos"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp LimudResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCreateLimudEndpoint(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)

	resp := fx.createLimud(t)
	assert.Equal(t, "Berachos", resp.Name)
	assert.NotEqual(t, uuid.Nil, resp.ID)

	// Unauthenticated request
	w := fx.do(t, http.MethodPost, "/api/limudim", uuid.Nil, CreateLimudRequest{Name: "Shabbos"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Missing name
	w = fx.do(t, http.MethodPost, "/api/limudim", fx.userID, CreateLimudRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLimudEndpoint(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)
	limud := fx.createLimud(t)

	w := fx.do(t, http.MethodGet, "/api/limudim/"+limud.ID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user's limud
	w = fx.do(t, http.MethodGet, "/api/limudim/"+limud.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown limud
	w = fx.do(t, http.MethodGet, "/api/limudim/"+uuid.NewString(), fx.userID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed ID
	w = fx.do(t, http.MethodGet, "/api/limudim/not-a-uuid", fx.userID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLimudEndpoint(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)
	limud := fx.createLimud(t)

	w := fx.do(t, http.MethodDelete, "/api/limudim/"+limud.ID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = fx.do(t, http.MethodGet, "/api/limudim/"+limud.ID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSectionEndpoints(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)
	limud := fx.createLimud(t)
	base := "/api/limudim/" + limud.ID.String()

	// Create
	w := fx.do(t, http.MethodPost, base+"/sections", fx.userID, CreateSectionRequest{
		Name:        "daf 2",
		InitialDate: "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var section SectionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&section))
	assert.Equal(t, "2024-01-01", section.InitialDate)

	// Bad date format
	w = fx.do(t, http.MethodPost, base+"/sections", fx.userID, CreateSectionRequest{
		Name:        "daf 3",
		InitialDate: "01/02/2024",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// List
	w = fx.do(t, http.MethodGet, base+"/sections", fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sections []SectionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sections))
	assert.Len(t, sections, 1)

	// Rename and move the learning date
	w = fx.do(t, http.MethodPatch, "/api/sections/"+section.ID.String(), fx.userID, UpdateSectionRequest{
		Name:        "daf 2 amud b",
		InitialDate: "2024-01-05",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated SectionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "daf 2 amud b", updated.Name)
	assert.Equal(t, "2024-01-05", updated.InitialDate)

	// Delete as another user
	w = fx.do(t, http.MethodDelete, "/api/sections/"+section.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Delete as owner
	w = fx.do(t, http.MethodDelete, "/api/sections/"+section.ID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)
	limud := fx.createLimud(t)
	base := "/api/limudim/" + limud.ID.String()

	daysDelayed, daysActive := 7, 2

	// Horizontal rule anchored on the initial learning date
	w := fx.do(t, http.MethodPost, base+"/schedules", fx.userID, CreateScheduleRequest{
		Name: "after a week",
		Rule: RulePayload{
			Kind:        "horizontal",
			DaysDelayed: &daysDelayed,
			DaysActive:  &daysActive,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var first ScheduleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&first))
	assert.Equal(t, "H:DFINITIAL:DL7:DTC2", first.Rule)
	assert.Nil(t, first.DelayedFromID)

	// Chained rule anchored on the first schedule
	chainDelay, chainActive := 3, 2
	w = fx.do(t, http.MethodPost, base+"/schedules", fx.userID, CreateScheduleRequest{
		Name: "three days later",
		Rule: RulePayload{
			Kind:          "horizontal",
			DelayedFromID: &first.ID,
			DaysDelayed:   &chainDelay,
			DaysActive:    &chainActive,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var chained ScheduleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&chained))
	require.NotNil(t, chained.DelayedFromID)
	assert.Equal(t, first.ID, *chained.DelayedFromID)

	// Anchor that does not exist
	ghost := uuid.New()
	w = fx.do(t, http.MethodPost, base+"/schedules", fx.userID, CreateScheduleRequest{
		Name: "dangling",
		Rule: RulePayload{
			Kind:          "horizontal",
			DelayedFromID: &ghost,
			DaysDelayed:   &chainDelay,
			DaysActive:    &chainActive,
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Unknown rule kind
	w = fx.do(t, http.MethodPost, base+"/schedules", fx.userID, map[string]interface{}{
		"name": "bad",
		"rule": map[string]interface{}{"kind": "diagonal"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Fixed rule with missing due date
	w = fx.do(t, http.MethodPost, base+"/schedules", fx.userID, CreateScheduleRequest{
		Name: "siyum",
		Rule: RulePayload{Kind: "fixed"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// List
	w = fx.do(t, http.MethodGet, base+"/schedules", fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var schedules []ScheduleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&schedules))
	assert.Len(t, schedules, 2)

	// Delete
	w = fx.do(t, http.MethodDelete, "/api/schedules/"+first.ID.String(), fx.userID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	t.Parallel()
	fx := newLimudHandlerFixture(t)
	limud := fx.createLimud(t)

	active := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	fx.reviews.dashboard = []*review.DashboardEntry{
		{
			SectionID:    uuid.New(),
			SectionName:  "daf 2",
			ScheduleID:   uuid.New(),
			ScheduleName: "after a week",
			Status:       domain.ChazaraStatusActive,
			ActiveDate:   &active,
			DueDate:      &due,
		},
	}

	w := fx.do(t, http.MethodGet, "/api/limudim/"+limud.ID.String()+"/dashboard", fx.userID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DashboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, limud.ID, resp.LimudID)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "active", resp.Entries[0].Status)
	assert.Equal(t, "2024-01-08", resp.Entries[0].ActiveDate)
	assert.Equal(t, "2024-01-10", resp.Entries[0].DueDate)

	// Ownership is checked before review state is touched.
	w = fx.do(t, http.MethodGet, "/api/limudim/"+limud.ID.String()+"/dashboard", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
