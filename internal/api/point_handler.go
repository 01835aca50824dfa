package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/api/shared"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/phrazzld/chazara-api/internal/store"
)

// PointHandler handles review point HTTP requests: snapshot reads and the
// complete/exempt/unmark transitions.
type PointHandler struct {
	reviewService review.ReviewService
	limudService  service.LimudService
	sectionStore  store.SectionStore
	logger        *slog.Logger
}

// NewPointHandler creates a new PointHandler.
func NewPointHandler(
	reviewService review.ReviewService,
	limudService service.LimudService,
	sectionStore store.SectionStore,
	log *slog.Logger,
) *PointHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if limudService == nil {
		panic("limudService cannot be nil")
	}
	if sectionStore == nil {
		panic("sectionStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PointHandler{
		reviewService: reviewService,
		limudService:  limudService,
		sectionStore:  sectionStore,
		logger:        log.With(slog.String("component", "point_handler")),
	}
}

// coordinate extracts the (section, schedule) coordinate from the path and
// verifies the requesting user owns the limud the section belongs to.
func (h *PointHandler) coordinate(w http.ResponseWriter, r *http.Request) (sectionID, scheduleID uuid.UUID, ok bool) {
	userID, sectionID, ok := requireUserAndPathUUID(w, r, "sectionId", h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	scheduleID, err := getPathUUID(r, "scheduleId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	section, err := h.sectionStore.GetByID(r.Context(), sectionID)
	if err != nil {
		if errors.Is(err, store.ErrSectionNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Section not found")
		} else {
			HandleAPIError(w, r, err, "Failed to retrieve section")
		}
		return uuid.Nil, uuid.Nil, false
	}

	if _, err := h.limudService.GetLimud(r.Context(), userID, section.LimudID); err != nil {
		HandleAPIError(w, r, err, "Failed to verify ownership")
		return uuid.Nil, uuid.Nil, false
	}

	return sectionID, scheduleID, true
}

// GetSnapshot handles GET /points/{sectionId}/{scheduleId}. The point is
// materialized on first access.
func (h *PointHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	sectionID, scheduleID, ok := h.coordinate(w, r)
	if !ok {
		return
	}

	snapshot, err := h.reviewService.GetSnapshot(r.Context(), sectionID, scheduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve review point")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snapshot))
}

// Complete handles POST /points/{sectionId}/{scheduleId}/complete. An
// omitted completed_on date means today.
func (h *PointHandler) Complete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sectionID, scheduleID, ok := h.coordinate(w, r)
	if !ok {
		return
	}

	var req CompletePointRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	var completedOn time.Time
	if req.CompletedOn != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.CompletedOn, time.UTC)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "completed_on must be formatted as "+dateLayout)
			return
		}
		completedOn = parsed
	}

	snapshot, err := h.reviewService.MarkCompleted(r.Context(), sectionID, scheduleID, completedOn)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark review completed")
		return
	}

	log.Debug("review point completed",
		slog.String("section_id", sectionID.String()),
		slog.String("schedule_id", scheduleID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snapshot))
}

// Exempt handles POST /points/{sectionId}/{scheduleId}/exempt.
func (h *PointHandler) Exempt(w http.ResponseWriter, r *http.Request) {
	sectionID, scheduleID, ok := h.coordinate(w, r)
	if !ok {
		return
	}

	snapshot, err := h.reviewService.MarkExempt(r.Context(), sectionID, scheduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark review exempt")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snapshot))
}

// Unmark handles POST /points/{sectionId}/{scheduleId}/unmark. It clears a
// terminal state and re-derives the point's natural status; unmarking a
// non-terminal point is a no-op.
func (h *PointHandler) Unmark(w http.ResponseWriter, r *http.Request) {
	sectionID, scheduleID, ok := h.coordinate(w, r)
	if !ok {
		return
	}

	snapshot, err := h.reviewService.Unmark(r.Context(), sectionID, scheduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unmark review point")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snapshot))
}

func snapshotToResponse(snapshot *review.PointSnapshot) PointResponse {
	return PointResponse{
		SectionID:      snapshot.Point.SectionID,
		ScheduleID:     snapshot.Point.ScheduleID,
		Status:         string(snapshot.Status),
		ActiveDate:     formatDate(snapshot.ActiveDate),
		DueDate:        formatDate(snapshot.DueDate),
		CompletionDate: formatDate(snapshot.Point.CompletionDate),
	}
}
