package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/chazara-api/internal/api/shared"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/review"
)

// LimudHandler handles limud, section, and schedule HTTP requests.
type LimudHandler struct {
	limudService  service.LimudService
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewLimudHandler creates a new LimudHandler.
func NewLimudHandler(
	limudService service.LimudService,
	reviewService review.ReviewService,
	log *slog.Logger,
) *LimudHandler {
	if limudService == nil {
		panic("limudService cannot be nil")
	}
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &LimudHandler{
		limudService:  limudService,
		reviewService: reviewService,
		logger:        log.With(slog.String("component", "limud_handler")),
	}
}

// CreateLimud handles POST /limudim.
func (h *LimudHandler) CreateLimud(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateLimudRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	limud, err := h.limudService.CreateLimud(r.Context(), userID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create limud")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, limudToResponse(limud))
}

// ListLimudim handles GET /limudim.
func (h *LimudHandler) ListLimudim(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limudim, err := h.limudService.ListLimudim(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list limudim")
		return
	}

	responses := make([]LimudResponse, 0, len(limudim))
	for _, l := range limudim {
		responses = append(responses, limudToResponse(l))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetLimud handles GET /limudim/{id}.
func (h *LimudHandler) GetLimud(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	limud, err := h.limudService.GetLimud(r.Context(), userID, limudID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve limud")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, limudToResponse(limud))
}

// DeleteLimud handles DELETE /limudim/{id}.
func (h *LimudHandler) DeleteLimud(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.limudService.DeleteLimud(r.Context(), userID, limudID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete limud")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSection handles POST /limudim/{id}/sections.
func (h *LimudHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req CreateSectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	initialDate, err := time.ParseInLocation(dateLayout, req.InitialDate, time.UTC)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "initial_date must be formatted as "+dateLayout)
		return
	}

	section, err := h.limudService.CreateSection(r.Context(), userID, limudID, req.Name, initialDate)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create section")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sectionToResponse(section))
}

// ListSections handles GET /limudim/{id}/sections.
func (h *LimudHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	sections, err := h.limudService.ListSections(r.Context(), userID, limudID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sections")
		return
	}

	responses := make([]SectionResponse, 0, len(sections))
	for _, s := range sections {
		responses = append(responses, sectionToResponse(s))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// UpdateSection handles PATCH /sections/{id}. Renaming a section or moving
// its initial date shifts all derived review dates on the next read.
func (h *LimudHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	userID, sectionID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateSectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var initialDate time.Time
	if req.InitialDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.InitialDate, time.UTC)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "initial_date must be formatted as "+dateLayout)
			return
		}
		initialDate = parsed
	}

	section, err := h.limudService.UpdateSection(r.Context(), userID, sectionID, req.Name, initialDate)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update section")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sectionToResponse(section))
}

// DeleteSection handles DELETE /sections/{id}.
func (h *LimudHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	userID, sectionID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.limudService.DeleteSection(r.Context(), userID, sectionID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete section")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSchedule handles POST /limudim/{id}/schedules.
func (h *LimudHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	rule, err := req.Rule.ToRule()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sc, err := h.limudService.CreateSchedule(r.Context(), userID, limudID, req.Name, rule, req.Hidden)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create schedule")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, scheduleToResponse(sc))
}

// ListSchedules handles GET /limudim/{id}/schedules.
func (h *LimudHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	schedules, err := h.limudService.ListSchedules(r.Context(), userID, limudID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list schedules")
		return
	}

	responses := make([]ScheduleResponse, 0, len(schedules))
	for _, sc := range schedules {
		responses = append(responses, scheduleToResponse(sc))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// DeleteSchedule handles DELETE /schedules/{id}.
func (h *LimudHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.limudService.DeleteSchedule(r.Context(), userID, scheduleID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete schedule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDashboard handles GET /limudim/{id}/dashboard. It returns the derived
// status of every visible (section, schedule) coordinate in the limud.
func (h *LimudHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, limudID, ok := requireUserAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	// Ownership check before touching review state.
	if _, err := h.limudService.GetLimud(r.Context(), userID, limudID); err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve limud")
		return
	}

	entries, err := h.reviewService.GetDashboard(r.Context(), limudID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build dashboard")
		return
	}

	responses := make([]DashboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, DashboardEntryResponse{
			SectionID:    e.SectionID,
			SectionName:  e.SectionName,
			ScheduleID:   e.ScheduleID,
			ScheduleName: e.ScheduleName,
			Status:       string(e.Status),
			ActiveDate:   formatDate(e.ActiveDate),
			DueDate:      formatDate(e.DueDate),
		})
	}

	log.Debug("dashboard built",
		slog.String("limud_id", limudID.String()),
		slog.Int("entries", len(responses)))
	shared.RespondWithJSON(w, r, http.StatusOK, DashboardResponse{
		LimudID: limudID,
		Entries: responses,
	})
}
