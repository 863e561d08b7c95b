// Package api contains the HTTP handlers exposing plan generation to the
// web layer: submission and status queries.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/api/shared"
	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/service"
)

// SubmitGenerationRequest represents the request body for submitting a
// plan-generation survey.
type SubmitGenerationRequest struct {
	OwnerID           string    `json:"owner_id" validate:"required,uuid"`
	TargetLevel       string    `json:"target_level" validate:"required"`
	ExamYear          int       `json:"exam_year" validate:"required"`
	Deadline          time.Time `json:"deadline" validate:"required"`
	Track             string    `json:"track,omitempty"`
	DailyStudyMinutes int       `json:"daily_study_minutes,omitempty" validate:"omitempty,gt=0"`
}

// SubmitGenerationResponse is returned with 202 Accepted.
type SubmitGenerationResponse struct {
	TaskID          string `json:"task_id"`
	EstimatedTimeMs int64  `json:"estimated_time_ms"`
}

// StatusResponse represents the status of a generation task.
type StatusResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	ResultID string `json:"result_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PlanHandler handles plan-generation HTTP requests.
type PlanHandler struct {
	planService *service.PlanService
	logger      *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService *service.PlanService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger.With("component", "plan_handler"),
	}
}

// SubmitGeneration handles POST /api/plans/generations requests.
// Processing is asynchronous: a successful response is 202 Accepted with
// the task ID to poll.
func (h *PlanHandler) SubmitGeneration(w http.ResponseWriter, r *http.Request) {
	var req SubmitGenerationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	survey := domain.SurveyInput{
		TargetLevel:       req.TargetLevel,
		ExamYear:          req.ExamYear,
		Deadline:          req.Deadline,
		Track:             req.Track,
		DailyStudyMinutes: req.DailyStudyMinutes,
	}

	result, err := h.planService.SubmitGeneration(r.Context(), ownerID, survey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOwnerNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Owner not found")
		case errors.Is(err, service.ErrInvalidSurvey):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Survey is missing required fields")
		case errors.Is(err, service.ErrTooManyJobs):
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many generation jobs in flight, try again later")
		default:
			h.logger.Error("failed to submit generation",
				"error", err,
				"owner_id", ownerID)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit generation")
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitGenerationResponse{
		TaskID:          result.TaskID.String(),
		EstimatedTimeMs: result.EstimatedTimeMs,
	})
}

// GetStatus handles GET /api/plans/generations/{id} requests.
func (h *PlanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing task ID")
		return
	}

	taskID, err := uuid.Parse(idParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	snapshot, err := h.planService.GetStatus(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed to query task status",
			"error", err,
			"task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to query task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(snapshot))
}

// GetPlan handles GET /api/plans/{id} requests, serving the persisted
// plan a completed task's result ID points at.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing plan ID")
		return
	}

	planID, err := uuid.Parse(idParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	plan, err := h.planService.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		h.logger.Error("failed to load plan",
			"error", err,
			"plan_id", planID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, plan)
}

// statusToResponse converts a service.StatusSnapshot to a StatusResponse.
func statusToResponse(s *service.StatusSnapshot) StatusResponse {
	resp := StatusResponse{
		TaskID:   s.TaskID.String(),
		Status:   string(s.Status),
		Progress: s.Progress,
		Error:    s.Error,
	}
	if s.ResultID != nil {
		resp.ResultID = s.ResultID.String()
	}
	return resp
}
