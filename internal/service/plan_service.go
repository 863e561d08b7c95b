// Package service contains the application services orchestrating plan
// generation: submission validation, task creation, and status queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/store"
	"github.com/medtitle/plangen-api/internal/task"
)

// Common sentinel errors for PlanService
var (
	// ErrOwnerNotFound indicates the submitting owner is not registered.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrTaskNotFound indicates the queried task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPlanNotFound indicates the queried plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrInvalidSurvey indicates the survey is missing required fields.
	ErrInvalidSurvey = errors.New("invalid survey input")

	// ErrTooManyJobs indicates the owner or the system is at capacity.
	ErrTooManyJobs = errors.New("too many generation jobs in flight")
)

// JobSubmitter is the slice of the runner the service needs.
type JobSubmitter interface {
	Submit(ctx context.Context, task *domain.GenerationTask) error
}

// StatusSnapshot is the caller-facing view of one generation task.
type StatusSnapshot struct {
	TaskID   uuid.UUID         `json:"task_id"`
	Status   domain.TaskStatus `json:"status"`
	Progress int               `json:"progress"`
	ResultID *uuid.UUID        `json:"result_id,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// SubmitResult is returned from a successful submission.
type SubmitResult struct {
	TaskID          uuid.UUID
	EstimatedTimeMs int64
}

// PlanService orchestrates plan-generation submissions, status queries,
// and retrieval of finished plans.
type PlanService struct {
	owners    store.OwnerDirectory
	records   store.TaskRecordStore
	plans     store.PlanRepository
	submitter JobSubmitter
	logger    *slog.Logger

	// estimatedDuration is reported to clients so pollers can size their
	// expectations; it matches the heartbeat's heuristic basis.
	estimatedDuration time.Duration
}

// NewPlanService creates a new PlanService.
func NewPlanService(
	owners store.OwnerDirectory,
	records store.TaskRecordStore,
	plans store.PlanRepository,
	submitter JobSubmitter,
	estimatedDuration time.Duration,
	logger *slog.Logger,
) *PlanService {
	return &PlanService{
		owners:            owners,
		records:           records,
		plans:             plans,
		submitter:         submitter,
		estimatedDuration: estimatedDuration,
		logger:            logger.With("component", "plan_service"),
	}
}

// SubmitGeneration validates the submission and kicks off an asynchronous
// generation job, returning as soon as the pending record is durable and
// the job is queued.
//
// Pre-flight validation failures (unknown owner, incomplete survey) are
// returned synchronously and create no task record.
func (s *PlanService) SubmitGeneration(ctx context.Context, ownerID uuid.UUID, survey domain.SurveyInput) (*SubmitResult, error) {
	if ownerID == uuid.Nil {
		return nil, ErrOwnerNotFound
	}

	if err := s.owners.OwnerExists(ctx, ownerID); err != nil {
		if errors.Is(err, store.ErrOwnerNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to check owner: %w", err)
	}

	if err := survey.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}

	record, err := domain.NewGenerationTask(ownerID, survey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}

	if err := s.submitter.Submit(ctx, record); err != nil {
		if errors.Is(err, task.ErrOwnerBusy) || errors.Is(err, task.ErrQueueFull) {
			return nil, fmt.Errorf("%w: %v", ErrTooManyJobs, err)
		}
		return nil, fmt.Errorf("failed to submit generation job: %w", err)
	}

	s.logger.InfoContext(ctx, "generation job submitted",
		"task_id", record.ID,
		"owner_id", ownerID,
		"target_level", survey.TargetLevel)

	return &SubmitResult{
		TaskID:          record.ID,
		EstimatedTimeMs: s.estimatedDuration.Milliseconds(),
	}, nil
}

// GetStatus returns the current status snapshot for the task.
func (s *PlanService) GetStatus(ctx context.Context, taskID uuid.UUID) (*StatusSnapshot, error) {
	record, err := s.records.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task record: %w", err)
	}

	return &StatusSnapshot{
		TaskID:   record.ID,
		Status:   record.Status,
		Progress: record.Progress,
		ResultID: record.ResultID,
		Error:    record.Error,
	}, nil
}

// GetPlan loads a finished plan by the result ID reported in a completed
// task's status.
func (s *PlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.StudyPlan, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}
