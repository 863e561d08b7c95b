package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a generation task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status is a final state. Terminal records
// are immutable: once completed or failed, a task never changes again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Common validation errors for GenerationTask
var (
	ErrEmptyTaskOwnerID     = errors.New("task owner ID cannot be empty")
	ErrTaskTerminal         = errors.New("task has reached a terminal state")
	ErrProgressNotMonotonic = errors.New("task progress cannot decrease")
)

// GenerationTask is the durable record tracking one plan-generation job.
// It is created when a survey is submitted, mutated only by the owning
// job while it runs, and deleted by retention cleanup after it reaches a
// terminal state.
type GenerationTask struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	StartedAt time.Time  `json:"started_at"`

	// FinishedAt records when the task reached its terminal state; zero
	// while the task is pending or processing. Retention cleanup measures
	// record age from it, so a long-running task still gets its full
	// retention window after finishing.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// ResultID references the persisted plan. Present iff Status is completed.
	ResultID *uuid.UUID `json:"result_id,omitempty"`

	// Error is a human-readable failure reason. Present iff Status is failed.
	Error string `json:"error,omitempty"`

	// RawInput retains the original survey for diagnostics and for
	// re-enqueueing interrupted jobs after a restart.
	RawInput SurveyInput `json:"raw_input"`
}

// NewGenerationTask creates a pending task record for the given owner and
// survey, minting a fresh task ID.
func NewGenerationTask(ownerID uuid.UUID, survey SurveyInput) (*GenerationTask, error) {
	if ownerID == uuid.Nil {
		return nil, ErrEmptyTaskOwnerID
	}
	if err := survey.Validate(); err != nil {
		return nil, err
	}

	return &GenerationTask{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    TaskStatusPending,
		Progress:  0,
		StartedAt: time.Now().UTC(),
		RawInput:  survey,
	}, nil
}

// AdvanceProgress raises the task's progress while it is processing.
// It enforces the two progress invariants: progress only increases, and a
// terminal record is never touched. A regression or a terminal record is
// reported as an error so the caller can decide to no-op.
func (t *GenerationTask) AdvanceProgress(progress int) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	if progress < t.Progress {
		return ErrProgressNotMonotonic
	}
	if progress > 100 {
		progress = 100
	}
	t.Progress = progress
	return nil
}

// MarkProcessing moves a pending task into the processing state.
func (t *GenerationTask) MarkProcessing() error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusProcessing
	return nil
}

// Complete finalizes the task successfully with the persisted plan's
// identity. Finalization is idempotent-safe: completing an already
// terminal task is rejected rather than overwriting it.
func (t *GenerationTask) Complete(resultID uuid.UUID) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusCompleted
	t.Progress = 100
	t.ResultID = &resultID
	t.Error = ""
	t.FinishedAt = time.Now().UTC()
	return nil
}

// Fail finalizes the task with a failure reason.
func (t *GenerationTask) Fail(reason string) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusFailed
	t.Error = reason
	t.ResultID = nil
	t.FinishedAt = time.Now().UTC()
	return nil
}
