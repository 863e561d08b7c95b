package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/generation"
	"github.com/medtitle/plangen-api/internal/store"
)

// progressCeiling caps heartbeat progress. The remaining headroom belongs
// to finalization, which sets 100.
const progressCeiling = 90

// Common errors
var (
	ErrNilRecordStore = errors.New("task record store cannot be nil")
	ErrNilEngine      = errors.New("synthesis engine cannot be nil")
	ErrNilPlanRepo    = errors.New("plan repository cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
)

// PlanGenerationJob executes one generation job: it moves the task record
// to processing, keeps heuristic progress ticking while the synthesis
// engine works, persists the resulting plan, and finalizes the record.
//
// Finalization always wins over the heartbeat: every heartbeat write goes
// through an atomic record mutation that no-ops once the record is
// terminal.
type PlanGenerationJob struct {
	records store.TaskRecordStore
	engine  *generation.Engine
	plans   store.PlanRepository
	logger  *slog.Logger

	// estimatedDuration feeds the progress heuristic; it is an estimate
	// of wall-clock job time, not a measurement of synthesis work.
	estimatedDuration time.Duration

	// heartbeatInterval is how often progress is recomputed.
	heartbeatInterval time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewPlanGenerationJob creates the executor for generation jobs.
func NewPlanGenerationJob(
	records store.TaskRecordStore,
	engine *generation.Engine,
	plans store.PlanRepository,
	estimatedDuration time.Duration,
	heartbeatInterval time.Duration,
	logger *slog.Logger,
) (*PlanGenerationJob, error) {
	if records == nil {
		return nil, ErrNilRecordStore
	}
	if engine == nil {
		return nil, ErrNilEngine
	}
	if plans == nil {
		return nil, ErrNilPlanRepo
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if estimatedDuration <= 0 {
		estimatedDuration = 90 * time.Second
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = 5 * time.Second
	}

	return &PlanGenerationJob{
		records:           records,
		engine:            engine,
		plans:             plans,
		estimatedDuration: estimatedDuration,
		heartbeatInterval: heartbeatInterval,
		logger:            logger.With("component", "plan_generation_job"),
		now:               time.Now,
	}, nil
}

// Execute runs the job body for the given task record.
func (j *PlanGenerationJob) Execute(ctx context.Context, task *domain.GenerationTask) error {
	logger := j.logger.With("task_id", task.ID, "owner_id", task.OwnerID)

	err := j.records.Mutate(ctx, task.ID, func(rec *domain.GenerationTask) error {
		return rec.MarkProcessing()
	})
	if err != nil {
		if errors.Is(err, domain.ErrTaskTerminal) {
			// Already finalized by an earlier run; nothing to do.
			logger.Warn("task already terminal, skipping execution")
			return nil
		}
		return j.fail(ctx, task, fmt.Errorf("failed to mark task processing: %w", err))
	}

	stopHeartbeat := j.startHeartbeat(ctx, task, logger)
	defer stopHeartbeat()

	if err := ctx.Err(); err != nil {
		return j.fail(ctx, task, fmt.Errorf("job cancelled: %w", err))
	}

	// Synthesis never fails: upstream and parse failures degrade to the
	// deterministic fallback inside the engine.
	plan := j.engine.Synthesize(ctx, task.RawInput)

	// Persistence failure, by contrast, is fatal to the task.
	resultID, err := j.plans.SavePlan(ctx, task.OwnerID, plan)
	if err != nil {
		return j.fail(ctx, task, fmt.Errorf("failed to persist plan: %w", err))
	}

	stopHeartbeat()

	err = j.records.Mutate(ctx, task.ID, func(rec *domain.GenerationTask) error {
		return rec.Complete(resultID)
	})
	if err != nil {
		// The plan is persisted; an orphaned record is the lesser harm.
		logger.Error("plan persisted but task finalization failed",
			"result_id", resultID,
			"error", err)
		return fmt.Errorf("failed to finalize task: %w", err)
	}

	logger.Info("task completed", "result_id", resultID)
	return nil
}

// fail finalizes the record as failed with the error's message. The
// original error is returned for the runner's log.
func (j *PlanGenerationJob) fail(ctx context.Context, task *domain.GenerationTask, cause error) error {
	err := j.records.Mutate(ctx, task.ID, func(rec *domain.GenerationTask) error {
		return rec.Fail(cause.Error())
	})
	if err != nil && !errors.Is(err, domain.ErrTaskTerminal) {
		j.logger.Error("failed to mark task failed",
			"task_id", task.ID,
			"error", err)
	}
	return cause
}

// startHeartbeat launches the progress ticker for the task and returns an
// idempotent stop function.
//
// Progress is a heuristic derived purely from wall-clock time:
// min(90, elapsed/estimated*100). Each write checks the record's status
// inside the store mutation and no-ops the moment the record leaves
// processing, so a racing finalization is never clobbered.
func (j *PlanGenerationJob) startHeartbeat(ctx context.Context, task *domain.GenerationTask, logger *slog.Logger) func() {
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	startedAt := task.StartedAt

	go func() {
		defer close(doneCh)

		ticker := time.NewTicker(j.heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				progress := j.heuristicProgress(startedAt)
				err := j.records.Mutate(ctx, task.ID, func(rec *domain.GenerationTask) error {
					if rec.Status != domain.TaskStatusProcessing {
						return domain.ErrTaskTerminal
					}
					return rec.AdvanceProgress(progress)
				})
				if err != nil {
					if errors.Is(err, domain.ErrTaskTerminal) || errors.Is(err, domain.ErrProgressNotMonotonic) {
						return
					}
					logger.Warn("heartbeat progress update failed", "error", err)
				}
			}
		}
	}()

	var stopped bool
	return func() {
		if !stopped {
			stopped = true
			close(stopCh)
			<-doneCh
		}
	}
}

// heuristicProgress maps elapsed time onto 0..90.
func (j *PlanGenerationJob) heuristicProgress(startedAt time.Time) int {
	elapsed := j.now().Sub(startedAt)
	progress := int(float64(elapsed) / float64(j.estimatedDuration) * 100)
	if progress > progressCeiling {
		return progressCeiling
	}
	if progress < 0 {
		return 0
	}
	return progress
}
