package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/store"
)

// Common errors returned by Submit
var (
	// ErrQueueFull is returned when the job queue has no capacity left.
	ErrQueueFull = errors.New("job queue is full, try again later")

	// ErrOwnerBusy is returned when the owner already has the maximum
	// number of generation jobs in flight.
	ErrOwnerBusy = errors.New("owner has too many generation jobs in flight")
)

// Executor runs the body of one generation job against its task record.
type Executor interface {
	// Execute runs the job to completion, finalizing the task record to
	// completed or failed itself. The returned error is for logging; by
	// the time Execute returns the record already reflects the outcome.
	Execute(ctx context.Context, task *domain.GenerationTask) error
}

// RunnerConfig holds configuration for the generation runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue.
	QueueSize int

	// MaxPerOwner caps in-flight jobs per owner. Zero disables the cap.
	MaxPerOwner int

	// RetentionWindow is how long terminal records are kept before the
	// cleanup sweep deletes them.
	RetentionWindow time.Duration

	// CleanupInterval defines how often the retention sweep runs.
	// If zero, defaults to 10 minutes.
	CleanupInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:     2,
		QueueSize:       100,
		MaxPerOwner:     2,
		RetentionWindow: 24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Runner manages background processing of plan-generation jobs.
type Runner struct {
	records    store.TaskRecordStore
	executor   Executor
	jobChan    chan *domain.GenerationTask
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]int                // jobs in flight per owner
	cancels  map[uuid.UUID]context.CancelFunc // cancellation handle per task
}

// NewRunner creates a new Runner.
func NewRunner(records store.TaskRecordStore, executor Executor, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = 10 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		records:    records,
		executor:   executor,
		jobChan:    make(chan *domain.GenerationTask, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "task_runner"),
		inflight:   make(map[uuid.UUID]int),
		cancels:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit persists the pending task record and enqueues the job. The call
// returns as soon as the record is durable and the job is queued; the
// generation itself runs on a worker.
func (r *Runner) Submit(ctx context.Context, task *domain.GenerationTask) error {
	if !r.admit(task.OwnerID) {
		return ErrOwnerBusy
	}

	// Persist the record first so the task is observable (and
	// recoverable) before any work happens.
	if err := r.records.Save(ctx, task); err != nil {
		r.release(task.OwnerID)
		return fmt.Errorf("failed to save task record: %w", err)
	}

	select {
	case r.jobChan <- task:
		r.logger.Debug("job enqueued",
			"task_id", task.ID,
			"owner_id", task.OwnerID,
			"queue_len", len(r.jobChan))
		return nil
	default:
		r.release(task.OwnerID)
		// The pending record stays behind; recovery will requeue it on
		// the next restart rather than losing the submission silently.
		return ErrQueueFull
	}
}

// Cancel aborts the in-flight job for the given task, if any. The job's
// context is cancelled; the executor finalizes the record to failed.
func (r *Runner) Cancel(taskID uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[taskID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Start recovers interrupted jobs and begins processing.
func (r *Runner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.cleanupMonitor()

	return nil
}

// Stop gracefully shuts down the runner. In-flight jobs are cancelled via
// their contexts and workers drain before Stop returns.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.jobChan)
}

// Recover requeues records left in pending or processing by a previous
// run. The record retains the original survey, so an interrupted job can
// simply run again; processing records are reset to pending first.
func (r *Runner) Recover() error {
	ctx := context.Background()

	pending, err := r.records.ListByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending tasks: %w", err)
	}

	processing, err := r.records.ListByStatus(ctx, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to list processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, t := range pending {
		r.requeue(t)
	}

	for _, t := range processing {
		err := r.records.Mutate(ctx, t.ID, func(rec *domain.GenerationTask) error {
			rec.Status = domain.TaskStatusPending
			return nil
		})
		if err != nil {
			r.logger.Error("failed to reset interrupted task",
				"task_id", t.ID,
				"error", err)
			continue
		}
		t.Status = domain.TaskStatusPending
		r.requeue(t)
	}

	return nil
}

// requeue places a recovered task back on the queue, bypassing the
// per-owner admission cap so that restarts never strand accepted work.
func (r *Runner) requeue(task *domain.GenerationTask) {
	r.track(task.OwnerID)
	select {
	case r.jobChan <- task:
	default:
		r.release(task.OwnerID)
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", task.ID)
	}
}

// worker processes jobs from the queue.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.jobChan:
			if !ok {
				return
			}
			r.processJob(task, id)
		}
	}
}

// processJob handles execution of a single generation job.
func (r *Runner) processJob(task *domain.GenerationTask, workerID int) {
	jobCtx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	r.mu.Lock()
	r.cancels[task.ID] = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.cancels, task.ID)
		r.mu.Unlock()
		r.release(task.OwnerID)
	}()

	logger := r.logger.With(
		"task_id", task.ID,
		"owner_id", task.OwnerID,
		"worker_id", workerID,
	)

	logger.Info("processing generation job")

	if err := r.executor.Execute(jobCtx, task); err != nil {
		logger.Error("generation job failed", "error", err)
		return
	}

	logger.Info("generation job completed")
}

// cleanupMonitor periodically deletes terminal records older than the
// retention window. Deletion failure is logged, never escalated: a stale
// record is harmless and the next sweep tries again.
func (r *Runner) cleanupMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()
			cutoff := time.Now().UTC().Add(-r.config.RetentionWindow)

			expired, err := r.records.ListTerminalBefore(ctx, cutoff)
			if err != nil {
				r.logger.Error("failed to list expired task records", "error", err)
				continue
			}

			for _, t := range expired {
				if err := r.records.Delete(ctx, t.ID); err != nil {
					r.logger.Error("failed to delete expired task record",
						"task_id", t.ID,
						"error", err)
					continue
				}
				r.logger.Debug("deleted expired task record",
					"task_id", t.ID,
					"status", t.Status)
			}
		}
	}
}

// admit reserves an in-flight slot for the owner, enforcing MaxPerOwner.
func (r *Runner) admit(ownerID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config.MaxPerOwner > 0 && r.inflight[ownerID] >= r.config.MaxPerOwner {
		return false
	}
	r.inflight[ownerID]++
	return true
}

// track reserves a slot without enforcing the cap (used by recovery).
func (r *Runner) track(ownerID uuid.UUID) {
	r.mu.Lock()
	r.inflight[ownerID]++
	r.mu.Unlock()
}

// release frees an owner's in-flight slot.
func (r *Runner) release(ownerID uuid.UUID) {
	r.mu.Lock()
	if r.inflight[ownerID] > 1 {
		r.inflight[ownerID]--
	} else {
		delete(r.inflight, ownerID)
	}
	r.mu.Unlock()
}
