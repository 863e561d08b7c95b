// Package poll implements the client-side status polling protocol: a
// fixed-interval loop that observes a generation task until it reaches a
// terminal state or the status endpoint degrades.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/service"
)

// Default polling parameters.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxFailures = 5
)

// StatusReader fetches the current status of a generation task.
type StatusReader interface {
	GetStatus(ctx context.Context, taskID uuid.UUID) (*service.StatusSnapshot, error)
}

// Observer receives what the poller sees. Exactly one terminal callback
// (OnCompleted, OnFailed, or OnUnavailable) is delivered per Start.
type Observer interface {
	// OnProgress reports the latest observed progress value.
	OnProgress(progress int)

	// OnCompleted reports successful generation with the plan's result ID.
	OnCompleted(resultID uuid.UUID)

	// OnFailed reports that generation itself failed.
	OnFailed(reason string)

	// OnUnavailable reports that the status endpoint could not be reached
	// for several consecutive attempts. This is distinct from OnFailed so
	// the caller can suggest retrying rather than show a bogus
	// generation error.
	OnUnavailable()
}

// Config holds poller tuning knobs.
type Config struct {
	// Interval between polls. Defaults to 5 seconds.
	Interval time.Duration

	// MaxFailures is the number of consecutive transport failures after
	// which the poller gives up as degraded. Defaults to 5.
	MaxFailures int
}

// Poller polls one task's status until terminal or degraded.
type Poller struct {
	taskID   uuid.UUID
	reader   StatusReader
	observer Observer
	config   Config
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewPoller creates a poller for the given task.
func NewPoller(taskID uuid.UUID, reader StatusReader, observer Observer, config Config, logger *slog.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultMaxFailures
	}

	return &Poller{
		taskID:   taskID,
		reader:   reader,
		observer: observer,
		config:   config,
		logger:   logger.With("component", "status_poller", "task_id", taskID),
	}
}

// Start begins polling: once immediately, then on every interval tick.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx)
}

// Stop cancels polling. It is idempotent and safe to call from observer
// callbacks or any goroutine; it does not cancel the server-side job.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the polling loop has exited. Useful in tests and in
// callers that want to join on the terminal callback.
func (p *Poller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// loop is the polling loop body.
func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	failures := 0

	for {
		if terminal := p.pollOnce(ctx, &failures); terminal {
			p.Stop()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce performs a single status fetch, pushes what it learned to the
// observer, and reports whether polling should stop.
func (p *Poller) pollOnce(ctx context.Context, failures *int) bool {
	snapshot, err := p.reader.GetStatus(ctx, p.taskID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}

		*failures++
		p.logger.Warn("status poll failed",
			"error", err,
			"consecutive_failures", *failures)

		if *failures >= p.config.MaxFailures {
			p.logger.Error("status endpoint degraded, giving up",
				"consecutive_failures", *failures)
			p.observer.OnUnavailable()
			return true
		}
		return false
	}

	*failures = 0
	p.observer.OnProgress(snapshot.Progress)

	switch snapshot.Status {
	case domain.TaskStatusCompleted:
		if snapshot.ResultID != nil {
			p.observer.OnCompleted(*snapshot.ResultID)
		} else {
			// A completed record always carries its result ID; treat a
			// violation as a failed generation.
			p.observer.OnFailed("completed without result")
		}
		return true

	case domain.TaskStatusFailed:
		p.observer.OnFailed(snapshot.Error)
		return true
	}

	return false
}
