package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medtitle/plangen-api/internal/domain"
)

// TaskRecordStore defines the interface for persisting generation task
// records. Implementations must be durable across process restarts and
// safe to call from detached background jobs that outlive the request
// which created the record.
type TaskRecordStore interface {
	// Save creates or fully overwrites the record keyed by its task ID.
	Save(ctx context.Context, task *domain.GenerationTask) error

	// Get retrieves the record by task ID.
	// Returns ErrTaskNotFound if no record exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error)

	// Mutate applies fn to the current record under an atomic
	// read-modify-write, persisting the result. If fn returns an error the
	// record is left untouched and the error is returned. This is the
	// single-writer discipline that keeps the progress heartbeat from
	// clobbering a finalized record.
	// Returns ErrTaskNotFound if no record exists.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*domain.GenerationTask) error) error

	// Delete removes the record. Deleting a record that does not exist is
	// treated as already clean and returns nil.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByStatus returns all records currently in the given status.
	// Used at startup to recover jobs interrupted by a crash.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.GenerationTask, error)

	// ListTerminalBefore returns terminal records whose FinishedAt is before
	// the cutoff. Used by retention cleanup, so the retention window starts
	// when a task finishes, not when it was submitted.
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]*domain.GenerationTask, error)
}
