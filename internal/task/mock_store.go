package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/store"
)

// MockRecordStore is an in-memory implementation of store.TaskRecordStore
// for testing. Mutations run under a single lock, matching the atomic
// read-modify-write contract of real implementations. Individual
// operations can be overridden via the *Fn fields.
type MockRecordStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.GenerationTask

	SaveFn   func(ctx context.Context, task *domain.GenerationTask) error
	GetFn    func(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error)
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

// NewMockRecordStore creates an empty in-memory record store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		tasks: make(map[uuid.UUID]*domain.GenerationTask),
	}
}

// Save stores a copy of the record.
func (s *MockRecordStore) Save(ctx context.Context, task *domain.GenerationTask) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, task)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

// Get returns a copy of the record.
func (s *MockRecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

// Mutate applies fn under the store lock.
func (s *MockRecordStore) Mutate(ctx context.Context, id uuid.UUID, fn func(*domain.GenerationTask) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	copied := *t
	if err := fn(&copied); err != nil {
		return err
	}
	s.tasks[id] = &copied
	return nil
}

// Delete removes the record; missing records are already clean.
func (s *MockRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

// ListByStatus returns copies of records in the given status.
func (s *MockRecordStore) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.GenerationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GenerationTask
	for _, t := range s.tasks {
		if t.Status == status {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ListTerminalBefore returns copies of terminal records that finished
// before cutoff.
func (s *MockRecordStore) ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]*domain.GenerationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GenerationTask
	for _, t := range s.tasks {
		if t.Status.IsTerminal() && !t.FinishedAt.IsZero() && t.FinishedAt.Before(cutoff) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Len reports how many records the store holds.
func (s *MockRecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
