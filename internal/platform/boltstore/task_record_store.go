// Package boltstore implements the store.TaskRecordStore interface on an
// embedded bbolt database. One bucket, task ID key, JSON value: records
// survive process restarts, need no external coordinator, and every
// mutation runs inside a bolt update transaction, which gives the
// atomic per-key read-modify-write that keeps the progress heartbeat from
// clobbering a finalized record.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/store"
)

var tasksBucket = []byte("generation_tasks")

// TaskRecordStore is a bbolt-backed implementation of store.TaskRecordStore.
type TaskRecordStore struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the task database at path.
func Open(path string) (*TaskRecordStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open task database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tasksBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tasks bucket: %w", err)
	}

	return &TaskRecordStore{db: db}, nil
}

// Close releases the underlying database.
func (s *TaskRecordStore) Close() error {
	return s.db.Close()
}

// Save creates or fully overwrites the record keyed by its task ID.
func (s *TaskRecordStore) Save(ctx context.Context, task *domain.GenerationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tasksBucket).Put(task.ID[:], data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}
	return nil
}

// Get retrieves the record by task ID.
func (s *TaskRecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	var task *domain.GenerationTask

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(tasksBucket).Get(id[:])
		if data == nil {
			return store.ErrTaskNotFound
		}
		var t domain.GenerationTask
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to unmarshal task record: %w", err)
		}
		task = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Mutate applies fn to the record under a single update transaction.
// If fn returns an error the transaction rolls back and the record is
// left untouched.
func (s *TaskRecordStore) Mutate(ctx context.Context, id uuid.UUID, fn func(*domain.GenerationTask) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tasksBucket)

		data := bucket.Get(id[:])
		if data == nil {
			return store.ErrTaskNotFound
		}

		var task domain.GenerationTask
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("failed to unmarshal task record: %w", err)
		}

		if err := fn(&task); err != nil {
			return err
		}

		updated, err := json.Marshal(&task)
		if err != nil {
			return fmt.Errorf("failed to marshal task record: %w", err)
		}
		return bucket.Put(id[:], updated)
	})
}

// Delete removes the record. A missing record is treated as already clean.
func (s *TaskRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tasksBucket).Delete(id[:])
	})
}

// ListByStatus returns all records currently in the given status.
func (s *TaskRecordStore) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.GenerationTask, error) {
	return s.list(func(t *domain.GenerationTask) bool {
		return t.Status == status
	})
}

// ListTerminalBefore returns terminal records that finished before the
// cutoff. Retention is measured from the finish time, not the start time.
func (s *TaskRecordStore) ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]*domain.GenerationTask, error) {
	return s.list(func(t *domain.GenerationTask) bool {
		return t.Status.IsTerminal() && !t.FinishedAt.IsZero() && t.FinishedAt.Before(cutoff)
	})
}

// list scans the bucket and returns records matching the predicate.
// Task volumes are small (records are retained for a day) so a full scan
// is acceptable.
func (s *TaskRecordStore) list(match func(*domain.GenerationTask) bool) ([]*domain.GenerationTask, error) {
	var tasks []*domain.GenerationTask

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tasksBucket).ForEach(func(k, v []byte) error {
			var t domain.GenerationTask
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("failed to unmarshal task record %x: %w", k, err)
			}
			if match(&t) {
				tasks = append(tasks, &t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
