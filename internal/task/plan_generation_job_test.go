package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/generation"
	"github.com/medtitle/plangen-api/internal/store"
)

// mockPlanRepository implements store.PlanRepository.
type mockPlanRepository struct {
	mu      sync.Mutex
	saveErr error
	saved   []*domain.SynthesizedPlan
	planID  uuid.UUID
}

func newMockPlanRepository() *mockPlanRepository {
	return &mockPlanRepository{planID: uuid.New()}
}

func (r *mockPlanRepository) SavePlan(ctx context.Context, ownerID uuid.UUID, plan *domain.SynthesizedPlan) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return uuid.Nil, r.saveErr
	}
	r.saved = append(r.saved, plan)
	return r.planID, nil
}

func (r *mockPlanRepository) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.StudyPlan, error) {
	return nil, store.ErrPlanNotFound
}

func (r *mockPlanRepository) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSurvey() domain.SurveyInput {
	return domain.SurveyInput{
		TargetLevel: "intermediate_nurse",
		ExamYear:    2027,
		Deadline:    time.Now().Add(90 * 24 * time.Hour),
		Track:       "nursing",
	}
}

func newPendingTask(t *testing.T, records *MockRecordStore) *domain.GenerationTask {
	t.Helper()
	task, err := domain.NewGenerationTask(uuid.New(), testSurvey())
	require.NoError(t, err)
	require.NoError(t, records.Save(context.Background(), task))
	return task
}

func TestNewPlanGenerationJob(t *testing.T) {
	t.Parallel()

	records := NewMockRecordStore()
	engine := generation.NewEngine(nil, testLogger())
	plans := newMockPlanRepository()

	t.Run("nil dependencies rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewPlanGenerationJob(nil, engine, plans, 0, 0, testLogger())
		assert.ErrorIs(t, err, ErrNilRecordStore)

		_, err = NewPlanGenerationJob(records, nil, plans, 0, 0, testLogger())
		assert.ErrorIs(t, err, ErrNilEngine)

		_, err = NewPlanGenerationJob(records, engine, nil, 0, 0, testLogger())
		assert.ErrorIs(t, err, ErrNilPlanRepo)

		_, err = NewPlanGenerationJob(records, engine, plans, 0, 0, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("zero durations get defaults", func(t *testing.T) {
		t.Parallel()

		job, err := NewPlanGenerationJob(records, engine, plans, 0, 0, testLogger())
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, job.estimatedDuration)
		assert.Equal(t, 5*time.Second, job.heartbeatInterval)
	})
}

func TestPlanGenerationJob_Execute(t *testing.T) {
	t.Parallel()

	t.Run("success finalizes record with result", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			time.Minute, time.Minute, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		require.NoError(t, job.Execute(context.Background(), task))

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.Equal(t, 100, got.Progress)
		require.NotNil(t, got.ResultID)
		assert.Equal(t, plans.planID, *got.ResultID)
		assert.Equal(t, 1, plans.savedCount())
	})

	t.Run("persistence failure marks task failed", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		plans.saveErr = errors.New("database down")
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			time.Minute, time.Minute, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		execErr := job.Execute(context.Background(), task)
		require.Error(t, execErr)

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusFailed, got.Status)
		assert.Contains(t, got.Error, "database down")
		assert.Nil(t, got.ResultID)
	})

	t.Run("already terminal task is skipped", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			time.Minute, time.Minute, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		resultID := uuid.New()
		require.NoError(t, records.Mutate(context.Background(), task.ID, func(rec *domain.GenerationTask) error {
			if err := rec.MarkProcessing(); err != nil {
				return err
			}
			return rec.Complete(resultID)
		}))

		require.NoError(t, job.Execute(context.Background(), task))

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.Equal(t, resultID, *got.ResultID)
		assert.Equal(t, 0, plans.savedCount())
	})

	t.Run("cancelled context marks task failed", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			time.Minute, time.Minute, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		execErr := job.Execute(ctx, task)
		require.Error(t, execErr)

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusFailed, got.Status)
	})
}

func TestPlanGenerationJob_Heartbeat(t *testing.T) {
	t.Parallel()

	t.Run("progress advances while processing", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			100*time.Millisecond, 10*time.Millisecond, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		require.NoError(t, records.Mutate(context.Background(), task.ID, func(rec *domain.GenerationTask) error {
			return rec.MarkProcessing()
		}))

		stop := job.startHeartbeat(context.Background(), task, testLogger())
		defer stop()

		require.Eventually(t, func() bool {
			got, err := records.Get(context.Background(), task.ID)
			return err == nil && got.Progress > 0
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("heartbeat never exceeds ninety", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			10*time.Millisecond, 5*time.Millisecond, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		require.NoError(t, records.Mutate(context.Background(), task.ID, func(rec *domain.GenerationTask) error {
			return rec.MarkProcessing()
		}))

		stop := job.startHeartbeat(context.Background(), task, testLogger())

		require.Eventually(t, func() bool {
			got, err := records.Get(context.Background(), task.ID)
			return err == nil && got.Progress == progressCeiling
		}, time.Second, 5*time.Millisecond)
		stop()

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, progressCeiling, got.Progress)
	})

	t.Run("heartbeat does not clobber a finalized record", func(t *testing.T) {
		t.Parallel()

		records := NewMockRecordStore()
		plans := newMockPlanRepository()
		job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), plans,
			50*time.Millisecond, 5*time.Millisecond, testLogger())
		require.NoError(t, err)

		task := newPendingTask(t, records)
		require.NoError(t, records.Mutate(context.Background(), task.ID, func(rec *domain.GenerationTask) error {
			return rec.MarkProcessing()
		}))

		stop := job.startHeartbeat(context.Background(), task, testLogger())
		defer stop()

		resultID := uuid.New()
		require.NoError(t, records.Mutate(context.Background(), task.ID, func(rec *domain.GenerationTask) error {
			return rec.Complete(resultID)
		}))

		// Give the ticker a few more cycles to (incorrectly) write.
		time.Sleep(30 * time.Millisecond)

		got, err := records.Get(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.Equal(t, 100, got.Progress)
	})
}

func TestHeuristicProgress(t *testing.T) {
	t.Parallel()

	records := NewMockRecordStore()
	job, err := NewPlanGenerationJob(records, generation.NewEngine(nil, testLogger()), newMockPlanRepository(),
		100*time.Second, time.Second, testLogger())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just started", 0, 0},
		{"halfway through the estimate", 50 * time.Second, 50},
		{"estimate reached caps at ceiling", 100 * time.Second, progressCeiling},
		{"far past the estimate stays at ceiling", time.Hour, progressCeiling},
		{"clock skew clamps to zero", -10 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := *job
			job.now = func() time.Time { return base.Add(tt.elapsed) }
			assert.Equal(t, tt.want, job.heuristicProgress(base))
		})
	}
}
