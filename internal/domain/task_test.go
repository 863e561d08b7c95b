package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSurvey() SurveyInput {
	return SurveyInput{
		TargetLevel: "intermediate_nurse",
		ExamYear:    2027,
		Deadline:    time.Now().Add(90 * 24 * time.Hour),
		Track:       "nursing",
	}
}

func TestNewGenerationTask(t *testing.T) {
	t.Parallel()

	t.Run("creates pending task", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		task, err := NewGenerationTask(ownerID, validSurvey())

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, ownerID, task.OwnerID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, 0, task.Progress)
		assert.False(t, task.StartedAt.IsZero())
		assert.Nil(t, task.ResultID)
		assert.Empty(t, task.Error)
	})

	t.Run("rejects nil owner", func(t *testing.T) {
		t.Parallel()

		_, err := NewGenerationTask(uuid.Nil, validSurvey())
		assert.ErrorIs(t, err, ErrEmptyTaskOwnerID)
	})

	t.Run("rejects invalid survey", func(t *testing.T) {
		t.Parallel()

		survey := validSurvey()
		survey.TargetLevel = ""
		_, err := NewGenerationTask(uuid.New(), survey)
		assert.ErrorIs(t, err, ErrEmptyTargetLevel)
	})

	t.Run("task IDs are unique", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		seen := make(map[uuid.UUID]bool)
		for i := 0; i < 100; i++ {
			task, err := NewGenerationTask(ownerID, validSurvey())
			require.NoError(t, err)
			assert.False(t, seen[task.ID])
			seen[task.ID] = true
		}
	})
}

func TestGenerationTask_ProgressMonotonic(t *testing.T) {
	t.Parallel()

	task, err := NewGenerationTask(uuid.New(), validSurvey())
	require.NoError(t, err)
	require.NoError(t, task.MarkProcessing())

	require.NoError(t, task.AdvanceProgress(30))
	assert.Equal(t, 30, task.Progress)

	err = task.AdvanceProgress(20)
	assert.ErrorIs(t, err, ErrProgressNotMonotonic)
	assert.Equal(t, 30, task.Progress)

	require.NoError(t, task.AdvanceProgress(120))
	assert.Equal(t, 100, task.Progress)
}

func TestGenerationTask_TerminalImmutability(t *testing.T) {
	t.Parallel()

	t.Run("completed task never changes", func(t *testing.T) {
		t.Parallel()

		task, err := NewGenerationTask(uuid.New(), validSurvey())
		require.NoError(t, err)
		require.NoError(t, task.MarkProcessing())

		resultID := uuid.New()
		assert.True(t, task.FinishedAt.IsZero())
		require.NoError(t, task.Complete(resultID))

		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, 100, task.Progress)
		require.NotNil(t, task.ResultID)
		assert.Equal(t, resultID, *task.ResultID)
		assert.False(t, task.FinishedAt.IsZero())

		assert.ErrorIs(t, task.Fail("too late"), ErrTaskTerminal)
		assert.ErrorIs(t, task.Complete(uuid.New()), ErrTaskTerminal)
		assert.ErrorIs(t, task.AdvanceProgress(99), ErrTaskTerminal)
		assert.ErrorIs(t, task.MarkProcessing(), ErrTaskTerminal)

		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, resultID, *task.ResultID)
	})

	t.Run("failed task carries error and no result", func(t *testing.T) {
		t.Parallel()

		task, err := NewGenerationTask(uuid.New(), validSurvey())
		require.NoError(t, err)
		require.NoError(t, task.MarkProcessing())
		require.NoError(t, task.Fail("persistence exploded"))

		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, "persistence exploded", task.Error)
		assert.Nil(t, task.ResultID)
		assert.False(t, task.FinishedAt.IsZero())

		assert.ErrorIs(t, task.Complete(uuid.New()), ErrTaskTerminal)
		assert.Equal(t, TaskStatusFailed, task.Status)
	})
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusProcessing.IsTerminal())
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
}
