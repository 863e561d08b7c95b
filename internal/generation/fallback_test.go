package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtitle/plangen-api/internal/domain"
)

func TestFallback(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("produces a structurally valid plan", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "intermediate_nurse",
			ExamYear:    2026,
			Deadline:    now.Add(60 * 24 * time.Hour),
			Track:       "nursing",
		}

		plan := Fallback(survey, now)

		require.NoError(t, plan.Validate())
		assert.NotEmpty(t, plan.Overview)
		assert.NotEmpty(t, plan.Modules)
		assert.NotEmpty(t, plan.DailyTasks)
	})

	t.Run("caps module count at five", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "junior_pharmacist",
			ExamYear:    2026,
			Deadline:    now.Add(200 * 24 * time.Hour),
			Track:       "pharmacy",
		}

		plan := Fallback(survey, now)
		assert.LessOrEqual(t, len(plan.Modules), 5)
	})

	t.Run("module days clamped between three and seven", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			horizon  time.Duration
			wantDays int
		}{
			{"short horizon hits floor", 5 * 24 * time.Hour, 3},
			{"long horizon hits ceiling", 300 * 24 * time.Hour, 7},
			{"mid horizon scales", 25 * 24 * time.Hour, 5},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				survey := domain.SurveyInput{
					TargetLevel: "junior_nurse",
					ExamYear:    2026,
					Deadline:    now.Add(tt.horizon),
				}

				plan := Fallback(survey, now)
				for _, m := range plan.Modules {
					assert.Equal(t, tt.wantDays, m.DurationDays)
				}
			})
		}
	})

	t.Run("deadline in the past still yields positive durations", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "junior_nurse",
			ExamYear:    2025,
			Deadline:    now.Add(-10 * 24 * time.Hour),
		}

		plan := Fallback(survey, now)

		require.NoError(t, plan.Validate())
		require.NotEmpty(t, plan.Modules)
		for _, m := range plan.Modules {
			assert.Positive(t, m.DurationDays)
		}
		assert.Contains(t, plan.Overview, "1-day")
	})

	t.Run("every module gets two or three daily tasks", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "intermediate_nurse",
			ExamYear:    2026,
			Deadline:    now.Add(60 * 24 * time.Hour),
			Track:       "nursing",
		}

		plan := Fallback(survey, now)

		perModule := make(map[int]int)
		for _, dt := range plan.DailyTasks {
			perModule[dt.ModuleOrder]++
			assert.Equal(t, 60, dt.EstimatedMinutes)
		}
		for _, m := range plan.Modules {
			count := perModule[m.Order]
			assert.GreaterOrEqual(t, count, 2)
			assert.LessOrEqual(t, count, 3)
		}
	})

	t.Run("unknown track uses generic topics", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "junior_technician",
			ExamYear:    2026,
			Deadline:    now.Add(60 * 24 * time.Hour),
			Track:       "radiology",
		}

		plan := Fallback(survey, now)
		require.NotEmpty(t, plan.Modules)
		assert.Equal(t, "Core Theory Review", plan.Modules[0].Title)
	})

	t.Run("overview restates horizon and target level", func(t *testing.T) {
		t.Parallel()

		survey := domain.SurveyInput{
			TargetLevel: "intermediate_physician",
			ExamYear:    2027,
			Deadline:    now.Add(45 * 24 * time.Hour),
		}

		plan := Fallback(survey, now)
		assert.Contains(t, plan.Overview, "45-day")
		assert.Contains(t, plan.Overview, "intermediate_physician")
		assert.Contains(t, plan.Overview, "2027")
	})
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, clamp(3, 7, 1))
	assert.Equal(t, 7, clamp(3, 7, 10))
	assert.Equal(t, 5, clamp(3, 7, 5))
}
