package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizedPlan_Validate(t *testing.T) {
	t.Parallel()

	validPlan := func() *SynthesizedPlan {
		return &SynthesizedPlan{
			Overview: "ninety days to the exam",
			Modules: []PlanModule{
				{Title: "Basics", DurationDays: 5, Order: 1},
				{Title: "Advanced", DurationDays: 5, Order: 2},
			},
			DailyTasks: []DailyTask{
				{ModuleOrder: 1, Day: 1, Title: "Read"},
				{ModuleOrder: 2, Day: 1, Title: "Practice"},
			},
		}
	}

	t.Run("valid plan", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validPlan().Validate())
	})

	t.Run("empty modules", func(t *testing.T) {
		t.Parallel()
		plan := &SynthesizedPlan{Overview: "empty"}
		assert.ErrorIs(t, plan.Validate(), ErrEmptyPlanModules)
	})

	t.Run("dangling daily task", func(t *testing.T) {
		t.Parallel()
		plan := validPlan()
		plan.DailyTasks = append(plan.DailyTasks, DailyTask{ModuleOrder: 9, Day: 1})
		assert.ErrorIs(t, plan.Validate(), ErrDanglingDailyTask)
	})

	t.Run("duplicate module order", func(t *testing.T) {
		t.Parallel()
		plan := validPlan()
		plan.Modules[1].Order = 1
		assert.ErrorIs(t, plan.Validate(), ErrInvalidModuleOrder)
	})

	t.Run("zero duration module", func(t *testing.T) {
		t.Parallel()
		plan := validPlan()
		plan.Modules[0].DurationDays = 0
		assert.ErrorIs(t, plan.Validate(), ErrInvalidDurationDays)
	})
}

func TestSurveyInput_DaysUntilDeadline(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"ninety days out", now.Add(90 * 24 * time.Hour), 90},
		{"partial day rounds up", now.Add(36 * time.Hour), 2},
		{"deadline today", now, 1},
		{"deadline in the past clamps to one", now.Add(-30 * 24 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			survey := SurveyInput{Deadline: tt.deadline}
			assert.Equal(t, tt.want, survey.DaysUntilDeadline(now))
		})
	}
}

func TestSurveyInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*SurveyInput)
		wantErr error
	}{
		{"valid", func(s *SurveyInput) {}, nil},
		{"missing target level", func(s *SurveyInput) { s.TargetLevel = "" }, ErrEmptyTargetLevel},
		{"implausible exam year", func(s *SurveyInput) { s.ExamYear = 1990 }, ErrInvalidExamYear},
		{"zero deadline", func(s *SurveyInput) { s.Deadline = time.Time{} }, ErrZeroDeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			survey := validSurvey()
			tt.mutate(&survey)

			err := survey.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
