package domain

import (
	"errors"
	"math"
	"time"
)

// Common validation errors for SurveyInput
var (
	ErrEmptyTargetLevel = errors.New("survey target level cannot be empty")
	ErrInvalidExamYear  = errors.New("survey exam year must be a plausible calendar year")
	ErrZeroDeadline     = errors.New("survey deadline cannot be zero")
)

// SurveyInput is the questionnaire payload a candidate submits to request
// a study plan. It captures the exam they are preparing for and the time
// they have to prepare.
type SurveyInput struct {
	// TargetLevel is the professional title the candidate is sitting for,
	// e.g. "junior_nurse" or "intermediate_physician".
	TargetLevel string `json:"target_level"`

	// ExamYear is the calendar year of the target exam session.
	ExamYear int `json:"exam_year"`

	// Deadline is the date the plan must be completed by, normally the
	// exam date itself.
	Deadline time.Time `json:"deadline"`

	// Track is the candidate's professional track (e.g. "nursing",
	// "clinical_medicine"). Optional; used to pick fallback topics.
	Track string `json:"track,omitempty"`

	// DailyStudyMinutes is how long the candidate can study per day.
	// Optional; zero means unspecified.
	DailyStudyMinutes int `json:"daily_study_minutes,omitempty"`
}

// Validate checks that the survey carries the minimum required fields:
// a target level, an exam year and a deadline.
func (s SurveyInput) Validate() error {
	if s.TargetLevel == "" {
		return ErrEmptyTargetLevel
	}
	if s.ExamYear < 2000 || s.ExamYear > 2200 {
		return ErrInvalidExamYear
	}
	if s.Deadline.IsZero() {
		return ErrZeroDeadline
	}
	return nil
}

// DaysUntilDeadline returns the number of whole days between now and the
// survey deadline, rounded up and clamped to at least 1 so downstream
// sizing arithmetic never divides by zero or goes negative, even when the
// deadline is already in the past.
func (s SurveyInput) DaysUntilDeadline(now time.Time) int {
	days := int(math.Ceil(s.Deadline.Sub(now).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
