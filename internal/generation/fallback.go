package generation

import (
	"fmt"
	"time"

	"github.com/medtitle/plangen-api/internal/domain"
)

// Module sizing bounds for fallback synthesis.
const (
	fallbackMinModuleDays = 3
	fallbackMaxModuleDays = 7
	fallbackMaxModules    = 5

	// fallbackTaskMinutes is the fixed estimate attached to every
	// generated daily task.
	fallbackTaskMinutes = 60
)

// trackTopics maps professional tracks to their core exam topics. Tracks
// not listed here get the generic list.
var trackTopics = map[string][]string{
	"nursing": {
		"Basic Nursing Theory",
		"Internal Medicine Nursing",
		"Surgical Nursing",
		"Pharmacology and Medication Safety",
		"Obstetric and Pediatric Nursing",
	},
	"clinical_medicine": {
		"Diagnostics and Physical Examination",
		"Internal Medicine",
		"Surgery",
		"Pharmacology",
		"Infectious Diseases",
	},
	"pharmacy": {
		"Pharmaceutical Chemistry",
		"Pharmacology",
		"Pharmaceutical Analysis",
		"Clinical Pharmacy Practice",
		"Regulations and Ethics",
	},
}

var genericTopics = []string{
	"Core Theory Review",
	"Professional Knowledge",
	"Applied Practice",
	"Case Analysis",
	"Exam Technique and Mock Tests",
}

// Fallback synthesizes a study plan deterministically, without any model
// call. It is the engine's last line of defense: for any valid survey it
// must produce a structurally valid plan and never fail.
//
// Sizing: each module gets clamp(3, 7, totalDays/5) days, the module count
// is capped at 5, and each module carries two to three generic daily tasks.
func Fallback(survey domain.SurveyInput, now time.Time) *domain.SynthesizedPlan {
	totalDays := survey.DaysUntilDeadline(now)

	moduleDays := clamp(fallbackMinModuleDays, fallbackMaxModuleDays, totalDays/5)

	topics := trackTopics[survey.Track]
	if len(topics) == 0 {
		topics = genericTopics
	}

	moduleCount := len(topics)
	if moduleCount > fallbackMaxModules {
		moduleCount = fallbackMaxModules
	}

	plan := &domain.SynthesizedPlan{
		Overview: fmt.Sprintf(
			"A %d-day preparation plan for the %d %s exam, covering %d core areas in order of importance. Work through each module's daily tasks and close with review.",
			totalDays, survey.ExamYear, survey.TargetLevel, moduleCount),
	}

	for i := 0; i < moduleCount; i++ {
		order := i + 1
		topic := topics[i]

		plan.Modules = append(plan.Modules, domain.PlanModule{
			Title:           topic,
			Description:     fmt.Sprintf("Systematic study of %s with emphasis on frequently examined points.", topic),
			ImportanceScore: float64(moduleCount-i) / float64(moduleCount),
			DifficultyScore: 0.5,
			DurationDays:    moduleDays,
			Order:           order,
		})

		plan.DailyTasks = append(plan.DailyTasks, dailyTasksForModule(order, topic, moduleDays)...)
	}

	return plan
}

// dailyTasksForModule produces the generic task set for one module: learn,
// practice, and (when the module is long enough) review.
func dailyTasksForModule(order int, topic string, moduleDays int) []domain.DailyTask {
	tasks := []domain.DailyTask{
		{
			ModuleOrder:      order,
			Day:              1,
			Title:            fmt.Sprintf("Study the fundamentals of %s", topic),
			Description:      "Read the syllabus chapters for this area and outline the key concepts.",
			Content:          fmt.Sprintf("Work through the core material for %s, noting definitions and high-yield facts.", topic),
			EstimatedMinutes: fallbackTaskMinutes,
		},
		{
			ModuleOrder:      order,
			Day:              2,
			Title:            fmt.Sprintf("Practice questions on %s", topic),
			Description:      "Complete a timed question set and record every miss.",
			Content:          fmt.Sprintf("Answer practice questions covering %s and revisit the explanations for incorrect answers.", topic),
			EstimatedMinutes: fallbackTaskMinutes,
		},
	}

	if moduleDays >= fallbackMinModuleDays+1 {
		tasks = append(tasks, domain.DailyTask{
			ModuleOrder:      order,
			Day:              3,
			Title:            fmt.Sprintf("Review and consolidate %s", topic),
			Description:      "Summarize weak points found during practice.",
			Content:          fmt.Sprintf("Rework missed questions on %s and condense notes into a one-page summary.", topic),
			EstimatedMinutes: fallbackTaskMinutes,
		})
	}

	return tasks
}

// clamp bounds v to [lo, hi].
func clamp(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
