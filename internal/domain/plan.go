package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for SynthesizedPlan
var (
	ErrEmptyPlanModules    = errors.New("plan must contain at least one module")
	ErrDanglingDailyTask   = errors.New("daily task references a module order that does not exist")
	ErrInvalidModuleOrder  = errors.New("module order must be positive and unique")
	ErrInvalidDurationDays = errors.New("module duration must be at least one day")
)

// PlanModule is one ordered unit of study within a plan.
type PlanModule struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ImportanceScore float64 `json:"importance_score"`
	DifficultyScore float64 `json:"difficulty_score"`
	DurationDays    int     `json:"duration_days"`
	Order           int     `json:"order"`
}

// DailyTask is a single day's assignment, grouped under its owning module
// by ModuleOrder.
type DailyTask struct {
	ModuleOrder      int    `json:"module_order"`
	Day              int    `json:"day"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Content          string `json:"content"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// SynthesizedPlan is the structured study plan produced by the synthesis
// engine. It is transient: once produced it is handed to the plan
// repository, which owns its durable identity.
type SynthesizedPlan struct {
	Overview   string       `json:"overview"`
	Modules    []PlanModule `json:"modules"`
	DailyTasks []DailyTask  `json:"daily_tasks"`
}

// Validate checks the plan's structural invariants: a non-empty ordered
// module list with positive unique orders and durations, and every daily
// task resolving to an existing module.
func (p *SynthesizedPlan) Validate() error {
	if len(p.Modules) == 0 {
		return ErrEmptyPlanModules
	}

	orders := make(map[int]bool, len(p.Modules))
	for i, m := range p.Modules {
		if m.Order <= 0 || orders[m.Order] {
			return fmt.Errorf("%w: module %d has order %d", ErrInvalidModuleOrder, i, m.Order)
		}
		if m.DurationDays < 1 {
			return fmt.Errorf("%w: module %q", ErrInvalidDurationDays, m.Title)
		}
		orders[m.Order] = true
	}

	for i, t := range p.DailyTasks {
		if !orders[t.ModuleOrder] {
			return fmt.Errorf("%w: daily task %d references order %d", ErrDanglingDailyTask, i, t.ModuleOrder)
		}
	}

	return nil
}

// StudyPlan is a persisted plan as read back from the repository: the
// synthesized content plus the durable identity clients resolve result IDs
// against.
type StudyPlan struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	CreatedAt time.Time       `json:"created_at"`
	Plan      SynthesizedPlan `json:"plan"`
}

// TotalDays returns the sum of module durations. The synthesis engine uses
// it to report how much of the available horizon a plan consumes; it is not
// hard-reconciled against the deadline.
func (p *SynthesizedPlan) TotalDays() int {
	total := 0
	for _, m := range p.Modules {
		total += m.DurationDays
	}
	return total
}
