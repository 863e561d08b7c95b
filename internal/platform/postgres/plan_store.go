// Package postgres provides PostgreSQL-backed implementations of the
// relational persistence interfaces: the plan repository and the owner
// directory.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/platform/logger"
	"github.com/medtitle/plangen-api/internal/store"
)

// PostgresPlanStore implements the store.PlanRepository interface using
// PostgreSQL. A plan and its modules and daily tasks are written in a
// single transaction so a crash never leaves a half-persisted plan behind.
type PostgresPlanStore struct {
	db *sql.DB
}

// NewPostgresPlanStore creates a new PostgresPlanStore.
func NewPostgresPlanStore(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{db: db}
}

// SavePlan persists the plan, returning its generated ID.
func (s *PostgresPlanStore) SavePlan(ctx context.Context, ownerID uuid.UUID, plan *domain.SynthesizedPlan) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	planID := uuid.New()
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO study_plans (id, owner_id, overview, created_at)
		VALUES ($1, $2, $3, $4)
	`, planID, ownerID, plan.Overview, now)
	if err != nil {
		log.Error("failed to insert study plan",
			"owner_id", ownerID,
			"error", err)
		return uuid.Nil, fmt.Errorf("failed to insert study plan: %w", err)
	}

	for _, m := range plan.Modules {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_modules
				(id, plan_id, title, description, importance_score, difficulty_score, duration_days, module_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), planID, m.Title, m.Description, m.ImportanceScore, m.DifficultyScore, m.DurationDays, m.Order)
		if err != nil {
			log.Error("failed to insert plan module",
				"plan_id", planID,
				"module_order", m.Order,
				"error", err)
			return uuid.Nil, fmt.Errorf("failed to insert plan module: %w", err)
		}
	}

	for _, t := range plan.DailyTasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_daily_tasks
				(id, plan_id, module_order, day, title, description, content, estimated_minutes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), planID, t.ModuleOrder, t.Day, t.Title, t.Description, t.Content, t.EstimatedMinutes)
		if err != nil {
			log.Error("failed to insert daily task",
				"plan_id", planID,
				"module_order", t.ModuleOrder,
				"day", t.Day,
				"error", err)
			return uuid.Nil, fmt.Errorf("failed to insert daily task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit plan: %w", err)
	}

	log.Info("study plan persisted",
		"plan_id", planID,
		"owner_id", ownerID,
		"modules", len(plan.Modules),
		"daily_tasks", len(plan.DailyTasks))

	return planID, nil
}

// GetPlan loads a persisted plan with its modules and daily tasks.
func (s *PostgresPlanStore) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.StudyPlan, error) {
	result := &domain.StudyPlan{ID: planID}

	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id, overview, created_at
		FROM study_plans
		WHERE id = $1
	`, planID).Scan(&result.OwnerID, &result.Plan.Overview, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to query study plan: %w", err)
	}

	moduleRows, err := s.db.QueryContext(ctx, `
		SELECT title, description, importance_score, difficulty_score, duration_days, module_order
		FROM plan_modules
		WHERE plan_id = $1
		ORDER BY module_order
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan modules: %w", err)
	}
	defer func() {
		_ = moduleRows.Close()
	}()

	for moduleRows.Next() {
		var m domain.PlanModule
		if err := moduleRows.Scan(&m.Title, &m.Description, &m.ImportanceScore, &m.DifficultyScore, &m.DurationDays, &m.Order); err != nil {
			return nil, fmt.Errorf("failed to scan plan module: %w", err)
		}
		result.Plan.Modules = append(result.Plan.Modules, m)
	}
	if err := moduleRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan modules: %w", err)
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT module_order, day, title, description, content, estimated_minutes
		FROM plan_daily_tasks
		WHERE plan_id = $1
		ORDER BY module_order, day
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily tasks: %w", err)
	}
	defer func() {
		_ = taskRows.Close()
	}()

	for taskRows.Next() {
		var t domain.DailyTask
		if err := taskRows.Scan(&t.ModuleOrder, &t.Day, &t.Title, &t.Description, &t.Content, &t.EstimatedMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan daily task: %w", err)
		}
		result.Plan.DailyTasks = append(result.Plan.DailyTasks, t)
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily tasks: %w", err)
	}

	return result, nil
}
