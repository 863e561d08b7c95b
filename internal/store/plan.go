package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/medtitle/plangen-api/internal/domain"
)

// PlanRepository defines the interface for the relational persistence of
// synthesized plans. A successful save returns the plan's durable
// identity, which the task record exposes to clients as the result ID.
type PlanRepository interface {
	// SavePlan persists the plan and its modules and daily tasks for the
	// given owner, returning the generated plan ID.
	SavePlan(ctx context.Context, ownerID uuid.UUID, plan *domain.SynthesizedPlan) (uuid.UUID, error)

	// GetPlan loads a persisted plan by its ID.
	// Returns ErrPlanNotFound when no such plan exists.
	GetPlan(ctx context.Context, planID uuid.UUID) (*domain.StudyPlan, error)
}

// OwnerDirectory confirms the existence of plan owners. Submission is
// rejected before any task record is created when the owner is unknown.
type OwnerDirectory interface {
	// OwnerExists reports whether the owner is registered.
	// Returns ErrOwnerNotFound when the owner is unknown.
	OwnerExists(ctx context.Context, ownerID uuid.UUID) error
}
