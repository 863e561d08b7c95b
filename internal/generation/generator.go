package generation

import (
	"context"

	"github.com/medtitle/plangen-api/internal/domain"
)

// Generator defines the interface for producing a study plan from survey
// input. This interface serves as a boundary between the application core
// and external AI/LLM services, following the hexagonal architecture pattern.
//
// Implementations may fail: an upstream call can time out or return
// garbage. Callers that must always end up with a plan should go through
// Engine, which layers the deterministic fallback on top.
type Generator interface {
	// Synthesize produces a structured study plan for the given survey.
	//
	// Returns ErrUpstreamFailure when the model call itself fails and
	// ErrInvalidResponse when the model's output survives no recovery
	// strategy. Either way no plan is returned.
	Synthesize(ctx context.Context, survey domain.SurveyInput) (*domain.SynthesizedPlan, error)
}
