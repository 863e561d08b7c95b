package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/medtitle/plangen-api/internal/domain"
)

// Engine wraps a Generator with deterministic fallback synthesis so that
// Synthesize always produces a plan. Upstream failures and exhausted parse
// recovery are absorbed here; they never surface to the caller as errors.
type Engine struct {
	generator Generator
	logger    *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine creates a synthesis engine around the given generator.
// A nil generator is allowed and means fallback-only operation (useful
// when no API key is configured).
func NewEngine(generator Generator, logger *slog.Logger) *Engine {
	return &Engine{
		generator: generator,
		logger:    logger.With("component", "synthesis_engine"),
		now:       time.Now,
	}
}

// Synthesize produces a study plan for the survey. It first asks the
// underlying generator; if the generator fails for any reason, or returns
// a plan that does not hold the structural invariants, the engine falls
// back to deterministic synthesis. The returned plan is always valid.
func (e *Engine) Synthesize(ctx context.Context, survey domain.SurveyInput) *domain.SynthesizedPlan {
	if e.generator != nil {
		plan, err := e.generator.Synthesize(ctx, survey)
		if err == nil {
			if verr := plan.Validate(); verr == nil {
				e.logger.InfoContext(ctx, "plan synthesized from model output",
					"modules", len(plan.Modules),
					"daily_tasks", len(plan.DailyTasks))
				return plan
			} else {
				err = verr
			}
		}

		e.logger.WarnContext(ctx, "model synthesis failed, using fallback plan",
			"error", err,
			"target_level", survey.TargetLevel)
	} else {
		e.logger.InfoContext(ctx, "no generator configured, using fallback plan")
	}

	plan := Fallback(survey, e.now())
	e.logger.InfoContext(ctx, "fallback plan synthesized",
		"modules", len(plan.Modules),
		"daily_tasks", len(plan.DailyTasks))
	return plan
}
