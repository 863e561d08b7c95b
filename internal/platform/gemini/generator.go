package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/medtitle/plangen-api/internal/config"
	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/generation"
	"google.golang.org/genai"
)

// promptTemplate instructs the model to emit the plan document as JSON.
// The exact wording is not load-bearing; the parse recovery chain carries
// the burden of extracting a usable document from whatever comes back.
const promptTemplate = `You are an exam-preparation planner for medical professional title exams.

Create a study plan for a candidate with this profile:
- Target title level: {{.TargetLevel}}
- Exam year: {{.ExamYear}}
- Professional track: {{if .Track}}{{.Track}}{{else}}general{{end}}
- Days available until the deadline: {{.TotalDays}}
{{if .DailyStudyMinutes}}- Minutes available per day: {{.DailyStudyMinutes}}{{end}}

Respond with a single JSON object and nothing else, in this shape:
{
  "overview": "...",
  "modules": [
    {"title": "...", "description": "...", "importance_score": 0.9, "difficulty_score": 0.5, "duration_days": 5, "order": 1}
  ],
  "daily_tasks": [
    {"module_order": 1, "day": 1, "title": "...", "description": "...", "content": "...", "estimated_minutes": 60}
  ]
}

Every daily task's module_order must match a module's order, and the total
of all duration_days should fit within the available days.`

// promptData carries the template inputs.
type promptData struct {
	TargetLevel       string
	ExamYear          int
	Track             string
	TotalDays         int
	DailyStudyMinutes int
}

// Generator implements the generation.Generator interface using Google's
// Gemini API to synthesize study plans from survey input.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig

	promptTemplate *template.Template
	client         *genai.Client
	model          string

	// now is injectable for tests.
	now func() time.Time
}

// NewGenerator creates a new Gemini-backed generator with the provided
// dependencies.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := template.New("plan").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With("component", "gemini_generator"),
		config:         cfg,
		promptTemplate: tmpl,
		client:         client,
		model:          cfg.ModelName,
		now:            time.Now,
	}, nil
}

// Synthesize produces a study plan by calling the Gemini API and running
// the response through the parse recovery chain.
//
// All upstream failure modes (transport error, timeout, missing message
// envelope) map to ErrUpstreamFailure without attempting text recovery:
// there is nothing text-like to parse. Text that defeats every recovery
// strategy maps to ErrInvalidResponse.
func (g *Generator) Synthesize(ctx context.Context, survey domain.SurveyInput) (*domain.SynthesizedPlan, error) {
	prompt, err := g.createPrompt(survey)
	if err != nil {
		return nil, err
	}

	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	text, err := g.callModel(ctx, prompt)
	if err != nil {
		return nil, err
	}

	schema, err := parsePlanResponse(text)
	if err != nil {
		g.logger.WarnContext(ctx, "model output failed all parse recovery strategies",
			"response_length", len(text))
		return nil, err
	}

	return schemaToPlan(schema), nil
}

// createPrompt renders the prompt template for the survey.
func (g *Generator) createPrompt(survey domain.SurveyInput) (string, error) {
	data := promptData{
		TargetLevel:       survey.TargetLevel,
		ExamYear:          survey.ExamYear,
		Track:             survey.Track,
		TotalDays:         survey.DaysUntilDeadline(g.now()),
		DailyStudyMinutes: survey.DailyStudyMinutes,
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callModel makes one Gemini API call and extracts the raw response text.
// Every envelope defect is reported as an upstream failure.
func (g *Generator) callModel(ctx context.Context, prompt string) (string, error) {
	g.logger.InfoContext(ctx, "making Gemini API call", "model", g.model)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrUpstreamFailure, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "Gemini API call succeeded", "response_length", len(text))
	return text, nil
}

// extractText concatenates the text parts of the first candidate. A
// response with no usable text is an upstream failure: there is nothing
// text-like to run parse recovery on.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrUpstreamFailure)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrUpstreamFailure)
	}
	if resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrUpstreamFailure)
	}

	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", generation.ErrUpstreamFailure)
	}
	return text, nil
}

// schemaToPlan converts the wire document into the domain plan, repairing
// the small defects models habitually produce: missing module orders are
// assigned sequentially and non-positive durations are raised to one day.
func schemaToPlan(schema *planSchema) *domain.SynthesizedPlan {
	plan := &domain.SynthesizedPlan{
		Overview: schema.Overview,
	}

	for i, m := range schema.Modules {
		order := m.Order
		if order <= 0 {
			order = i + 1
		}
		duration := m.DurationDays
		if duration < 1 {
			duration = 1
		}
		plan.Modules = append(plan.Modules, domain.PlanModule{
			Title:           m.Title,
			Description:     m.Description,
			ImportanceScore: m.ImportanceScore,
			DifficultyScore: m.DifficultyScore,
			DurationDays:    duration,
			Order:           order,
		})
	}

	for _, t := range schema.DailyTasks {
		plan.DailyTasks = append(plan.DailyTasks, domain.DailyTask{
			ModuleOrder:      t.ModuleOrder,
			Day:              t.Day,
			Title:            t.Title,
			Description:      t.Description,
			Content:          t.Content,
			EstimatedMinutes: t.EstimatedMinutes,
		})
	}

	return plan
}
