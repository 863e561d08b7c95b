package gemini

// planSchema mirrors the JSON document the model is instructed to emit.
// Field names match the wire format of domain.SynthesizedPlan so a single
// unmarshal produces the domain object, but the schema is kept separate to
// make clear that this shape is owned by the prompt, not by the domain.
type planSchema struct {
	Overview   string            `json:"overview"`
	Modules    []moduleSchema    `json:"modules"`
	DailyTasks []dailyTaskSchema `json:"daily_tasks"`
}

type moduleSchema struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ImportanceScore float64 `json:"importance_score"`
	DifficultyScore float64 `json:"difficulty_score"`
	DurationDays    int     `json:"duration_days"`
	Order           int     `json:"order"`
}

type dailyTaskSchema struct {
	ModuleOrder      int    `json:"module_order"`
	Day              int    `json:"day"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Content          string `json:"content"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}
