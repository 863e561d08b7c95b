package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the relational database settings used for plan
// persistence and the owner directory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// StoreConfig contains settings for the durable task-record store.
type StoreConfig struct {
	// Path is the filesystem location of the embedded key-value database
	// holding task records.
	Path string `mapstructure:"path" validate:"required"`
}

// LLMConfig contains all language-model integration settings.
type LLMConfig struct {
	// GeminiAPIKey is optional: without it the server runs in
	// fallback-only mode and never calls the model.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// RequestTimeout bounds a single upstream completion call. Expiry is
	// treated as an upstream failure and feeds fallback synthesis.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required"`
}

// TaskConfig contains settings for the background generation runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`

	// MaxPerOwner caps how many generation jobs one owner may have in
	// flight at once. Submissions beyond the cap are rejected.
	MaxPerOwner int `mapstructure:"max_per_owner" validate:"required,gt=0"`

	// EstimatedDuration is how long a generation job is expected to take.
	// The progress heartbeat derives its heuristic from it and submit
	// responses report it to clients.
	EstimatedDuration time.Duration `mapstructure:"estimated_duration" validate:"required"`

	// HeartbeatInterval is how often in-flight jobs refresh their
	// heuristic progress.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"required"`

	// RetentionWindow is how long terminal task records are kept before
	// cleanup deletes them.
	RetentionWindow time.Duration `mapstructure:"retention_window" validate:"required"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required"`
}
