// Package config provides configuration loading, validation, and management
// for chatscope. It reads a YAML file, applies CHATSCOPE_* environment
// overrides on top of built-in defaults, and validates the result.
package config

import (
	"fmt"
	"time"
)

// Config defines the application configuration for all components: logging,
// the HTTP surface, persistence, blob storage, the LLM backend, analysis
// limits and scheduled tasks.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// StorageConfig points at the directory holding uploaded chat exports.
type StorageConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// LLMConfig selects and configures the LLM backend.
type LLMConfig struct {
	Backend string        `mapstructure:"backend" validate:"required,oneof=gemini openai"`
	Model   string        `mapstructure:"model"   validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// OpenAIConfig holds settings for any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"    validate:"omitempty,url"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// AnalysisConfig bounds the analysis pipeline.
type AnalysisConfig struct {
	// MaxConcurrent caps in-flight LLM calls across all requests.
	MaxConcurrent int64 `mapstructure:"max_concurrent" validate:"min=1,max=64"`
	// MaxLines overrides a flavor's excerpt line cap, keyed by flavor name.
	MaxLines map[string]int `mapstructure:"max_lines"`
	// Models overrides llm.model per flavor.
	Models          map[string]string `mapstructure:"models"`
	MetadataTimeout time.Duration     `mapstructure:"metadata_timeout" validate:"min=1s,max=10m"`
	// BackfillBatchSize bounds how many logs one metadata_backfill run re-estimates.
	BackfillBatchSize int `mapstructure:"backfill_batch_size" validate:"min=1,max=500"`
}

// SchedulerConfig lists scheduled tasks keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// ModelFor returns the model to use for the given flavor.
func (c *Config) ModelFor(flavor string) string {
	if m, ok := c.Analysis.Models[flavor]; ok && m != "" {
		return m
	}
	return c.LLM.Model
}

// validateBackend checks settings that depend on the selected backend and
// cannot be expressed with struct tags.
func (c *Config) validateBackend() error {
	switch c.LLM.Backend {
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("llm.gemini.api_key is required when llm.backend is gemini")
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" && c.LLM.OpenAI.BaseURL == "" {
			return fmt.Errorf("llm.openai.api_key or llm.openai.base_url is required when llm.backend is openai")
		}
	}
	for flavor, n := range c.Analysis.MaxLines {
		if n <= 0 {
			return fmt.Errorf("analysis.max_lines.%s must be positive, got %d", flavor, n)
		}
	}
	return nil
}
