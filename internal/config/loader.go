package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file values,
// e.g. CHATSCOPE_LLM_GEMINI_API_KEY for llm.gemini.api_key.
const EnvPrefix = "CHATSCOPE"

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional)
// 3. CHATSCOPE_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation followed by cross-field checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.validateBackend(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.max_upload_bytes", DefaultHTTPMaxUploadBytes)
	v.SetDefault("http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("storage.dir", DefaultStorageDir)

	v.SetDefault("llm.backend", DefaultLLMBackend)
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("llm.gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("llm.gemini.retry_delay_seconds", DefaultGeminiRetryDelaySecs)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("llm.openai.temperature", DefaultOpenAITemperature)

	v.SetDefault("analysis.max_concurrent", DefaultAnalysisMaxConcurrent)
	v.SetDefault("analysis.metadata_timeout", DefaultAnalysisMetadataTimeout)
	v.SetDefault("analysis.backfill_batch_size", DefaultAnalysisBackfillBatch)
	v.SetDefault("analysis.max_lines", map[string]int{})
	v.SetDefault("analysis.models", map[string]string{})

	v.SetDefault("scheduler.tasks", DefaultTasks)
}
