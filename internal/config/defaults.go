package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultHTTPAddr            = ":8080"
	DefaultHTTPMaxUploadBytes  = 20 << 20 // 20 MiB
	DefaultHTTPReadTimeout     = 30 * time.Second
	DefaultHTTPWriteTimeout    = 5 * time.Minute // analyses block on the LLM call
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultDBPath     = "chatscope.db"
	DefaultStorageDir = "uploads"

	DefaultLLMBackend           = "gemini"
	DefaultLLMModel             = "gemini-2.0-flash"
	DefaultLLMTimeout           = 3 * time.Minute
	DefaultGeminiTemperature    = 0.7
	DefaultGeminiMaxRetries     = 2
	DefaultGeminiRetryDelaySecs = 2
	DefaultOpenAIBaseURL        = "https://api.openai.com/v1"
	DefaultOpenAITemperature    = 0.7

	DefaultAnalysisMaxConcurrent   = 4
	DefaultAnalysisMetadataTimeout = time.Minute
	DefaultAnalysisBackfillBatch   = 20
)

// DefaultTasks are the scheduled tasks registered when the config file
// does not mention them.
var DefaultTasks = map[string]any{
	"sql_maintenance": map[string]any{
		"enabled":  true,
		"schedule": "0 0 4 * * *",
	},
	"metadata_backfill": map[string]any{
		"enabled":  true,
		"schedule": "0 */10 * * * *",
	},
}
