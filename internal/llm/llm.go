// Package llm provides text generation clients for the supported LLM backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/chatscope/internal/config"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Client generates a free-text reply for a single prompt.
type Client interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// New creates the client for the configured backend.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Client, error) {
	switch cfg.Backend {
	case "gemini":
		return NewGeminiClient(ctx, cfg.Gemini, logger)
	case "openai":
		return NewOpenAIClient(cfg.OpenAI, logger)
	default:
		return nil, fmt.Errorf("unsupported llm backend %q", cfg.Backend)
	}
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, model, prompt string) (string, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}
