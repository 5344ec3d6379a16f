package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/edgard/chatscope/internal/config"
)

type openAIClient struct {
	client      *openai.Client
	temperature float32
	log         *slog.Logger
}

// NewOpenAIClient creates a client for any OpenAI-compatible chat completions endpoint.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *slog.Logger) (Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai API key or base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	log := logger.With("component", "openai_client")
	log.Info("OpenAI client initialized successfully", "base_url", clientConfig.BaseURL)
	return &openAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

func (c *openAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	c.log.DebugContext(ctx, "LLM request", "model", model, "prompt_bytes", len(prompt))
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.log.ErrorContext(ctx, "LLM request failed", "elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.log.DebugContext(ctx, "LLM request completed",
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}
