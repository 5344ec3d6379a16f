package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/chatscope/internal/config"
)

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type geminiClient struct {
	generate      generateContentFunc
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	maxRetries    int
	retryDelay    time.Duration
}

// NewGeminiClient creates a Gemini client with the provided configuration.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newGeminiClient(gi.Models.GenerateContent, cfg, logger)
	c.log.Info("Gemini client initialized successfully", "max_retries", cfg.MaxRetries)
	return c, nil
}

func newGeminiClient(generate generateContentFunc, cfg config.GeminiConfig, logger *slog.Logger) *geminiClient {
	if logger == nil {
		logger = slog.Default()
	}
	temperature := cfg.Temperature
	return &geminiClient{
		generate: generate,
		log:      logger.With("component", "gemini_client"),
		contentConfig: &genai.GenerateContentConfig{
			Temperature: &temperature,
			// Chat logs routinely contain banter that trips the default filters.
			SafetySettings: []*genai.SafetySetting{
				{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
				{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
				{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
				{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
			},
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
}

func (c *geminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	c.log.DebugContext(ctx, "Generating content", "model", model, "prompt_bytes", len(prompt))

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.generateContentWithRetries(ctx, model, contents)
	if err != nil {
		return "", err
	}
	return c.extractTextFromResponse(ctx, resp)
}

func (c *geminiClient) generateContentWithRetries(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.generate(ctx, model, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		retriable := errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503)
		if !retriable {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if attempt >= c.maxRetries {
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "code", apiErr.Code, "error", err)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.WarnContext(ctx, "Retrying Gemini API call", "attempt", attempt+1, "delay", c.retryDelay, "code", apiErr.Code)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gemini API call cancelled while waiting to retry: %w", ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *geminiClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("gemini request blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, finishReason)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
