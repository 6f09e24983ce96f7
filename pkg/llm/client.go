package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds configuration for creating a gateway client.
type Config struct {
	Provider    string  // "openai" (any compatible endpoint) or "anthropic"
	Endpoint    string  // Base URL, e.g. DashScope compatible-mode
	Model       string  // Model name, e.g. "qwen3-max"
	APIKey      string  // Optional for local endpoints
	Temperature float64 // Completion temperature
	MaxRetries  int     // Transport-failure retries; content errors never retry
}

// OpenAIClient talks to any OpenAI-compatible completion endpoint.
type OpenAIClient struct {
	client      *openai.Client
	endpoint    string
	model       string
	temperature float64
	maxRetries  int
	logger      *zap.Logger
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		logger:      logger.Named("llm"),
	}, nil
}

// Complete performs one chat completion round trip. Transport-level failures
// classified as retryable are retried with backoff up to MaxRetries times;
// whatever the model said is returned verbatim for the caller to parse.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("system_len", len(systemPrompt)),
		zap.Int("prompt_len", len(userPrompt)))

	var content string
	err := withRetry(ctx, c.maxRetries, func() error {
		start := time.Now()

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: float32(c.temperature),
			// Disable chain-of-thought on models that support the kwarg
			// (vLLM, Qwen3); SQL generation wants the answer, not the chain.
			ChatTemplateKwargs: map[string]any{
				"enable_thinking": false,
			},
		})
		if err != nil {
			c.logger.Warn("LLM request failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return ClassifyError(err)
		}

		if len(resp.Choices) == 0 {
			return NewError(ErrorTypeMalformed, "no choices in response", false, nil)
		}

		content = resp.Choices[0].Message.Content
		c.logger.Info("LLM request completed",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Endpoint returns the configured endpoint.
func (c *OpenAIClient) Endpoint() string {
	return c.endpoint
}

// withRetry retries fn with exponential backoff for errors that declare
// themselves retryable. At most maxRetries additional attempts are made.
func withRetry(ctx context.Context, maxRetries int, fn func() error) error {
	delay := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= maxRetries || !IsRetryable(lastErr) {
			return lastErr
		}

		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
