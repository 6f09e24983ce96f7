package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	temperature float64
	maxRetries  int
	logger      *zap.Logger
}

// NewAnthropicClient creates an Anthropic-backed gateway client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []anthropic.ClientOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		logger:      logger.Named("llm"),
	}, nil
}

// Complete performs one messages round trip.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temp := float32(c.temperature)

	var content string
	err := withRetry(ctx, c.maxRetries, func() error {
		start := time.Now()

		resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      systemPrompt,
			MaxTokens:   4096,
			Temperature: &temp,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(userPrompt),
			},
		})
		if err != nil {
			c.logger.Warn("LLM request failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return ClassifyError(err)
		}

		if len(resp.Content) == 0 {
			return NewError(ErrorTypeMalformed, "no content in response", false, nil)
		}

		content = resp.Content[0].GetText()
		c.logger.Info("LLM request completed",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return c.model
}
