// Package llm wraps external text-completion providers behind a single
// blocking Complete call. All four pipeline stages go through this gateway.
package llm

import "context"

// Client is the gateway to an external completion provider.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete performs one blocking completion round trip and returns the
	// raw assistant text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Compile-time checks that both providers implement Client.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
)
