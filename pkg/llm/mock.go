package llm

import (
	"context"
)

// MockClient is a configurable mock gateway for tests.
// Set CompleteFunc to control behavior; call counts are tracked for
// verifying which pipeline stages ran.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, Complete returns "" and nil error.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// CompleteCalls counts Complete invocations.
	CompleteCalls int

	// LastSystemPrompt and LastUserPrompt record the most recent call.
	LastSystemPrompt string
	LastUserPrompt   string
}

// NewMockClient creates a mock with defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.CompleteCalls++
	m.LastSystemPrompt = systemPrompt
	m.LastUserPrompt = userPrompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	return "", nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.CompleteCalls = 0
	m.LastSystemPrompt = ""
	m.LastUserPrompt = ""
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
