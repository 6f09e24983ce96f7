package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/llm"
)

func TestSynthesizerStripsCodeFences(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "```sql\nSELECT c.county_name FROM counties c\n```", nil
	}

	s := NewSynthesizer(mock, testSchema(t), zap.NewNop())
	sqlText, err := s.Synthesize(context.Background(), "列出所有县", &QueryPlan{Analysis: "列出县名"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT c.county_name FROM counties c", sqlText)
}

func TestSynthesizerPassesRawStatementThrough(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "  SELECT 1  ", nil
	}

	s := NewSynthesizer(mock, testSchema(t), zap.NewNop())
	sqlText, err := s.Synthesize(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sqlText)
}

func TestSynthesizerPromptCarriesPlanAndSchema(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "SELECT 1", nil
	}

	plan := &QueryPlan{
		Analysis:     "查询武川县农业产值",
		TablesNeeded: []string{"counties", "agriculture_indicators"},
	}
	s := NewSynthesizer(mock, testSchema(t), zap.NewNop())
	_, err := s.Synthesize(context.Background(), "武川县的农业产值", plan)
	require.NoError(t, err)

	assert.Contains(t, mock.LastSystemPrompt, "CREATE TABLE")
	assert.Contains(t, mock.LastSystemPrompt, "内蒙古自治区")
	assert.Contains(t, mock.LastUserPrompt, "武川县的农业产值")
	assert.Contains(t, mock.LastUserPrompt, "查询武川县农业产值")
	assert.Contains(t, mock.LastUserPrompt, "agriculture_indicators")
}

func TestSynthesizerGatewayErrorPassesThrough(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", &llm.Error{Type: llm.ErrorTypeEndpoint, Message: "connection refused"}
	}

	s := NewSynthesizer(mock, testSchema(t), zap.NewNop())
	_, err := s.Synthesize(context.Background(), "q", nil)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrorTypeEndpoint, llmErr.Type)
}
