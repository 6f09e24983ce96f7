package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/llm"
	"github.com/ci-pae/engine/pkg/logging"
	"github.com/ci-pae/engine/pkg/schema"
)

// Synthesizer turns a question plus its plan into a single SQL statement.
// It strips code-fence decoration but performs no safety checks; the
// executor's gate owns those.
type Synthesizer struct {
	gateway llm.Client
	schema  *schema.Context
	logger  *zap.Logger
}

func NewSynthesizer(gateway llm.Client, sc *schema.Context, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{gateway: gateway, schema: sc, logger: logger}
}

// Synthesize returns the model's statement with fences and surrounding
// whitespace removed. Gateway errors pass through unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, plan *QueryPlan) (string, error) {
	raw, err := s.gateway.Complete(ctx, SynthesizerSystemPrompt(s.schema), SynthesizerUserPrompt(question, plan))
	if err != nil {
		return "", err
	}

	sqlText := llm.StripCodeFences(raw)
	s.logger.Debug("sql synthesized", zap.String("sql", logging.TruncateQuery(sqlText)))
	return sqlText, nil
}
