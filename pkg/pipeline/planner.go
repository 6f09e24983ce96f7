package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/llm"
	"github.com/ci-pae/engine/pkg/logging"
	"github.com/ci-pae/engine/pkg/schema"
)

// Planner turns a natural-language question into a QueryPlan by asking the
// model for structured JSON.
type Planner struct {
	gateway llm.Client
	schema  *schema.Context
	logger  *zap.Logger
}

func NewPlanner(gateway llm.Client, sc *schema.Context, logger *zap.Logger) *Planner {
	return &Planner{gateway: gateway, schema: sc, logger: logger}
}

// Plan asks the model to analyze the question. Gateway errors pass through
// unchanged; output that cannot be parsed as a plan becomes a
// PlanningError. The model wrapping its JSON in a code fence or prose is
// tolerated.
func (p *Planner) Plan(ctx context.Context, question string) (*QueryPlan, error) {
	raw, err := p.gateway.Complete(ctx, PlannerSystemPrompt(p.schema), question)
	if err != nil {
		return nil, err
	}

	plan, err := llm.ParseJSONResponse[QueryPlan](raw)
	if err != nil {
		p.logger.Warn("planner output not parseable",
			zap.String("raw", logging.TruncateQuery(raw)),
			zap.Error(err))
		return nil, &PlanningError{Raw: raw, Cause: err}
	}

	p.logger.Debug("query plan produced",
		zap.Strings("tables_needed", plan.TablesNeeded),
		zap.Int("relevant_policies", len(plan.RelevantPolicies)))
	return &plan, nil
}
