package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/llm"
)

// Reporter turns result rows into a short Chinese analysis for the caller.
type Reporter struct {
	gateway llm.Client
	logger  *zap.Logger
}

func NewReporter(gateway llm.Client, logger *zap.Logger) *Reporter {
	return &Reporter{gateway: gateway, logger: logger}
}

// Summarize asks the model for an analysis of the rows. Gateway errors pass
// through unchanged.
func (r *Reporter) Summarize(ctx context.Context, question string, rows []map[string]any) (string, error) {
	report, err := r.gateway.Complete(ctx, ReporterSystemPrompt(), ReporterUserPrompt(question, rows))
	if err != nil {
		return "", err
	}
	return llm.StripCodeFences(report), nil
}

// ExecutionFailureReport is the report text used when the database rejected
// the statement; the run still completes with this in place of an analysis.
func ExecutionFailureReport(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.Cause != nil {
		err = execErr.Cause
	}
	return fmt.Sprintf("数据库查询失败：%v", err)
}

// EmptyResultReport is the report text used when the query matched no rows.
// No model call is made for an empty result set.
func EmptyResultReport() string {
	return "查询未返回任何数据，请尝试调整查询条件或确认相关数据是否存在。"
}
