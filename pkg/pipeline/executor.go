package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/audit"
	"github.com/ci-pae/engine/pkg/logging"
	"github.com/ci-pae/engine/pkg/schema"
	"github.com/ci-pae/engine/pkg/sqlcheck"
)

// RowQuerier runs one read statement under a role-scoped connection and
// returns the rows as column-name maps. Implemented by database.Resolver.
type RowQuerier interface {
	QueryRows(ctx context.Context, role, sqlQuery string, limit int) ([]map[string]any, error)
}

// Executor is the safety gate in front of the database. Every statement is
// validated before any connection is touched; the database's own grants
// remain the real access boundary.
type Executor struct {
	db      RowQuerier
	schema  *schema.Context
	maxRows int
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

func NewExecutor(db RowQuerier, sc *schema.Context, maxRows int, logger *zap.Logger) *Executor {
	return &Executor{
		db:      db,
		schema:  sc,
		maxRows: maxRows,
		auditor: audit.NewSecurityAuditor(logger),
		logger:  logger,
	}
}

var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*(\()?`)

// Execute validates the statement and runs it under the given role.
// Rejections return UnsafeStatementError without a database round trip;
// database failures return ExecutionError.
func (e *Executor) Execute(ctx context.Context, sqlText, role string) ([]map[string]any, error) {
	normalized, err := sqlcheck.EnsureSelect(sqlText)
	if err != nil {
		e.auditor.LogStatementRejected(role, logging.TruncateQuery(sqlText), err.Error())
		return nil, &UnsafeStatementError{SQL: sqlText, Reason: err}
	}

	if unknown := e.unknownTable(normalized); unknown != "" {
		return nil, &ExecutionError{Cause: fmt.Errorf("unknown table %q", unknown)}
	}

	rows, err := e.db.QueryRows(ctx, role, normalized, e.maxRows)
	if err != nil {
		if strings.Contains(err.Error(), "permission denied") {
			e.auditor.LogPermissionDenied(role, logging.TruncateQuery(normalized))
		}
		e.logger.Warn("query execution failed",
			zap.String("role", role),
			zap.Error(err))
		return nil, &ExecutionError{Cause: err}
	}
	return rows, nil
}

// unknownTable scans FROM/JOIN references and returns the first table the
// schema does not know about. Subqueries, set-returning function calls and
// the LATERAL keyword contribute no table identifier, so they pass through
// to the database untouched.
func (e *Executor) unknownTable(sqlText string) string {
	for _, m := range tableRefPattern.FindAllStringSubmatch(sqlText, -1) {
		if m[2] == "(" {
			continue
		}
		if strings.EqualFold(m[1], "lateral") {
			continue
		}
		if !e.schema.HasTable(m[1]) {
			return m[1]
		}
	}
	return ""
}
