package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/audit"
	"github.com/ci-pae/engine/pkg/auth"
	"github.com/ci-pae/engine/pkg/database"
	"github.com/ci-pae/engine/pkg/logging"
	"github.com/ci-pae/engine/pkg/sqlcheck"
)

// StatementRunner executes one screened statement under a role-scoped
// connection. Implemented by database.Resolver.
type StatementRunner interface {
	ExecuteStatement(ctx context.Context, role, sqlStatement string, params []any, limit int) ([]map[string]any, error)
}

// SQLExecRequest is the body of POST /api/sql/execute: one read-only
// statement with positional parameters ($1, $2, …).
type SQLExecRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
}

// SQLExecHandler exposes direct read-only SQL for dashboard widgets that
// ship their own statements. Parameter values are screened for injection
// patterns before execution; the statement itself goes through the same
// SELECT-only gate as pipeline output.
type SQLExecHandler struct {
	runner  StatementRunner
	maxRows int
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

func NewSQLExecHandler(runner StatementRunner, maxRows int, logger *zap.Logger) *SQLExecHandler {
	return &SQLExecHandler{
		runner:  runner,
		maxRows: maxRows,
		auditor: audit.NewSecurityAuditor(logger),
		logger:  logger,
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *SQLExecHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sql/execute", h.Execute)
}

// Execute handles POST /api/sql/execute.
func (h *SQLExecHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req SQLExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	normalized, err := sqlcheck.EnsureSelect(req.SQL)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("statement rejected: %v", err))
		return
	}

	role := auth.RoleFromContext(r.Context())

	if flagged := sqlcheck.CheckParameters(req.Params); len(flagged) > 0 {
		value, _ := flagged[0].ParamValue.(string)
		h.auditor.LogInjectionAttempt(role, flagged[0].ParamIndex, value, flagged[0].Fingerprint, r.RemoteAddr)
		_ = ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("parameter %d rejected: injection pattern detected", flagged[0].ParamIndex))
		return
	}

	rows, err := h.runner.ExecuteStatement(r.Context(), role, normalized, req.Params, h.maxRows)
	if err != nil {
		var roleErr *database.RoleConfigurationError
		if errors.As(err, &roleErr) {
			_ = ErrorResponse(w, http.StatusServiceUnavailable, roleErr.Error())
			return
		}
		h.logger.Warn("statement execution failed",
			zap.String("role", role),
			zap.String("sql", logging.TruncateQuery(normalized)),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadRequest, logging.SanitizeError(err))
		return
	}

	if err := OKResponse(w, map[string]any{"rows": rows, "row_count": len(rows)}); err != nil {
		h.logger.Error("Failed to encode execute response", zap.Error(err))
	}
}
