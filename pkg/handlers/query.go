package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/auth"
	"github.com/ci-pae/engine/pkg/pipeline"
)

// QueryRunner drives one question through the full pipeline.
type QueryRunner interface {
	Run(ctx context.Context, req pipeline.QueryRequest) *pipeline.QueryResponse
}

// NLPQueryRequest is the body of POST /api/nlp/query.
type NLPQueryRequest struct {
	Question string `json:"question"`
}

// QueryHandler exposes the natural-language query pipeline over HTTP.
type QueryHandler struct {
	runner QueryRunner
	logger *zap.Logger
}

func NewQueryHandler(runner QueryRunner, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{runner: runner, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/nlp/query", h.Query)
}

// Query handles POST /api/nlp/query. The pipeline always produces a
// well-formed response, so the envelope is ok:true even when the run failed
// internally; the failure is carried in the report text.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req NLPQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}

	role := auth.RoleFromContext(r.Context())
	resp := h.runner.Run(r.Context(), pipeline.QueryRequest{
		Question: req.Question,
		Role:     role,
	})

	if err := OKResponse(w, resp); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
