package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/auth"
	"github.com/ci-pae/engine/pkg/pipeline"
)

type fakeRunner struct {
	resp     *pipeline.QueryResponse
	lastReq  pipeline.QueryRequest
	runCalls int
}

func (f *fakeRunner) Run(ctx context.Context, req pipeline.QueryRequest) *pipeline.QueryResponse {
	f.runCalls++
	f.lastReq = req
	return f.resp
}

func TestQueryHandlerSuccess(t *testing.T) {
	runner := &fakeRunner{resp: &pipeline.QueryResponse{
		Plan:   "查询GDP",
		SQL:    "SELECT c.county_name FROM counties c",
		Result: []map[string]any{{"name": "兴和县"}},
		Report: "共1个县。",
	}}
	h := NewQueryHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/query",
		strings.NewReader(`{"question": "兴和县的GDP是多少"}`))
	req = req.WithContext(auth.WithRole(req.Context(), "analyst"))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		OK   bool                   `json:"ok"`
		Data pipeline.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.OK)
	assert.Equal(t, "查询GDP", envelope.Data.Plan)
	assert.Equal(t, "共1个县。", envelope.Data.Report)

	assert.Equal(t, "兴和县的GDP是多少", runner.lastReq.Question)
	assert.Equal(t, "analyst", runner.lastReq.Role)
}

func TestQueryHandlerDefaultsRoleWhenContextEmpty(t *testing.T) {
	runner := &fakeRunner{resp: &pipeline.QueryResponse{Result: []map[string]any{}}}
	h := NewQueryHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/query",
		strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.DefaultRole, runner.lastReq.Role)
}

func TestQueryHandlerRejectsMalformedBody(t *testing.T) {
	runner := &fakeRunner{}
	h := NewQueryHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/query", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, runner.runCalls)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope["ok"])
}

func TestQueryHandlerRejectsBlankQuestion(t *testing.T) {
	runner := &fakeRunner{}
	h := NewQueryHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/query",
		strings.NewReader(`{"question": "   "}`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, runner.runCalls)
}

func TestQueryHandlerFailedRunStillOK(t *testing.T) {
	// pipeline failures are carried in the report, not the envelope
	runner := &fakeRunner{resp: &pipeline.QueryResponse{
		Result: []map[string]any{},
		Report: "查询计划生成失败：invalid api key",
	}}
	h := NewQueryHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/query",
		strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		OK   bool                   `json:"ok"`
		Data pipeline.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.OK)
	assert.Contains(t, envelope.Data.Report, "查询计划生成失败")
}
