package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryPlanner produces a structured plan from a question.
type QueryPlanner interface {
	Plan(ctx context.Context, question string) (*QueryPlan, error)
}

// SQLSynthesizer produces a statement from a question and its plan.
type SQLSynthesizer interface {
	Synthesize(ctx context.Context, question string, plan *QueryPlan) (string, error)
}

// StatementExecutor validates and runs a statement under a role.
type StatementExecutor interface {
	Execute(ctx context.Context, sqlText, role string) ([]map[string]any, error)
}

// ReportSynthesizer summarizes result rows for the caller.
type ReportSynthesizer interface {
	Summarize(ctx context.Context, question string, rows []map[string]any) (string, error)
}

// Orchestrator drives one question through plan, synthesize, execute and
// report. It always returns a well-formed response: failures land in the
// report text with whatever artifacts were produced before the failure.
type Orchestrator struct {
	planner      QueryPlanner
	synthesizer  SQLSynthesizer
	executor     StatementExecutor
	reporter     ReportSynthesizer
	stageTimeout time.Duration
	logger       *zap.Logger
}

func NewOrchestrator(
	planner QueryPlanner,
	synthesizer SQLSynthesizer,
	executor StatementExecutor,
	reporter ReportSynthesizer,
	stageTimeout time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		planner:      planner,
		synthesizer:  synthesizer,
		executor:     executor,
		reporter:     reporter,
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

// Run processes one request. The returned response is never nil and every
// field is populated as far as the run got. Each stage runs under its own
// timeout derived from ctx; cancelling ctx aborts the current stage.
func (o *Orchestrator) Run(ctx context.Context, req QueryRequest) (resp *QueryResponse) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID), zap.String("role", req.Role))
	log.Info("query run started", zap.String("question", req.Question))

	resp = &QueryResponse{Result: []map[string]any{}}
	stage := StageReceived
	defer func() {
		if r := recover(); r != nil {
			log.Error("query run panicked",
				zap.String("stage", string(stage)),
				zap.Any("panic", r))
			resp.Report = stageFailureReport(stage, fmt.Errorf("internal error: %v", r))
		}
	}()

	stage = StagePlanning
	plan, err := o.runPlan(ctx, req.Question)
	if err != nil {
		log.Warn("planning failed", zap.Error(err))
		resp.Report = stageFailureReport(stage, err)
		return resp
	}
	resp.Plan = plan.Analysis

	stage = StageSynthesizing
	sqlText, err := o.runSynthesize(ctx, req.Question, plan)
	if err != nil {
		log.Warn("sql synthesis failed", zap.Error(err))
		resp.Report = stageFailureReport(stage, err)
		return resp
	}
	resp.SQL = sqlText

	stage = StageExecuting
	rows, err := o.runExecute(ctx, sqlText, req.Role)
	if err != nil {
		var unsafeErr *UnsafeStatementError
		if errors.As(err, &unsafeErr) {
			log.Warn("unsafe statement rejected", zap.Error(err))
			// A rejected statement is never echoed back to the caller.
			resp.SQL = ""
			resp.Report = unsafeStatementReport(unsafeErr)
			return resp
		}
		// Database rejections are not fatal to the run: the report
		// carries the failure and the caller still gets the SQL.
		log.Warn("execution failed", zap.Error(err))
		resp.Report = ExecutionFailureReport(err)
		return resp
	}
	resp.Result = rows

	stage = StageReporting
	if len(rows) == 0 {
		resp.Report = EmptyResultReport()
		stage = StageDone
		log.Info("query run finished", zap.Int("rows", 0))
		return resp
	}

	report, err := o.runReport(ctx, req.Question, rows)
	if err != nil {
		log.Warn("report synthesis failed", zap.Error(err))
		resp.Report = stageFailureReport(stage, err)
		return resp
	}
	resp.Report = report

	stage = StageDone
	log.Info("query run finished", zap.Int("rows", len(rows)))
	return resp
}

func (o *Orchestrator) runPlan(ctx context.Context, question string) (*QueryPlan, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.planner.Plan(ctx, question)
}

func (o *Orchestrator) runSynthesize(ctx context.Context, question string, plan *QueryPlan) (string, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.synthesizer.Synthesize(ctx, question, plan)
}

func (o *Orchestrator) runExecute(ctx context.Context, sqlText, role string) ([]map[string]any, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.executor.Execute(ctx, sqlText, role)
}

func (o *Orchestrator) runReport(ctx context.Context, question string, rows []map[string]any) (string, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.reporter.Summarize(ctx, question, rows)
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.stageTimeout)
}

func stageFailureReport(stage Stage, err error) string {
	switch stage {
	case StagePlanning:
		return fmt.Sprintf("查询计划生成失败：%v", err)
	case StageSynthesizing:
		return fmt.Sprintf("生成查询语句失败：%v", err)
	case StageReporting:
		return fmt.Sprintf("生成分析报告失败：%v", err)
	default:
		return fmt.Sprintf("查询失败：%v", err)
	}
}

func unsafeStatementReport(err *UnsafeStatementError) string {
	return fmt.Sprintf("检测到无效或不安全的SQL操作，已拒绝执行：%v。本系统仅支持 SELECT 查询。", err.Reason)
}
