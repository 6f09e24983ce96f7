package pipeline

import "fmt"

// Stage identifies which phase of a run an error occurred in.
type Stage string

const (
	StageReceived     Stage = "received"
	StagePlanning     Stage = "planning"
	StageSynthesizing Stage = "synthesizing"
	StageExecuting    Stage = "executing"
	StageReporting    Stage = "reporting"
	StageDone         Stage = "done"
)

// PlanningError indicates the planner produced output that could not be
// interpreted as a query plan. Fatal to the run.
type PlanningError struct {
	Raw   string
	Cause error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("query plan could not be parsed: %v", e.Cause)
}

func (e *PlanningError) Unwrap() error { return e.Cause }

// UnsafeStatementError indicates the synthesized statement was rejected by
// the safety gate before touching the database. Fatal to the run.
type UnsafeStatementError struct {
	SQL    string
	Reason error
}

func (e *UnsafeStatementError) Error() string {
	return fmt.Sprintf("statement rejected: %v", e.Reason)
}

func (e *UnsafeStatementError) Unwrap() error { return e.Reason }

// ExecutionError indicates the database rejected or failed a statement that
// passed the safety gate. Not fatal to the run: the orchestrator reports it
// to the caller in place of an analysis.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
