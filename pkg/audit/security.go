// Package audit provides security audit logging for SIEM consumption.
// Security-relevant events are logged as structured JSON under a dedicated
// logger namespace so they can be filtered out of the regular request log.
package audit

import (
	"time"

	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and
// alerting.
type SecurityEventType string

const (
	// EventStatementRejected is logged when the safety gate refuses a
	// statement before it reaches the database.
	EventStatementRejected SecurityEventType = "statement_rejected"
	// EventSQLInjectionAttempt is logged when libinjection flags a
	// parameter value on the raw execution endpoint.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventPermissionDenied is logged when the database refuses a
	// statement for lack of grants.
	EventPermissionDenied SecurityEventType = "permission_denied"
)

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogStatementRejected records a statement the safety gate refused. Logged
// at WARN with "warning" severity: generated SQL that fails the gate is
// usually a model mistake, not an attack.
func (a *SecurityAuditor) LogStatementRejected(role, sqlText, reason string) {
	a.logger.Warn("security event",
		zap.String("event_type", string(EventStatementRejected)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("role", role),
		zap.String("sql", sqlText),
		zap.String("reason", reason),
		zap.String("severity", "warning"))
}

// LogInjectionAttempt records a flagged parameter value on the raw
// execution endpoint. Logged at ERROR with "critical" severity for
// immediate alerting: these values come straight from callers.
func (a *SecurityAuditor) LogInjectionAttempt(role string, paramIndex int, paramValue, fingerprint, clientIP string) {
	a.logger.Error("security event",
		zap.String("event_type", string(EventSQLInjectionAttempt)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("role", role),
		zap.Int("param_index", paramIndex),
		zap.String("param_value", paramValue),
		zap.String("fingerprint", fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("severity", "critical"))
}

// LogPermissionDenied records a grant violation surfaced by the database.
func (a *SecurityAuditor) LogPermissionDenied(role, sqlText string) {
	a.logger.Warn("security event",
		zap.String("event_type", string(EventPermissionDenied)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("role", role),
		zap.String("sql", sqlText),
		zap.String("severity", "warning"))
}
