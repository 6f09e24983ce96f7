package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedAuditor(t *testing.T) (*SecurityAuditor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	return NewSecurityAuditor(zap.New(core)), logs
}

func TestLogStatementRejected(t *testing.T) {
	auditor, logs := observedAuditor(t)
	auditor.LogStatementRejected("analyst", "DROP TABLE counties", "statement is not a SELECT")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, string(EventStatementRejected), fields["event_type"])
	assert.Equal(t, "analyst", fields["role"])
	assert.Equal(t, "warning", fields["severity"])
}

func TestLogInjectionAttemptIsCritical(t *testing.T) {
	auditor, logs := observedAuditor(t)
	auditor.LogInjectionAttempt("user", 1, "' OR 1=1 --", "s&1c", "10.0.0.5")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, string(EventSQLInjectionAttempt), fields["event_type"])
	assert.Equal(t, "critical", fields["severity"])
	assert.Equal(t, int64(1), fields["param_index"])
}

func TestAuditorUsesDedicatedNamespace(t *testing.T) {
	auditor, logs := observedAuditor(t)
	auditor.LogPermissionDenied("user", "SELECT content FROM interview_data")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "security_audit", logs.All()[0].LoggerName)
}
