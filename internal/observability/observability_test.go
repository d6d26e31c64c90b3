package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestNewLoggerLevels(t *testing.T) {
	logger := NewLogger("warn")
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	debug := NewLogger("debug")
	assert.True(t, debug.Core().Enabled(zap.DebugLevel))

	// unknown levels keep the production default
	fallback := NewLogger("chatty")
	assert.True(t, fallback.Core().Enabled(zap.InfoLevel))
	assert.False(t, fallback.Core().Enabled(zap.DebugLevel))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("deposit", "ok", 3*time.Millisecond)
	m.ObserveOperation("deposit", "ok", time.Millisecond)
	m.ObserveOperation("deposit", "insufficient_funds", time.Millisecond)
	m.IncrBudgetAlert("critical")
	m.IncrStorageRetry()

	assert.Equal(t, 2.0, m.OperationCount("deposit", "ok"))
	assert.Equal(t, 1.0, m.OperationCount("deposit", "insufficient_funds"))
	assert.Equal(t, 0.0, m.OperationCount("withdraw", "ok"))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{
		"ledger_operations_total",
		"ledger_operation_duration_seconds",
		"ledger_budget_alerts_total",
		"ledger_storage_retries_total",
	} {
		assert.True(t, names[name], name)
	}

	// separate instances do not share a registry
	assert.Equal(t, 0.0, NewMetrics().OperationCount("deposit", "ok"))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("deposit", "ok", time.Second)
		m.IncrBudgetAlert("warning")
		m.IncrStorageRetry()
	})
	assert.Equal(t, 0.0, m.OperationCount("deposit", "ok"))
}

func TestInitTracerWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer("", "virtual-bank-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestTracingMiddlewareExtractsParent(t *testing.T) {
	_, err := InitTracer("", "virtual-bank-test")
	require.NoError(t, err)

	var got trace.SpanContext
	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, got.IsRemote())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", got.TraceID().String())
}
