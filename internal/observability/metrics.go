package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the Prometheus metrics of the ledger.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	budgetAlerts      *prometheus.CounterVec
	storageRetries    prometheus.Counter
}

// NewMetrics registers all metrics in a private registry, so it can be
// called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Ledger operations by name and result code.",
			},
			[]string{"operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations including storage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		budgetAlerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_budget_alerts_total",
				Help: "Budget alerts raised by status.",
			},
			[]string{"status"},
		),
		storageRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_storage_retries_total",
				Help: "Storage transactions retried after a serialization failure.",
			},
		),
	}
}

// ObserveOperation records one operation outcome. result is "ok" or an error code.
func (m *Metrics) ObserveOperation(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrBudgetAlert(status string) {
	if m == nil {
		return
	}
	m.budgetAlerts.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrStorageRetry() {
	if m == nil {
		return
	}
	m.storageRetries.Inc()
}

// OperationCount returns the current value of the operation counter.
func (m *Metrics) OperationCount(operation, result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.operations.WithLabelValues(operation, result))
}

func counterValue(c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}
