// Package metrics exposes Prometheus instruments for record operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values. Failures use the lower-cased error code instead.
const (
	OutcomeOK = "ok"
)

// Metrics holds the instruments of one registry. The zero value is not
// usable; construct with New or Discard.
type Metrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	relationWrites  *prometheus.CounterVec
	partialFailures prometheus.Counter
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotetrace_operations_total",
			Help: "Record operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lotetrace_operation_duration_seconds",
			Help:    "Duration of record operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		relationWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotetrace_relation_writes_total",
			Help: "Relation list writes by side (owner or counterpart)",
		}, []string{"side"}),
		partialFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "lotetrace_partial_relation_failures_total",
			Help: "Input relations whose back reference could not be written",
		}),
	}
}

// Discard returns instruments registered nowhere.
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RelationWrite implements trace.RelationObserver.
func (m *Metrics) RelationWrite(side string) {
	m.relationWrites.WithLabelValues(side).Inc()
}

// PartialRelationFailure implements trace.RelationObserver.
func (m *Metrics) PartialRelationFailure() {
	m.partialFailures.Inc()
}
