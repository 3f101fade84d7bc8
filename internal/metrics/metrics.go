// Package metrics counts mock service operations with prometheus collectors
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder counts operations per service, operation and outcome.
// Each Recorder owns its registry so parallel harnesses never collide.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	delay      *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a private registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harness_mock_operations_total",
				Help: "Mock service operations by outcome.",
			},
			[]string{"service", "operation", "outcome"},
		),
		delay: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harness_simulated_delay_seconds",
				Help:    "Simulated delay applied by the network simulator.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"condition"},
		),
	}
	r.registry.MustRegister(r.operations, r.delay)
	return r
}

// Observe records one operation. A nil Recorder is a no-op.
func (r *Recorder) Observe(service, operation string, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.operations.WithLabelValues(service, operation, outcome).Inc()
}

// ObserveDelay records a simulated delay in seconds for a network condition
func (r *Recorder) ObserveDelay(condition string, seconds float64) {
	if r == nil {
		return
	}
	r.delay.WithLabelValues(condition).Observe(seconds)
}

// Operations exposes the operation counter, mainly for assertions
func (r *Recorder) Operations() *prometheus.CounterVec {
	return r.operations
}

// Registry returns the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Reset clears all recorded values
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.operations.Reset()
	r.delay.Reset()
}
