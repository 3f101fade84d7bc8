package test

import (
	"context"
	"time"

	"github.com/onboardkit/harness/internal/metrics"
	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/scenarios"
)

// DefaultTestTimeout is the default timeout of a harness context.
const DefaultTestTimeout = 30 * time.Second

// Option represents a configuration option for the harness.
type Option func(*Harness)

// WithClock sets the clock shared by every mock and the simulator.
func WithClock(clock fault.Clock) Option {
	return func(h *Harness) {
		h.clock = clock
	}
}

// WithRand sets the random source shared by every mock and the simulator.
func WithRand(rnd fault.Rand) Option {
	return func(h *Harness) {
		h.rand = rnd
	}
}

// WithRegistry sets the scenario registry used by ConfigureScenario.
func WithRegistry(registry *scenarios.Registry) Option {
	return func(h *Harness) {
		h.Scenarios = registry
	}
}

// WithMetrics records every mock operation on the given recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(h *Harness) {
		h.Metrics = rec
	}
}

// WithTimeout returns an option that sets the harness context timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(h *Harness) {
		if h.cancelFunc != nil {
			h.cancelFunc()
		}
		h.ctx, h.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithCleanupFunc returns an option that adds a cleanup function to be
// called when the harness is closed.
func WithCleanupFunc(cleanup func()) Option {
	return func(h *Harness) {
		oldCleanup := h.cleanup
		h.cleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}
