package mocks

import (
	"sync"

	"github.com/onboardkit/harness/internal/logger"
	"github.com/onboardkit/harness/internal/metrics"
	"github.com/onboardkit/harness/test/fault"
)

// Service names used in logs and metrics
const (
	ServiceAuth    = "auth"
	ServiceStorage = "storage"
	ServicePDF     = "pdf"
)

// Option configures the clock, random source and metrics of a mock
type Option func(*base)

// WithClock sets the clock used for delays and timestamps
func WithClock(clock fault.Clock) Option {
	return func(b *base) {
		b.inj.Clock = clock
	}
}

// WithRand sets the random source used for error rates and trigger chances
func WithRand(rnd fault.Rand) Option {
	return func(b *base) {
		b.inj.Rand = rnd
	}
}

// WithRecorder records every operation outcome
func WithRecorder(rec *metrics.Recorder) Option {
	return func(b *base) {
		b.rec = rec
	}
}

// base holds what every mock shares. mu guards the embedding service's state;
// it is never held across a simulated delay.
type base struct {
	mu      sync.Mutex
	service string
	inj     fault.Injector
	rec     *metrics.Recorder
}

func (b *base) init(service string, opts []Option) {
	b.service = service
	b.inj = fault.NewInjector(nil, nil)
	for _, opt := range opts {
		opt(b)
	}
}

// observe records the outcome of an operation and logs injected faults
func (b *base) observe(operation string, err error) {
	b.rec.Observe(b.service, operation, err)
	if err != nil && fault.KindOf(err) == fault.KindSimulated {
		logger.DebugWithFields("simulated fault", map[string]interface{}{
			"service":   b.service,
			"operation": operation,
			"code":      fault.CodeOf(err),
		})
	}
}
