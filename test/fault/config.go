package fault

import (
	"context"
	"fmt"
	"time"
)

// Config is the per-service fault policy shared by every mock
type Config struct {
	// ShouldSimulateErrors enables the service-specific trigger errors
	// (magic inputs and the small random failures on delete/sign-out/refresh)
	ShouldSimulateErrors bool `json:"should_simulate_errors" yaml:"should_simulate_errors"`
	// NetworkDelay is applied before every asynchronous operation
	NetworkDelay time.Duration `json:"network_delay" yaml:"network_delay"`
	// ErrorRate is the probability in [0,1] that an operation fails generically
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`
}

// Validate checks the configuration bounds
func (c Config) Validate() error {
	if c.ErrorRate < 0 || c.ErrorRate > 1 {
		return fmt.Errorf("error rate must be within [0,1], got %v", c.ErrorRate)
	}
	if c.NetworkDelay < 0 {
		return fmt.Errorf("network delay cannot be negative, got %v", c.NetworkDelay)
	}
	return nil
}

// Injector applies a Config using an injectable clock and random source
type Injector struct {
	Clock Clock
	Rand  Rand
}

// NewInjector creates an Injector, falling back to the real clock and a
// time-seeded random source for nil arguments
func NewInjector(clock Clock, rnd Rand) Injector {
	if clock == nil {
		clock = RealClock{}
	}
	if rnd == nil {
		rnd = NewRand()
	}
	return Injector{Clock: clock, Rand: rnd}
}

// Delay sleeps for the configured network delay
func (i Injector) Delay(ctx context.Context, cfg Config) error {
	return i.Clock.Sleep(ctx, cfg.NetworkDelay)
}

// Roll reports whether the generic error rate triggers for this call.
// No sample is drawn when the rate is zero.
func (i Injector) Roll(cfg Config) bool {
	if cfg.ErrorRate <= 0 {
		return false
	}
	return i.Rand.Float64() < cfg.ErrorRate
}

// Chance reports true with probability p
func (i Injector) Chance(p float64) bool {
	return i.Rand.Float64() < p
}

// Now returns the injector's current time
func (i Injector) Now() time.Time {
	return i.Clock.Now()
}
