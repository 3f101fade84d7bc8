package fault

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so simulated delays can run on virtual time in tests
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done. A non-positive d returns immediately.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses wall-clock time and timers
type RealClock struct{}

// Now returns the current wall-clock time
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits on a real timer
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FakeClock is a virtual clock. Sleep advances the clock instantly and records
// the requested duration, so tests can assert on simulated latency without waiting.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
	naps  int
}

// NewFakeClock creates a FakeClock starting at the given instant
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current virtual time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances virtual time by d
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept += d
	c.naps++
	c.mu.Unlock()
	return nil
}

// Advance moves virtual time forward without counting it as sleep
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Slept returns the total virtual time spent in Sleep
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}

// Naps returns the number of non-zero Sleep calls
func (c *FakeClock) Naps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.naps
}

// ResetSlept clears the sleep accounting
func (c *FakeClock) ResetSlept() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = 0
	c.naps = 0
}
