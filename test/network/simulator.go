package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onboardkit/harness/internal/logger"
	"github.com/onboardkit/harness/internal/metrics"
	"github.com/onboardkit/harness/test/fault"
)

// Error codes returned by SimulateRequest
const (
	CodeOffline      = "offline"
	CodeNetworkError = "network_error"
	CodeTimeout      = "timeout"
)

const (
	// TimeoutDelay is how long a simulated timeout blocks before failing
	TimeoutDelay = 30 * time.Second
	// MaxChunkSize caps the chunk size used by SimulateDownload and SimulateUpload
	MaxChunkSize = 64 * 1024

	dropJitter = time.Second
)

// Stats is a snapshot of the simulator counters
type Stats struct {
	IsSimulating     bool    `json:"is_simulating"`
	CurrentCondition string  `json:"current_condition"`
	RequestCount     int     `json:"request_count"`
	FailureCount     int     `json:"failure_count"`
	TimeoutCount     int     `json:"timeout_count"`
	SuccessRate      float64 `json:"success_rate"`
}

// ProgressFunc receives cumulative progress of a chunked transfer
type ProgressFunc func(loaded, total int64)

// Option configures a Simulator
type Option func(*Simulator)

// WithClock sets the clock used for simulated delays
func WithClock(clock fault.Clock) Option {
	return func(s *Simulator) {
		s.inj.Clock = clock
	}
}

// WithRand sets the random source used for drops, timeouts and jitter
func WithRand(rnd fault.Rand) Option {
	return func(s *Simulator) {
		s.inj.Rand = rnd
	}
}

// WithRecorder records simulated delays
func WithRecorder(rec *metrics.Recorder) Option {
	return func(s *Simulator) {
		s.rec = rec
	}
}

// Simulator decides request outcomes and delays for the active profile.
// A new Simulator is disabled and passes every request through.
type Simulator struct {
	mu         sync.Mutex
	inj        fault.Injector
	rec        *metrics.Recorder
	simulating bool
	profile    Profile

	requests int
	failures int
	timeouts int
}

// NewSimulator creates a disabled Simulator on the default condition
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		inj:     fault.NewInjector(nil, nil),
		profile: MustProfile(DefaultCondition),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enable turns simulation on with the named profile
func (s *Simulator) Enable(condition string) error {
	p, ok := Lookup(condition)
	if !ok {
		return fmt.Errorf("unknown network condition %q", condition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.simulating = true
	logger.Debugf("network simulation enabled: %s", p.Name)
	return nil
}

// Disable turns simulation off. Counters are kept; see ResetStats.
func (s *Simulator) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulating = false
}

// SetCondition switches the active profile without changing whether simulation is on
func (s *Simulator) SetCondition(condition string) error {
	p, ok := Lookup(condition)
	if !ok {
		return fmt.Errorf("unknown network condition %q", condition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	return nil
}

// CurrentCondition returns the active profile
func (s *Simulator) CurrentCondition() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// IsSimulating reports whether simulation is on
func (s *Simulator) IsSimulating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simulating
}

// SimulateRequest decides the outcome of one request and sleeps for its
// simulated duration. It returns the simulated delay.
func (s *Simulator) SimulateRequest(ctx context.Context, requestBytes, responseBytes int64) (time.Duration, error) {
	delay, err := s.decide(requestBytes, responseBytes)
	if delay > 0 {
		if sleepErr := s.inj.Clock.Sleep(ctx, delay); sleepErr != nil {
			return 0, sleepErr
		}
	}
	return delay, err
}

// decide draws the outcome and updates the counters before any sleep happens,
// so concurrent callers always observe consistent stats.
func (s *Simulator) decide(requestBytes, responseBytes int64) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.simulating {
		return 0, nil
	}
	p := s.profile
	s.requests++

	if p.Name == Offline {
		s.failures++
		return 0, fault.Simulated(CodeOffline, "network is offline")
	}

	if s.inj.Rand.Float64() > p.Reliability {
		s.failures++
		delay := p.Latency + time.Duration(s.inj.Rand.Float64()*float64(dropJitter))
		s.rec.ObserveDelay(p.Name, delay.Seconds())
		logger.DebugWithFields("simulated network drop", map[string]interface{}{"condition": p.Name, "delay": delay.String()})
		return delay, fault.Simulated(CodeNetworkError, "simulated network error")
	}

	if s.inj.Rand.Float64() < p.TimeoutRate {
		s.timeouts++
		s.rec.ObserveDelay(p.Name, TimeoutDelay.Seconds())
		logger.DebugWithFields("simulated network timeout", map[string]interface{}{"condition": p.Name})
		return TimeoutDelay, fault.Simulated(CodeTimeout, "simulated request timeout")
	}

	transfer := float64(p.Latency) +
		transferTime(requestBytes, p.UploadBytesPerSec) +
		transferTime(responseBytes, p.DownloadBytesPerSec)
	jitter := 0.8 + s.inj.Rand.Float64()*0.4
	delay := time.Duration(transfer * jitter)
	s.rec.ObserveDelay(p.Name, delay.Seconds())
	return delay, nil
}

func transferTime(bytes int64, bytesPerSec float64) float64 {
	if bytes <= 0 || bytesPerSec <= 0 {
		return 0
	}
	return float64(bytes) / bytesPerSec * float64(time.Second)
}

// ChunkSize returns the chunk size used for a transfer of total bytes:
// min(64KiB, 10% of total), never below one byte.
func ChunkSize(total int64) int64 {
	chunk := total / 10
	if chunk > MaxChunkSize {
		chunk = MaxChunkSize
	}
	if chunk < 1 {
		chunk = 1
	}
	return chunk
}

// SimulateDownload transfers total bytes in chunks, one SimulateRequest per chunk.
// The first failing chunk aborts the transfer and its error is returned.
func (s *Simulator) SimulateDownload(ctx context.Context, total int64, onProgress ProgressFunc) (time.Duration, error) {
	return s.chunked(ctx, total, onProgress, func(n int64) (time.Duration, error) {
		return s.SimulateRequest(ctx, 0, n)
	})
}

// SimulateUpload is the upload-direction counterpart of SimulateDownload
func (s *Simulator) SimulateUpload(ctx context.Context, total int64, onProgress ProgressFunc) (time.Duration, error) {
	return s.chunked(ctx, total, onProgress, func(n int64) (time.Duration, error) {
		return s.SimulateRequest(ctx, n, 0)
	})
}

func (s *Simulator) chunked(ctx context.Context, total int64, onProgress ProgressFunc, send func(int64) (time.Duration, error)) (time.Duration, error) {
	if total <= 0 {
		d, err := send(0)
		if err == nil && onProgress != nil {
			onProgress(0, 0)
		}
		return d, err
	}

	chunk := ChunkSize(total)
	var elapsed time.Duration
	for loaded := int64(0); loaded < total; {
		n := chunk
		if remaining := total - loaded; remaining < n {
			n = remaining
		}
		d, err := send(n)
		elapsed += d
		if err != nil {
			return elapsed, err
		}
		loaded += n
		if onProgress != nil {
			onProgress(loaded, total)
		}
	}
	return elapsed, nil
}

// Stats returns the current counters
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate := 1.0
	if s.requests > 0 {
		rate = float64(s.requests-s.failures-s.timeouts) / float64(s.requests)
	}
	return Stats{
		IsSimulating:     s.simulating,
		CurrentCondition: s.profile.Name,
		RequestCount:     s.requests,
		FailureCount:     s.failures,
		TimeoutCount:     s.timeouts,
		SuccessRate:      rate,
	}
}

// ResetStats clears the counters without touching the active profile
func (s *Simulator) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests, s.failures, s.timeouts = 0, 0, 0
}

// Reset disables simulation, clears the counters and restores the default condition
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulating = false
	s.profile = MustProfile(DefaultCondition)
	s.requests, s.failures, s.timeouts = 0, 0, 0
}
