package test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/onboardkit/harness/internal/logger"
	"github.com/onboardkit/harness/internal/metrics"
	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/mocks"
	"github.com/onboardkit/harness/test/network"
	"github.com/onboardkit/harness/test/scenarios"
)

// Harness owns one instance of every mock service and the network simulator.
// Nothing is global: each test builds its own harness, or shares one explicitly.
type Harness struct {
	// Mock services
	Auth    *mocks.MockAuth
	Storage *mocks.MockStorage
	PDF     *mocks.MockPDF
	Network *network.Simulator

	// Scenarios resolves names passed to ConfigureScenario
	Scenarios *scenarios.Registry
	// Metrics counts mock operations; nil disables recording
	Metrics *metrics.Recorder

	clock fault.Clock
	rand  fault.Rand

	mu       sync.Mutex
	scenario string

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// Snapshot is an aggregate view of every service, used for teardown assertions
type Snapshot struct {
	Scenario        string   `json:"scenario"`
	StoredFiles     []string `json:"stored_files"`
	GeneratedPDFs   []string `json:"generated_pdfs"`
	HasSession      bool     `json:"has_session"`
	AuthCallbacks   int      `json:"auth_callbacks"`
	NetworkRequests int      `json:"network_requests"`
	IsSimulating    bool     `json:"is_simulating"`
}

// Clean reports whether the snapshot holds no state from earlier test activity
func (s Snapshot) Clean() bool {
	return len(s.StoredFiles) == 0 &&
		len(s.GeneratedPDFs) == 0 &&
		!s.HasSession &&
		s.AuthCallbacks == 0 &&
		s.NetworkRequests == 0 &&
		!s.IsSimulating
}

// NewHarness creates a harness with fresh mocks on the real clock and a
// time-seeded random source unless options say otherwise
func NewHarness(opts ...Option) *Harness {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	h := &Harness{
		ctx:        ctx,
		cancelFunc: cancel,
	}
	h.cleanup = func() {
		if h.cancelFunc != nil {
			h.cancelFunc()
		}
	}

	for _, opt := range opts {
		opt(h)
	}
	if h.clock == nil {
		h.clock = fault.RealClock{}
	}
	if h.rand == nil {
		h.rand = fault.NewRand()
	}
	if h.Scenarios == nil {
		h.Scenarios = scenarios.NewRegistry()
	}

	setupMocks(h)
	return h
}

// Context returns the harness context, canceled when the harness is closed
func (h *Harness) Context() context.Context {
	return h.ctx
}

// Clock returns the clock shared by the services
func (h *Harness) Clock() fault.Clock {
	return h.clock
}

// Close resets every service and releases the harness context
func (h *Harness) Close() {
	h.ResetAll()
	if h.cleanup != nil {
		h.cleanup()
	}
}

// Cleanup registers Close with the test
func (h *Harness) Cleanup(t testing.TB) {
	t.Helper()
	t.Cleanup(h.Close)
}

// ConfigureScenario applies a named scenario to every service at once.
// On an unknown name nothing is changed.
func (h *Harness) ConfigureScenario(name string) error {
	preset, err := h.Scenarios.Get(name)
	if err != nil {
		return err
	}
	return h.ApplyPreset(preset)
}

// ApplyPreset applies a preset that is not necessarily registered
func (h *Harness) ApplyPreset(preset scenarios.Preset) error {
	if err := preset.Validate(); err != nil {
		return err
	}

	if err := h.Auth.ConfigureFaults(preset.Auth); err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}
	if err := h.Storage.ConfigureFaults(preset.Storage); err != nil {
		return fmt.Errorf("configure storage: %w", err)
	}
	if err := h.PDF.ConfigureFaults(preset.PDF); err != nil {
		return fmt.Errorf("configure pdf: %w", err)
	}
	if preset.EnableNetwork {
		if err := h.Network.Enable(preset.Network); err != nil {
			return fmt.Errorf("configure network: %w", err)
		}
	} else {
		h.Network.Disable()
		if err := h.Network.SetCondition(preset.Network); err != nil {
			return fmt.Errorf("configure network: %w", err)
		}
	}

	h.mu.Lock()
	h.scenario = preset.Name
	h.mu.Unlock()

	logger.InfoWithFields("scenario configured", map[string]interface{}{
		"scenario": preset.Name,
		"network":  preset.Network,
		"enabled":  preset.EnableNetwork,
	})
	return nil
}

// ResetAll restores every service to its defaults, dropping all stored state and listeners
func (h *Harness) ResetAll() {
	h.Auth.Reset()
	h.Storage.Reset()
	h.PDF.Reset()
	h.Network.Reset()

	h.mu.Lock()
	h.scenario = ""
	h.mu.Unlock()
}

// Snapshot collects the introspection state of every service
func (h *Harness) Snapshot() Snapshot {
	h.mu.Lock()
	scenario := h.scenario
	h.mu.Unlock()

	auth := h.Auth.CurrentState()
	stats := h.Network.Stats()
	return Snapshot{
		Scenario:        scenario,
		StoredFiles:     h.Storage.StoredFiles(),
		GeneratedPDFs:   h.PDF.GeneratedPDFs(),
		HasSession:      auth.Session != nil,
		AuthCallbacks:   auth.CallbackCount,
		NetworkRequests: stats.RequestCount,
		IsSimulating:    stats.IsSimulating,
	}
}

// IsClean reports whether no service holds state
func (h *Harness) IsClean() bool {
	return h.Snapshot().Clean()
}
