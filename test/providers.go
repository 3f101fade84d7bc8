package test

import (
	"github.com/onboardkit/harness/test/mocks"
	"github.com/onboardkit/harness/test/network"
)

// setupMocks creates the mock services and the simulator on the harness clock and random source
func setupMocks(h *Harness) {
	opts := []mocks.Option{mocks.WithClock(h.clock), mocks.WithRand(h.rand), mocks.WithRecorder(h.Metrics)}
	h.Auth = mocks.NewMockAuth(opts...)
	h.Storage = mocks.NewMockStorage(opts...)
	h.PDF = mocks.NewMockPDF(opts...)
	h.Network = network.NewSimulator(
		network.WithClock(h.clock),
		network.WithRand(h.rand),
		network.WithRecorder(h.Metrics),
	)
}
