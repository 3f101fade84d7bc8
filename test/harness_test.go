package test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardkit/harness/internal/fixtures"
	"github.com/onboardkit/harness/internal/metrics"
	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/mocks"
	"github.com/onboardkit/harness/test/network"
	"github.com/onboardkit/harness/test/scenarios"
)

var testEpoch = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestHarness(t *testing.T, opts ...Option) (*Harness, *fault.FakeClock) {
	t.Helper()
	clock := fault.NewFakeClock(testEpoch)
	opts = append([]Option{WithClock(clock), WithRand(fault.FixedRand(0.5))}, opts...)
	h := NewHarness(opts...)
	h.Cleanup(t)
	return h, clock
}

func acmeAgreement() mocks.PDFOptions {
	return mocks.PDFOptions{ClientName: "Acme Corporation", AgreementID: fixtures.AcmeAgreementID, TermsVersion: "2.1.0"}
}

func TestNewHarness(t *testing.T) {
	h := NewHarness()
	defer h.Close()

	assert.NotNil(t, h.Auth)
	assert.NotNil(t, h.Storage)
	assert.NotNil(t, h.PDF)
	assert.NotNil(t, h.Network)
	assert.NotNil(t, h.Scenarios)
	assert.IsType(t, fault.RealClock{}, h.Clock())
	assert.True(t, h.IsClean())

	_, hasDeadline := h.Context().Deadline()
	assert.True(t, hasDeadline)

	h.Close()
	assert.ErrorIs(t, h.Context().Err(), context.Canceled)
}

func TestHarnessOptions(t *testing.T) {
	cleaned := false
	registry := scenarios.NewRegistry()
	h := NewHarness(
		WithRegistry(registry),
		WithTimeout(time.Minute),
		WithCleanupFunc(func() { cleaned = true }),
	)
	assert.Same(t, registry, h.Scenarios)

	deadline, ok := h.Context().Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	h.Close()
	assert.True(t, cleaned)
}

func TestConfigureScenarioErrors(t *testing.T) {
	h, _ := newTestHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ConfigureScenario(scenarios.Errors))

	_, err := h.Auth.SignInWithOAuth(ctx, mocks.DisabledProvider, nil)
	assert.Equal(t, mocks.CodeProviderDisabled, fault.CodeOf(err))

	_, err = h.Storage.Upload(ctx, mocks.UploadRequest{Bucket: mocks.NonexistentBucket, Path: "contract.pdf", Data: []byte("x")})
	assert.Equal(t, mocks.CodeBucketNotFound, fault.CodeOf(err))

	opts := acmeAgreement()
	opts.ClientName = "Error Company"
	res, err := h.PDF.GeneratePDF(ctx, opts)
	assert.Equal(t, mocks.CodeSimulatedClientError, fault.CodeOf(err))
	require.NotNil(t, res)
	assert.False(t, res.Success)

	// ordinary inputs still succeed
	_, err = h.Auth.SignInWithOAuth(ctx, "google", nil)
	assert.NoError(t, err)
	_, err = h.PDF.GeneratePDF(ctx, acmeAgreement())
	assert.NoError(t, err)

	snap := h.Snapshot()
	assert.Equal(t, scenarios.Errors, snap.Scenario)
	assert.True(t, snap.IsSimulating)
	assert.Equal(t, network.WiFi, h.Network.CurrentCondition().Name)
}

func TestConfigureScenarioSlow(t *testing.T) {
	h, clock := newTestHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ConfigureScenario(scenarios.Slow))

	res, err := h.PDF.GeneratePDF(ctx, acmeAgreement())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.GenerationTime, time.Second)

	clock.ResetSlept()
	_, err = h.Storage.Upload(ctx, mocks.UploadRequest{Bucket: "documents", Path: "id.png", Data: []byte("png")})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, clock.Slept(), 2*time.Second)

	clock.ResetSlept()
	_, err = h.Auth.SignInWithOAuth(ctx, "google", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, clock.Slept(), 1500*time.Millisecond)

	assert.Equal(t, network.Slow3G, h.Network.CurrentCondition().Name)
	assert.True(t, h.Network.IsSimulating())
}

func TestConfigureScenarioOffline(t *testing.T) {
	h, _ := newTestHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ConfigureScenario(scenarios.Offline))

	_, err := h.Storage.Upload(ctx, mocks.UploadRequest{Bucket: "documents", Path: "id.png", Data: []byte("png")})
	assert.ErrorIs(t, err, fault.ErrSimulated)
	_, err = h.PDF.GeneratePDF(ctx, acmeAgreement())
	assert.ErrorIs(t, err, fault.ErrSimulated)
	_, err = h.Auth.SignInWithOAuth(ctx, "google", nil)
	assert.ErrorIs(t, err, fault.ErrSimulated)

	_, err = h.Network.SimulateRequest(ctx, 10, 10)
	assert.Equal(t, network.CodeOffline, fault.CodeOf(err))
}

func TestConfigureScenarioSuccessDisablesNetwork(t *testing.T) {
	h, _ := newTestHarness(t)
	require.NoError(t, h.ConfigureScenario(scenarios.Slow))
	require.NoError(t, h.ConfigureScenario(scenarios.Success))

	assert.False(t, h.Network.IsSimulating())
	assert.Equal(t, network.WiFi, h.Network.CurrentCondition().Name)
	assert.Zero(t, h.Auth.Config())
	assert.Zero(t, h.PDF.Config().Config)
	assert.Zero(t, h.Storage.Config().Config)
}

func TestConfigureUnknownScenarioChangesNothing(t *testing.T) {
	h, _ := newTestHarness(t)
	require.NoError(t, h.ConfigureScenario(scenarios.Errors))
	before := h.Storage.Config()

	err := h.ConfigureScenario("does-not-exist")
	require.Error(t, err)

	assert.Equal(t, before, h.Storage.Config())
	assert.Equal(t, scenarios.Errors, h.Snapshot().Scenario)
	assert.True(t, h.Network.IsSimulating())
}

func TestApplyPresetRejectsInvalidPreset(t *testing.T) {
	h, _ := newTestHarness(t)
	err := h.ApplyPreset(scenarios.Preset{Name: "broken", Network: "dial-up"})
	assert.Error(t, err)
	assert.Empty(t, h.Snapshot().Scenario)
}

func TestConfigureScenarioFromFile(t *testing.T) {
	h, _ := newTestHarness(t)
	names, err := h.Scenarios.LoadFile(filepath.Join("scenarios", "testdata", "scenarios.yaml"))
	require.NoError(t, err)
	require.Contains(t, names, "flaky-pdf")

	require.NoError(t, h.ConfigureScenario("flaky-pdf"))
	assert.Equal(t, 0.5, h.PDF.Config().ErrorRate)
	assert.Equal(t, 750*time.Millisecond, h.PDF.Config().NetworkDelay)
	assert.Equal(t, network.Fast3G, h.Network.CurrentCondition().Name)
	assert.Zero(t, h.Storage.Config().Config)
}

func TestResetAll(t *testing.T) {
	h, _ := newTestHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ConfigureScenario(scenarios.Unreliable))
	require.NoError(t, h.ConfigureScenario(scenarios.Success))
	require.NoError(t, h.Network.Enable(network.FourG))

	_, err := h.Storage.Upload(ctx, mocks.UploadRequest{Bucket: "documents", Path: "id.png", Data: []byte("png")})
	require.NoError(t, err)
	_, err = h.PDF.GeneratePDF(ctx, acmeAgreement())
	require.NoError(t, err)
	_, err = h.Auth.SignInWithOAuth(ctx, "google", nil)
	require.NoError(t, err)
	h.Auth.OnAuthStateChange(func(mocks.AuthEvent, *mocks.AuthSession) {})
	_, err = h.Network.SimulateRequest(ctx, 100, 100)
	require.NoError(t, err)

	snap := h.Snapshot()
	assert.False(t, snap.Clean())
	assert.Equal(t, []string{"documents/id.png"}, snap.StoredFiles)
	assert.Len(t, snap.GeneratedPDFs, 1)
	assert.True(t, snap.HasSession)
	assert.Equal(t, 1, snap.AuthCallbacks)
	assert.Equal(t, 1, snap.NetworkRequests)

	h.ResetAll()

	assert.True(t, h.IsClean())
	assert.Empty(t, h.Snapshot().Scenario)
	assert.Zero(t, h.Storage.TotalStorageUsed())
	assert.Zero(t, h.Auth.Config())
	assert.Equal(t, network.WiFi, h.Network.CurrentCondition().Name)
}

func TestHarnessMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	h, _ := newTestHarness(t, WithMetrics(rec))
	ctx := context.Background()

	_, err := h.Storage.Upload(ctx, mocks.UploadRequest{Bucket: "documents", Path: "id.png", Data: []byte("png")})
	require.NoError(t, err)
	require.NoError(t, h.ConfigureScenario(scenarios.Offline))
	_, err = h.PDF.GeneratePDF(ctx, acmeAgreement())
	require.Error(t, err)

	ops := rec.Operations()
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(mocks.ServiceStorage, "upload", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(mocks.ServicePDF, "generate", metrics.OutcomeFailure)))
}
