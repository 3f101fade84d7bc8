package test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardkit/harness/internal/api/client"
	"github.com/onboardkit/harness/internal/api/routes"
	"github.com/onboardkit/harness/internal/fixtures"
	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/mocks"
	"github.com/onboardkit/harness/test/network"
	"github.com/onboardkit/harness/test/scenarios"
)

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *client.Error
	require.True(t, errors.As(err, &apiErr), "expected *client.Error, got %v", err)
	assert.Equal(t, status, apiErr.Status)
	if code != "" {
		assert.Equal(t, code, apiErr.Code)
	}
}

func TestServerHealth(t *testing.T) {
	h, _ := newTestHarness(t)
	_, c := h.StartServer(t)

	health, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])
}

func TestServerStorage(t *testing.T) {
	h, _ := newTestHarness(t)
	_, c := h.StartServer(t)
	ctx := context.Background()

	res, err := c.Upload(ctx, "documents", "clients/acme/id.png", []byte("png-bytes"), client.UploadOptions{CacheControl: "max-age=60"})
	require.NoError(t, err)
	assert.Equal(t, "documents/clients/acme/id.png", res.FullPath)
	assert.NotEmpty(t, res.ID)

	data, contentType, err := c.Download(ctx, "documents", "clients/acme/id.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)

	_, err = c.Upload(ctx, "documents", "clients/acme/id.png", []byte("again"), client.UploadOptions{})
	requireAPIError(t, err, http.StatusConflict, mocks.CodeAlreadyExists)

	_, err = c.Upload(ctx, "documents", "clients/acme/id.png", []byte("again"), client.UploadOptions{Upsert: true})
	require.NoError(t, err)
	meta, ok := h.Storage.Metadata("documents", "clients/acme/id.png")
	require.True(t, ok)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "max-age=60", meta.CacheControl)

	removed, err := c.Delete(ctx, "documents", "clients/acme/id.png")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = c.Delete(ctx, "documents", "clients/acme/id.png")
	require.NoError(t, err)
	assert.False(t, removed)

	_, _, err = c.Download(ctx, "documents", "clients/acme/id.png")
	requireAPIError(t, err, http.StatusNotFound, mocks.CodeObjectNotFound)
}

func TestServerSignedURL(t *testing.T) {
	h, clock := newTestHarness(t)
	_, c := h.StartServer(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, "agreements", "acme.pdf", []byte("%PDF"), client.UploadOptions{})
	require.NoError(t, err)

	signed, err := h.Storage.CreateSignedURL("agreements", "acme.pdf", time.Hour)
	require.NoError(t, err)
	data, contentType, err := c.DownloadSigned(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "application/pdf", contentType)

	tampered := strings.Replace(signed, "token=", "token=0", 1)
	_, _, err = c.DownloadSigned(ctx, tampered)
	requireAPIError(t, err, http.StatusBadRequest, mocks.CodeInvalidSignature)

	clock.Advance(2 * time.Hour)
	_, _, err = c.DownloadSigned(ctx, signed)
	requireAPIError(t, err, http.StatusBadRequest, mocks.CodeSignedURLExpired)
}

func TestServerPDF(t *testing.T) {
	h, _ := newTestHarness(t)
	_, c := h.StartServer(t)
	ctx := context.Background()

	res, err := c.GeneratePDF(ctx, client.GeneratePDFRequest{
		ClientName:   "Acme Corporation",
		AgreementID:  fixtures.AcmeAgreementID,
		TermsVersion: "2.1.0",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://pdf.mock.local/agreements/acme-corporation-agreement-2-1-0.pdf", res.URL)

	meta, err := c.PDFMetadata(ctx, res.URL)
	require.NoError(t, err)
	assert.Equal(t, res.FileSize, meta.FileSize)

	_, err = c.PDFMetadata(ctx, "https://pdf.mock.local/agreements/missing.pdf")
	requireAPIError(t, err, http.StatusNotFound, "")

	res, err = c.GeneratePDF(ctx, client.GeneratePDFRequest{AgreementID: "a", TermsVersion: "1.0"})
	requireAPIError(t, err, http.StatusBadRequest, "")
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "client name is required")

	require.NoError(t, h.ConfigureScenario(scenarios.Errors))
	h.Network.Disable()
	res, err = c.GeneratePDF(ctx, client.GeneratePDFRequest{ClientName: "Error Company", AgreementID: "a", TermsVersion: "1.0"})
	requireAPIError(t, err, http.StatusServiceUnavailable, "")
	assert.False(t, res.Success)
}

func TestServerUser(t *testing.T) {
	h, _ := newTestHarness(t)
	_, c := h.StartServer(t)
	ctx := context.Background()

	_, err := c.User(ctx, "")
	requireAPIError(t, err, http.StatusUnauthorized, "")

	signIn, err := h.Auth.SignInWithOAuth(ctx, "google", nil)
	require.NoError(t, err)

	user, err := c.User(ctx, signIn.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fixtures.MainOperatorID, user.ID)
	assert.Equal(t, string(fixtures.RoleOperator), user.Role)

	admin, ok := h.Auth.FixtureSession(fixtures.AdminUserID)
	require.True(t, ok)
	_, err = c.User(ctx, admin.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "")

	require.NoError(t, h.Auth.SignOut(ctx))
	_, err = c.User(ctx, signIn.Session.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "")
}

func TestServerNetworkSimulation(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		h, _ := newTestHarness(t)
		_, c := h.StartServer(t)
		require.NoError(t, h.ConfigureScenario(scenarios.Offline))

		_, err := c.HealthCheck(context.Background())
		requireAPIError(t, err, http.StatusServiceUnavailable, network.CodeOffline)
		assert.Equal(t, 1, h.Network.Stats().FailureCount)
	})

	t.Run("timeout", func(t *testing.T) {
		h, clock := newTestHarness(t, WithRand(fault.NewSequenceRand(0.5, 0.05)))
		_, c := h.StartServer(t)
		require.NoError(t, h.Network.Enable(network.Unstable))

		_, err := c.HealthCheck(context.Background())
		requireAPIError(t, err, http.StatusGatewayTimeout, network.CodeTimeout)
		assert.Equal(t, network.TimeoutDelay, clock.Slept())
	})

	t.Run("latency header", func(t *testing.T) {
		h, _ := newTestHarness(t)
		server, _ := h.StartServer(t)
		require.NoError(t, h.Network.Enable(network.WiFi))

		resp, err := http.Get(server.URL + routes.HealthPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(LatencyHeader))
		assert.Equal(t, 1, h.Network.Stats().RequestCount)
	})

	t.Run("disabled simulator is bypassed", func(t *testing.T) {
		h, _ := newTestHarness(t)
		server, _ := h.StartServer(t)

		resp, err := http.Get(server.URL + routes.HealthPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Empty(t, resp.Header.Get(LatencyHeader))
		assert.Zero(t, h.Network.Stats().RequestCount)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fault.Validation("x", "x"), http.StatusBadRequest},
		{fault.NotFound("x", "x"), http.StatusNotFound},
		{fault.Conflict("x", "x"), http.StatusConflict},
		{fault.Simulated("x", "x"), http.StatusServiceUnavailable},
		{fault.Simulated(network.CodeTimeout, "x"), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
