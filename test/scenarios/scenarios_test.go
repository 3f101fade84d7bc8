package scenarios

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardkit/harness/test/network"
)

func TestBuiltinPresets(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{Errors, Offline, Slow, Success, Unreliable}, r.Names())

	for _, p := range Builtin() {
		require.NoError(t, p.Validate(), p.Name)
	}

	success, err := r.Get(Success)
	require.NoError(t, err)
	assert.False(t, success.EnableNetwork)
	assert.Zero(t, success.Storage)

	slow, err := r.Get(Slow)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, slow.Auth.NetworkDelay)
	assert.Equal(t, 2000*time.Millisecond, slow.Storage.NetworkDelay)
	assert.Equal(t, 1000*time.Millisecond, slow.PDF.NetworkDelay)
	assert.Equal(t, network.Slow3G, slow.Network)

	offline, err := r.Get(Offline)
	require.NoError(t, err)
	assert.Equal(t, 1.0, offline.PDF.ErrorRate)

	_, err = r.Get("nope")
	assert.Error(t, err)
}

func TestRegisterValidates(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Preset{Name: "bad-rate", Network: network.WiFi, PDF: uniform(false, 0, 1.5)})
	assert.ErrorContains(t, err, "pdf")

	err = r.Register(Preset{Name: "bad-network", Network: "5g"})
	assert.ErrorContains(t, err, "unknown network condition")

	assert.Error(t, r.Register(Preset{Network: network.WiFi}))

	require.NoError(t, r.Register(Preset{Name: "custom", Network: network.FourG}))
	assert.Contains(t, r.Names(), "custom")
}

func TestLoadFile(t *testing.T) {
	r := NewRegistry()
	names, err := r.LoadFile(filepath.Join("testdata", "scenarios.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"flaky-pdf", "slow-uploads"}, names)

	flaky, err := r.Get("flaky-pdf")
	require.NoError(t, err)
	assert.True(t, flaky.EnableNetwork)
	assert.Equal(t, network.Fast3G, flaky.Network)
	assert.True(t, flaky.PDF.ShouldSimulateErrors)
	assert.Equal(t, 750*time.Millisecond, flaky.PDF.NetworkDelay)
	assert.Equal(t, 0.5, flaky.PDF.ErrorRate)

	uploads, err := r.Get("slow-uploads")
	require.NoError(t, err)
	assert.Equal(t, network.WiFi, uploads.Network)
	assert.Equal(t, 5*time.Second, uploads.Storage.NetworkDelay)
}

func TestLoadFileRejectsInvalidPresets(t *testing.T) {
	tests := map[string]string{
		"bad delay":   "scenarios:\n  - name: x\n    auth:\n      network_delay: soon\n",
		"bad rate":    "scenarios:\n  - name: x\n    storage:\n      error_rate: 2\n",
		"bad network": "scenarios:\n  - name: x\n    network: dialup\n",
		"not yaml":    "scenarios: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenarios.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			r := NewRegistry()
			_, err := r.LoadFile(path)
			assert.Error(t, err)
			assert.NotContains(t, r.Names(), "x")
		})
	}

	_, err := NewRegistry().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
