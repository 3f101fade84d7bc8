// Package network simulates network conditions for tests without performing any I/O
package network

import (
	"fmt"
	"sort"
	"time"
)

// Profile names
const (
	WiFi     = "wifi"
	FourG    = "4g"
	Fast3G   = "fast-3g"
	Slow3G   = "slow-3g"
	Unstable = "unstable"
	Offline  = "offline"

	// DefaultCondition is the profile selected by a fresh or reset simulator
	DefaultCondition = WiFi
)

// Profile describes one named network condition
type Profile struct {
	Name                string        `json:"name"`
	Latency             time.Duration `json:"latency"`
	DownloadBytesPerSec float64       `json:"download_bytes_per_sec"`
	UploadBytesPerSec   float64       `json:"upload_bytes_per_sec"`
	// Reliability is the probability a request is not dropped
	Reliability float64 `json:"reliability"`
	// TimeoutRate is the probability a delivered request times out
	TimeoutRate float64 `json:"timeout_rate"`
	Description string  `json:"description"`
}

var profiles = map[string]Profile{
	WiFi: {
		Name:                WiFi,
		Latency:             20 * time.Millisecond,
		DownloadBytesPerSec: 3_750_000,
		UploadBytesPerSec:   1_875_000,
		Reliability:         0.99,
		TimeoutRate:         0.001,
		Description:         "Office or home WiFi (30/15 Mbps)",
	},
	FourG: {
		Name:                FourG,
		Latency:             50 * time.Millisecond,
		DownloadBytesPerSec: 1_500_000,
		UploadBytesPerSec:   750_000,
		Reliability:         0.98,
		TimeoutRate:         0.005,
		Description:         "Good mobile 4G connection (12/6 Mbps)",
	},
	Fast3G: {
		Name:                Fast3G,
		Latency:             150 * time.Millisecond,
		DownloadBytesPerSec: 200_000,
		UploadBytesPerSec:   93_750,
		Reliability:         0.95,
		TimeoutRate:         0.01,
		Description:         "Fast 3G (1.6 Mbps / 750 Kbps)",
	},
	Slow3G: {
		Name:                Slow3G,
		Latency:             400 * time.Millisecond,
		DownloadBytesPerSec: 50_000,
		UploadBytesPerSec:   25_000,
		Reliability:         0.90,
		TimeoutRate:         0.02,
		Description:         "Slow 3G (400/200 Kbps)",
	},
	Unstable: {
		Name:                Unstable,
		Latency:             300 * time.Millisecond,
		DownloadBytesPerSec: 100_000,
		UploadBytesPerSec:   50_000,
		Reliability:         0.70,
		TimeoutRate:         0.10,
		Description:         "Flaky connection with frequent drops and timeouts",
	},
	Offline: {
		Name:        Offline,
		Reliability: 0,
		TimeoutRate: 1,
		Description: "No connectivity",
	},
}

// Lookup returns the profile with the given name
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// MustProfile returns the named profile and panics if it is unknown
func MustProfile(name string) Profile {
	p, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("network: unknown profile %q", name))
	}
	return p
}

// Profiles returns every profile sorted by name
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted profile names
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
