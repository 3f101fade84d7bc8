// Package test provides the harness that wires the mock services together for tests
// of the onboarding application.
//
// A Harness owns one instance of each mock (auth, storage, PDF) and the network
// simulator, all sharing one clock and random source. Tests configure every
// service at once from a named scenario and reset them in one call:
//
//	func TestUploadRetries(t *testing.T) {
//	    h := test.NewHarness(test.WithClock(fault.NewFakeClock(time.Now())))
//	    h.Cleanup(t)
//
//	    require.NoError(t, h.ConfigureScenario(scenarios.Unreliable))
//	    // exercise code that talks to h.Storage, h.Auth and h.PDF
//	}
//
// The package also provides:
//
//   - Server: a fiber app exposing the mocks over HTTP, for code that talks to
//     the services through URLs rather than Go calls
//
//   - NewSeedDB: a migrated sqlite database for seed and cleanup tests
//
//   - Suite: a testify suite bundling a harness, a server and a database
package test
