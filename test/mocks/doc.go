// Package mocks provides in-memory stand-ins for the external services the
// onboarding application talks to: authentication, object storage and PDF generation.
//
// Each mock follows the same principles:
//  1. Exposes the operation contract of the real service, backed by private in-memory state
//  2. Applies a fault.Config (network delay, error rate, trigger errors) before touching state
//  3. Returns expected failures as *fault.Error values, never panics
//  4. Resets to defaults with Reset, so one instance can serve a whole test run
//
// Time and randomness are injected through Option values, so tests can use a
// fault.FakeClock and a fixed random source:
//
//	clock := fault.NewFakeClock(time.Now())
//	storage := mocks.NewMockStorage(mocks.WithClock(clock), mocks.WithRand(fault.FixedRand(0.5)))
//	storage.Configure(mocks.StorageConfig{Config: fault.Config{NetworkDelay: 2 * time.Second}})
package mocks
