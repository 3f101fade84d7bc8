package test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/onboardkit/harness/internal/api/client"
	"github.com/onboardkit/harness/internal/db/repos"
	"github.com/onboardkit/harness/internal/seed"
)

// Suite bundles what an integration test of the onboarding flow needs:
//   - a Harness with every mock service and the network simulator
//   - a migrated SQLite database with the seed and client repositories
//   - the mock endpoint served over HTTP with a client pointed at it
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	*Harness

	// Server components
	Server    *httptest.Server
	APIClient *client.Client

	// Database components
	DB         *gorm.DB
	SeedRepo   *repos.SeedRepository
	ClientRepo *repos.ClientRepository
	Seeder     *seed.Seeder

	// Cleanup function
	cleanup func()
}

// SetS sets the suite instance for this suite
func (s *Suite) SetS(_ suite.TestingSuite) {
	// This method is required by suite.TestingSuite but we don't need to do anything here
}

// SetT sets the testing.T instance for this suite
func (s *Suite) SetT(t *testing.T) {
	s.t = t
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// NewSuite creates a suite with a database, a harness and a running server.
// The suite is torn down when t finishes.
func NewSuite(t *testing.T, opts ...Option) *Suite {
	t.Helper()

	s := &Suite{t: t, Harness: NewHarness(opts...)}
	s.cleanup = s.Harness.Close

	conn, tmpDir, err := NewFileBasedTestDB()
	s.Require().NoError(err, "Failed to create file-based database")
	s.DB = conn
	s.SeedRepo = repos.NewSeedRepository(conn)
	s.ClientRepo = repos.NewClientRepository(conn)
	s.Seeder = seed.NewSeeder(s.SeedRepo)
	s.addCleanup(func() { CleanupTestDB(conn, tmpDir) })

	s.Server, s.APIClient = s.StartServer(t)
	t.Cleanup(s.Cleanup)
	return s
}

func (s *Suite) addCleanup(fn func()) {
	previous := s.cleanup
	s.cleanup = func() {
		fn()
		if previous != nil {
			previous()
		}
	}
}

// Cleanup tears down the suite, releasing all resources. It is safe to call twice.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Context returns the harness context, which is canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.Harness.Context()
}

// Require returns a require.Assertions instance for this suite.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Seed writes a seed scenario and fails the test on error
func (s *Suite) Seed(scenario string) seed.Report {
	s.t.Helper()
	report, err := s.Seeder.Seed(s.Context(), scenario)
	s.Require().NoError(err, "Failed to seed %s", scenario)
	return report
}

// Retry calls fn until it succeeds or retries attempts are used, waiting interval
// on the harness clock between attempts. It returns the last error.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == retries-1 {
			break
		}
		if sleepErr := s.Clock().Sleep(s.Context(), interval); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}
