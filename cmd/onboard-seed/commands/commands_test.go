package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardkit/harness/internal/db/models"
	"github.com/onboardkit/harness/internal/db/repos"
	"github.com/onboardkit/harness/internal/seed"
	"github.com/onboardkit/harness/test"
	"github.com/onboardkit/harness/test/scenarios"
)

// sqliteOpener returns an opener backed by a per-test SQLite database and counts its calls
func sqliteOpener(t *testing.T) (StoreOpener, *repos.SeedRepository, *int) {
	t.Helper()
	repo := repos.NewSeedRepository(test.NewSeedDB(t))
	calls := 0
	open := func() (seed.Store, func() error, error) {
		calls++
		return repo, func() error { return nil }, nil
	}
	return open, repo, &calls
}

func failingOpener(t *testing.T) StoreOpener {
	return func() (seed.Store, func() error, error) {
		t.Error("the database must not be opened")
		return nil, nil, errors.New("unexpected open")
	}
}

func run(open StoreOpener, args ...string) (string, error) {
	cmd := NewRootCmd(open)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedCmd(t *testing.T) {
	open, repo, calls := sqliteOpener(t)

	out, err := run(open, "seed", "--scenario=minimal")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, seed.Report{Scenario: seed.ScenarioMinimal, Clients: 1, Agreements: 1, AuditEvents: 1}, report)

	count, err := repo.Count(t.Context(), &models.Client{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSeedCmdDefaultsToFull(t *testing.T) {
	open, repo, _ := sqliteOpener(t)

	_, err := run(open, "seed", "--verbose")
	require.NoError(t, err)

	count, err := repo.Count(t.Context(), &models.Agreement{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSeedCmdDryRun(t *testing.T) {
	out, err := run(failingOpener(t), "seed", "--dry-run", "-s", seed.ScenarioFull)
	require.NoError(t, err)

	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, int64(4), report.Clients)
	assert.Equal(t, int64(5), report.Agreements)
}

func TestSeedCmdUnknownScenario(t *testing.T) {
	_, err := run(failingOpener(t), "seed", "--scenario=huge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown seed scenario: huge")
	assert.Contains(t, err.Error(), "empty, full, minimal")
}

func TestSeedCmdOpenError(t *testing.T) {
	open := func() (seed.Store, func() error, error) {
		return nil, nil, errors.New("connection refused")
	}
	_, err := run(open, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCleanupCmd(t *testing.T) {
	open, repo, _ := sqliteOpener(t)
	_, err := run(open, "seed", "--scenario=full")
	require.NoError(t, err)

	out, err := run(open, "cleanup")
	require.NoError(t, err)
	var report seed.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(4), report.Clients)
	assert.Equal(t, int64(5), report.AuditEvents)

	count, err := repo.Count(t.Context(), &models.Client{}, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	// nothing left to delete
	out, err = run(open, "cleanup")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Zero(t, report.Total())
}

func TestCleanupCmdDryRun(t *testing.T) {
	out, err := run(failingOpener(t), "cleanup", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"dry_run": true`)
}

func TestScenariosCmd(t *testing.T) {
	out, err := run(failingOpener(t), "scenarios")
	require.NoError(t, err)

	for _, name := range seed.Scenarios() {
		assert.Contains(t, out, "  "+name+"\n")
	}
	for _, name := range scenarios.NewRegistry().Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Harness scenarios:")
}

func TestMigrateCmdArgs(t *testing.T) {
	tests := []struct {
		args    []string
		message string
	}{
		{args: []string{"migrate", "steps", "0"}, message: "invalid step count"},
		{args: []string{"migrate", "steps", "two"}, message: "invalid step count"},
		{args: []string{"migrate", "force", "v1"}, message: "invalid version"},
		{args: []string{"migrate", "steps"}, message: "accepts 1 arg"},
	}
	for _, tt := range tests {
		_, err := run(failingOpener(t), tt.args...)
		require.Error(t, err, tt.args)
		assert.Contains(t, err.Error(), tt.message)
	}
}

func TestMigrateListCmd(t *testing.T) {
	out, err := run(failingOpener(t), "migrate", "list")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}
