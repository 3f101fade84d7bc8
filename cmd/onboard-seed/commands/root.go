package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/onboardkit/harness/internal/config"
	"github.com/onboardkit/harness/internal/db"
	"github.com/onboardkit/harness/internal/db/repos"
	"github.com/onboardkit/harness/internal/logger"
	"github.com/onboardkit/harness/internal/seed"
)

// flag names
const (
	flagVerbose  = "verbose"
	flagDryRun   = "dry-run"
	flagScenario = "scenario"
)

// StoreOpener connects to the seed database. The returned func closes the connection.
type StoreOpener func() (seed.Store, func() error, error)

// openDatabase connects to postgres using the DB_* environment
func openDatabase() (seed.Store, func() error, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.New(cfg.Options())
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	return repos.NewSeedRepository(conn), sqlDB.Close, nil
}

// NewRootCmd builds the command tree. open is called only when rows are actually written or deleted.
func NewRootCmd(open StoreOpener) *cobra.Command {
	root := &cobra.Command{
		Use:   "onboard-seed",
		Short: "Seed and clean the onboarding fixture data",
		Long: `onboard-seed writes the client, agreement and audit fixtures used by the
onboarding tests to the database, and removes them again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.InitializeAndConfigure()
			logger.SetTextOutput()
			if verbose, _ := cmd.Flags().GetBool(flagVerbose); verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")
	root.PersistentFlags().Bool(flagDryRun, false, "Report what would change without touching the database")

	root.AddCommand(newSeedCmd(open))
	root.AddCommand(newCleanupCmd(open))
	root.AddCommand(newScenariosCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// Execute runs the command tree against the configured database
func Execute() error {
	return NewRootCmd(openDatabase).Execute()
}

// newSeeder opens the store unless this is a dry run
func newSeeder(cmd *cobra.Command, open StoreOpener) (*seed.Seeder, func() error, error) {
	dryRun, err := cmd.Flags().GetBool(flagDryRun)
	if err != nil {
		return nil, nil, err
	}
	if dryRun {
		return seed.NewSeeder(nil, seed.WithDryRun(true)), func() error { return nil }, nil
	}
	store, closeStore, err := open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return seed.NewSeeder(store), closeStore, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
