package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/onboardkit/harness/internal/config"
	"github.com/onboardkit/harness/internal/db/migrations"
)

// flag names
const (
	flagDatabaseURL = "db"
	flagRetries     = "retries"
	flagRetryWait   = "retry-wait"
)

// withMigrations connects the migration runner and hands it to fn
func withMigrations(cmd *cobra.Command, fn func(*migrations.MigrationService) error) (err error) {
	cfg := migrations.DefaultConfig()
	if cfg.DatabaseURL, err = cmd.Flags().GetString(flagDatabaseURL); err != nil {
		return err
	}
	if cfg.RetryAttempts, err = cmd.Flags().GetInt(flagRetries); err != nil {
		return err
	}
	if cfg.RetryDelay, err = cmd.Flags().GetDuration(flagRetryWait); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		dbCfg, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		cfg.DatabaseURL = dbCfg.Options().URL()
	}

	service, err := migrations.NewMigrationService(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, service.Close()) }()
	return fn(service)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the SQL schema",
	}
	defaults := migrations.DefaultConfig()
	cmd.PersistentFlags().String(flagDatabaseURL, "", "Database URL (defaults to the DB_* environment)")
	cmd.PersistentFlags().Int(flagRetries, defaults.RetryAttempts, "Number of connection retries")
	cmd.PersistentFlags().Duration(flagRetryWait, defaults.RetryDelay, "Wait time between retries")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrations(cmd, (*migrations.MigrationService).Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrations(cmd, (*migrations.MigrationService).Down)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back when N is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count: %q", args[0])
			}
			return withMigrations(cmd, func(s *migrations.MigrationService) error {
				return s.Steps(n)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Force the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return fmt.Errorf("invalid version: %q", args[0])
			}
			return withMigrations(cmd, func(s *migrations.MigrationService) error {
				if err := s.Force(version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forced version %d\n", version)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrations(cmd, func(s *migrations.MigrationService) error {
				version, dirty, err := s.Version()
				if err != nil {
					return fmt.Errorf("failed to read version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the embedded migration versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := migrations.Versions()
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	})
	return cmd
}
