package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onboardkit/harness/internal/seed"
	"github.com/onboardkit/harness/test/scenarios"
)

func newSeedCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the fixture rows of a scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			scenario, err := cmd.Flags().GetString(flagScenario)
			if err != nil {
				return err
			}
			if _, err := seed.BuildPlan(scenario); err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(seed.Scenarios(), ", "))
			}

			seeder, closeStore, err := newSeeder(cmd, open)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeStore()) }()

			report, err := seeder.Seed(cmd.Context(), scenario)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringP(flagScenario, "s", seed.ScenarioFull, "Seed scenario: "+strings.Join(seed.Scenarios(), ", "))
	return cmd
}

func newCleanupCmd(open StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete every fixture row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			seeder, closeStore, err := newSeeder(cmd, open)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeStore()) }()

			report, err := seeder.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List seed scenarios and harness scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Seed scenarios:")
			for _, name := range seed.Scenarios() {
				fmt.Fprintf(w, "  %s\n", name)
			}

			registry := scenarios.NewRegistry()
			fmt.Fprintln(w, "Harness scenarios:")
			for _, name := range registry.Names() {
				preset, err := registry.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-12s %s\n", name, preset.Description)
			}
			return nil
		},
	}
}
