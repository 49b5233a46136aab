package main

import (
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/app"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateStep("up", "Apply all pending migrations", func(cmd *cobra.Command, mg *app.Migrator) error {
			return mg.Run(cmd.Context())
		}),
		migrateStep("down", "Roll back the latest migration", func(cmd *cobra.Command, mg *app.Migrator) error {
			return mg.Down(cmd.Context())
		}),
		migrateStep("version", "Print the current schema version", func(cmd *cobra.Command, mg *app.Migrator) error {
			version, err := mg.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		}),
	)
	return cmd
}

// migrateStep opens only the database; migrations need neither Telegram nor Redis
func migrateStep(use, short string, run func(*cobra.Command, *app.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pool, err := app.NewPool(cmd.Context(), cfg.GetDBDSN())
			if err != nil {
				return err
			}
			defer pool.Close()

			mg, err := app.NewMigrator(pool, logger)
			if err != nil {
				return err
			}
			defer mg.Close()

			return run(cmd, mg)
		},
	}
}
