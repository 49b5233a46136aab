package main

import (
	"encoding/json"

	"github.com/Freeeeeet/tenancy_scheduler/internal/app"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/spf13/cobra"
)

func runDailyCmd() *cobra.Command {
	var landlordID int64

	cmd := &cobra.Command{
		Use:   "run-daily",
		Short: "Run today's reminders, late fees and last-month deposit checks once",
		Long: "Runs the daily automation for every landlord, or for one with --landlord.\n" +
			"Landlords already processed today are skipped. Reports are printed as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var reports []*service.RunReport
			if landlordID != 0 {
				report, err := a.Runner.RunForLandlord(cmd.Context(), landlordID)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			} else {
				reports, err = a.Runner.RunAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}

	cmd.Flags().Int64Var(&landlordID, "landlord", 0, "run for a single landlord id")
	return cmd
}
