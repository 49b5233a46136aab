package main

import (
	"fmt"
	"os"

	"github.com/Freeeeeet/tenancy_scheduler/internal/app"
	"github.com/Freeeeeet/tenancy_scheduler/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tenancy",
		Short:         "Viewing bookings, leases and billing for small landlords",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		runDailyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the config and builds the logger shared by every command
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, app.NewLogger(cfg.Environment), nil
}
