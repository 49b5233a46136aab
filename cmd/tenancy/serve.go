package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tenancy_scheduler/internal/app"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, the notification worker and the daily scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Bot == nil {
				return errors.New("serve needs TELEGRAM_TOKEN and NOTIFY_MODE queue or direct")
			}

			if migrate {
				if err := applyMigrations(ctx, a, logger); err != nil {
					return err
				}
			}

			logger.Info("Starting tenancy scheduler",
				zap.String("environment", cfg.Environment),
				zap.String("notify_mode", cfg.NotifyMode),
				zap.String("timezone", cfg.Timezone),
			)

			if a.Worker != nil {
				if err := a.Worker.Start(); err != nil {
					return err
				}
				defer a.Worker.Stop()
			}
			if a.Health != nil {
				if err := a.Health.Check(ctx); err != nil {
					logger.Warn("Notification queue unreachable at startup", zap.Error(err))
				}
				go a.Health.Run(ctx, cfg.AutomationInterval)
			}

			scheduler := app.NewScheduler(a.Runner, cfg.AutomationInterval, logger)
			scheduler.Start(ctx)
			defer scheduler.Stop()

			services := controller.Services{
				Users:    a.Users,
				Slots:    a.Slots,
				Bookings: a.Bookings,
				Leases:   a.Leases,
				Bills:    a.Bills,
				Runner:   a.Runner,
			}
			if a.Health != nil {
				services.QueueHealth = a.Health
			}
			bc := controller.NewBotController(a.Bot, services, cfg.Location(), logger)
			if err := bc.RegisterHandlers(ctx); err != nil {
				logger.Warn("Bot commands menu not updated", zap.Error(err))
			}

			err = bc.Start(ctx)
			logger.Info("Shutting down")
			return err
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before starting")
	return cmd
}

func applyMigrations(ctx context.Context, a *app.App, logger *zap.Logger) error {
	migrator, err := app.NewMigrator(a.Pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Run(ctx)
}
