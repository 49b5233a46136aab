package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/config"
	"github.com/Freeeeeet/tenancy_scheduler/internal/notify"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/go-redis/redis/v8"
	"github.com/go-telegram/bot"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App owns the connections and the services built on top of them
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool
	Bot    *bot.Bot

	Users    *service.UserService
	Slots    *service.SlotService
	Bookings *service.BookingService
	Leases   *service.LeaseService
	Bills    *service.BillService
	Runner   *service.AutomationRunner

	Worker *notify.Worker
	Health *notify.HealthMonitor

	userRepo *repository.UserRepository
	queue    *asynq.Client
	redis    *redis.Client
}

// New connects to Postgres and, depending on the notify mode, to Telegram and Redis
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := NewPool(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
	}

	if cfg.NotifyMode != config.NotifyModeLog {
		a.Bot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
	}

	db := base.NewRepository(pool)
	a.userRepo = repository.NewUserRepository(db)

	notifier, err := a.notifier()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.buildServices(db, notifier)

	return a, nil
}

// NewPool opens and pings the connection pool
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (a *App) notifier() (service.Notifier, error) {
	cfg := a.Config
	switch cfg.NotifyMode {
	case config.NotifyModeLog:
		return notify.NewLogNotifier(a.Logger), nil
	case config.NotifyModeDirect:
		return notify.NewTelegramNotifier(a.Bot, a.userRepo, a.Logger), nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	a.queue = asynq.NewClient(redisOpt)
	a.Worker = notify.NewWorker(redisOpt, notify.NewTelegramNotifier(a.Bot, a.userRepo, a.Logger),
		cfg.AutomationWorkers, a.Logger)

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.Health = notify.NewHealthMonitor(a.redis, a.Logger)

	return notify.NewQueueNotifier(a.queue, a.Logger), nil
}

func (a *App) buildServices(db *base.Repository, notifier service.Notifier) {
	var (
		loc          = a.Config.Location()
		now          = time.Now
		users        = a.userRepo
		properties   = repository.NewPropertyRepository(db)
		applications = repository.NewApplicationRepository(db)
		slots        = repository.NewSlotRepository(db)
		bookings     = repository.NewBookingRepository(db)
		occupancies  = repository.NewOccupancyRepository(db)
		bills        = repository.NewBillRepository(db)
		balances     = repository.NewBalanceRepository(db)
		runs         = repository.NewAutomationRepository(db)
	)

	a.Users = service.NewUserService(users, a.Logger)
	a.Slots = service.NewSlotService(users, slots, now, loc, a.Logger)
	a.Bookings = service.NewBookingService(db, users, properties, bookings, applications, a.Slots, notifier, now, loc, a.Logger)
	a.Bills = service.NewBillService(db, bills, balances, notifier, now, loc, a.Logger)
	a.Leases = service.NewLeaseService(db, users, properties, occupancies, bills, a.Bills, notifier, now, loc, a.Logger)
	a.Runner = service.NewAutomationRunner(db, occupancies, bills, runs, a.Leases, notifier, now, loc, a.Logger,
		service.RunnerOptions{
			Hour:    a.Config.AutomationHour,
			Workers: a.Config.AutomationWorkers,
		})
}

// Close releases every connection the app opened
func (a *App) Close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.Logger.Warn("Failed to close queue client", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	a.Pool.Close()
}
