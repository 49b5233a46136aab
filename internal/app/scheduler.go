package app

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"go.uber.org/zap"
)

// Scheduler periodically triggers the daily automation. The runner itself skips
// landlords already processed today, so ticking more often than daily is safe.
type Scheduler struct {
	runner   *service.AutomationRunner
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func NewScheduler(runner *service.AutomationRunner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runAutomationTask(ctx)
}

// Stop signals the task and waits for it to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) runAutomationTask(ctx context.Context) {
	defer close(s.done)

	// first pass right at startup
	s.runDaily(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDaily(ctx)
		case <-s.stopChan:
			s.logger.Info("Automation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Automation task cancelled")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	reports, err := s.runner.RunAll(ctx)
	if errors.Is(err, apperr.ErrTooEarly) {
		s.logger.Debug("Automation hour not reached yet")
		return
	}
	if err != nil {
		s.logger.Error("Daily automation finished with errors", zap.Error(err))
	}
	if len(reports) > 0 {
		s.logger.Info("Daily automation pass completed", zap.Int("landlords", len(reports)))
	}
}
