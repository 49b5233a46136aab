package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HealthMonitor pings the queue's Redis and logs when the connection drops or recovers
type HealthMonitor struct {
	client *redis.Client
	logger *zap.Logger

	mu      sync.Mutex
	healthy bool
}

func NewHealthMonitor(client *redis.Client, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		client:  client,
		logger:  logger,
		healthy: true,
	}
}

// Check pings Redis once and records the result
func (m *HealthMonitor) Check(ctx context.Context) error {
	err := m.client.Ping(ctx).Err()

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil && m.healthy:
		m.logger.Warn("Redis connection lost", zap.Error(err))
	case err == nil && !m.healthy:
		m.logger.Info("Redis connection restored")
	}
	m.healthy = err == nil
	return err
}

// Healthy reports the result of the last check
func (m *HealthMonitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// Run checks every interval until ctx is done
func (m *HealthMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval/2)
			_ = m.Check(checkCtx)
			cancel()
		}
	}
}
