package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes queued notifications and passes them to the delivery sink
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(redis asynq.RedisConnOpt, sink Notifier, concurrency int, logger *zap.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}

	server := asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueName: 1,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Warn("Notification delivery failed",
				zap.String("task_type", task.Type()),
				zap.Int("retried", retried),
				zap.Error(err),
			)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliver, HandleDeliver(sink, logger))

	return &Worker{
		server: server,
		mux:    mux,
		logger: logger,
	}
}

// Start begins processing in background goroutines
func (w *Worker) Start() error {
	w.logger.Info("Starting notification worker")
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	return nil
}

// Stop waits for in-flight deliveries and stops the worker
func (w *Worker) Stop() {
	w.server.Shutdown()
	w.logger.Info("Notification worker stopped")
}

// HandleDeliver decodes the task and delivers it. A payload that cannot be decoded is
// never retried.
func HandleDeliver(sink Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var n model.Notification
		if err := json.Unmarshal(task.Payload(), &n); err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
		}
		if n.RecipientID == 0 {
			return fmt.Errorf("notification without recipient: %w", asynq.SkipRetry)
		}

		if err := sink.Notify(ctx, n); err != nil {
			return fmt.Errorf("deliver %s to %d: %w", n.Type, n.RecipientID, err)
		}
		return nil
	}
}
