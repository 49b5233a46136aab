package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeDeliver = "notification:deliver"
	QueueName   = "notifications"

	deliverMaxRetry = 5
	deliverTimeout  = 30 * time.Second
)

// Enqueuer is the part of *asynq.Client the queue notifier needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewDeliverTask wraps a notification into an asynq task
func NewDeliverTask(n model.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return asynq.NewTask(TypeDeliver, payload), nil
}

// QueueNotifier hands notifications to the asynq queue; the worker delivers them
type QueueNotifier struct {
	client Enqueuer
	logger *zap.Logger
}

func NewQueueNotifier(client Enqueuer, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

func (q *QueueNotifier) Notify(ctx context.Context, n model.Notification) error {
	task, err := NewDeliverTask(n)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueName),
		asynq.MaxRetry(deliverMaxRetry),
		asynq.Timeout(deliverTimeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	q.logger.Debug("Notification queued",
		zap.String("task_id", info.ID),
		zap.Int64("recipient_id", n.RecipientID),
		zap.String("type", string(n.Type)),
	)
	return nil
}
