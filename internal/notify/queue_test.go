package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueName, Type: task.Type()}, nil
}

type recordingSink struct {
	got []model.Notification
	err error
}

func (s *recordingSink) Notify(_ context.Context, n model.Notification) error {
	s.got = append(s.got, n)
	return s.err
}

func TestQueueNotifierEnqueuesDeliverTask(t *testing.T) {
	client := &fakeEnqueuer{}
	q := NewQueueNotifier(client, zap.NewNop())

	note := model.Notification{
		RecipientID: 3,
		Type:        model.NotificationLastMonthDeposit,
		Message:     "covered",
		Metadata:    map[string]string{"bill_id": "12"},
	}
	require.NoError(t, q.Notify(context.Background(), note))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeDeliver, client.tasks[0].Type())

	var decoded model.Notification
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &decoded))
	assert.Equal(t, note, decoded)

	client.err = errors.New("redis: connection refused")
	assert.ErrorContains(t, q.Notify(context.Background(), note), "enqueue notification")
}

func TestHandleDeliver(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	handle := HandleDeliver(sink, zap.NewNop())

	task, err := NewDeliverTask(lateFee)
	require.NoError(t, err)
	require.NoError(t, handle(ctx, task))
	require.Len(t, sink.got, 1)
	assert.Equal(t, lateFee, sink.got[0])

	err = handle(ctx, asynq.NewTask(TypeDeliver, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	orphan, err := NewDeliverTask(model.Notification{Type: model.NotificationNewBooking})
	require.NoError(t, err)
	assert.ErrorIs(t, handle(ctx, orphan), asynq.SkipRetry)

	// sink failures are retried by asynq
	sink.err = errors.New("telegram timeout")
	err = handle(ctx, task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, sink.err)
}
