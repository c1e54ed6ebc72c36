package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
)

type fakeDLQ struct {
	failed   []*queue.FailedTask
	limit    int
	requeued []string
}

func (d *fakeDLQ) HandleFailedTask(task *queue.Task, err error) {
	d.failed = append(d.failed, &queue.FailedTask{Task: task, Error: err.Error(), Attempts: task.Attempts})
}

func (d *fakeDLQ) GetFailedTasks(ctx context.Context, limit int) ([]*queue.FailedTask, error) {
	d.limit = limit
	return d.failed, nil
}

func (d *fakeDLQ) RequeueFailedTask(ctx context.Context, taskID string) error {
	for i, ft := range d.failed {
		if ft.Task.ID == taskID {
			d.failed = append(d.failed[:i], d.failed[i+1:]...)
			d.requeued = append(d.requeued, taskID)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", taskID, queue.ErrTaskNotFound)
}

type fakeInspector struct {
	stats *queue.QueueStats
	dlq   queue.DLQHandler
	err   error
}

func (i *fakeInspector) GetQueueStats(ctx context.Context) (*queue.QueueStats, error) {
	return i.stats, i.err
}

func (i *fakeInspector) DLQ() queue.DLQHandler { return i.dlq }

func TestDeliveryService_QueueInspection(t *testing.T) {
	ctx := context.Background()
	dlq := &fakeDLQ{}
	dlq.HandleFailedTask(&queue.Task{ID: "t-1", Type: queue.TaskTypeDeliverNotification, Attempts: 3}, errors.New("telegram down"))

	svc := NewDeliveryService("redis", func(context.Context) error { return nil },
		&fakeInspector{stats: &queue.QueueStats{MainQueue: 2, DLQ: 1}, dlq: dlq})

	assert.Equal(t, "redis", svc.Broker())
	assert.NoError(t, svc.Health(ctx))

	stats, err := svc.QueueStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.DLQ)

	failed, err := svc.FailedTasks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "telegram down", failed[0].Error)
	assert.Equal(t, defaultFailedTaskLimit, dlq.limit)

	assert.True(t, entity.IsValidation(svc.Requeue(ctx, "")))
	assert.True(t, entity.IsNotFound(svc.Requeue(ctx, "missing")))
	require.NoError(t, svc.Requeue(ctx, "t-1"))
	assert.Equal(t, []string{"t-1"}, dlq.requeued)
}

func TestDeliveryService_WithoutQueue(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection is closed")
	svc := NewDeliveryService("rabbitmq", func(context.Context) error { return down }, nil)

	assert.ErrorIs(t, svc.Health(ctx), down)

	_, err := svc.QueueStats(ctx)
	assert.True(t, entity.IsNotFound(err))
	_, err = svc.FailedTasks(ctx, 10)
	assert.True(t, entity.IsNotFound(err))
	assert.True(t, entity.IsNotFound(svc.Requeue(ctx, "t-1")))

	noDLQ := NewDeliveryService("redis", nil, &fakeInspector{stats: &queue.QueueStats{}})
	_, err = noDLQ.FailedTasks(ctx, 10)
	assert.True(t, entity.IsNotFound(err))
}
