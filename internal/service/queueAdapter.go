package service

import (
	"context"

	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
)

// QueueAdapter adapts queue.Queue to TaskPublisher.
type QueueAdapter struct {
	queue queue.Queue
}

func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

func (a *QueueAdapter) Publish(ctx context.Context, task *Task) error {
	if a.queue == nil {
		return nil
	}

	return a.queue.Publish(ctx, &queue.Task{
		ID:         task.ID,
		Type:       queue.TaskType(task.Type),
		Data:       task.Data,
		ExecuteAt:  task.ExecuteAt,
		MaxRetries: task.MaxRetries,
		Attempts:   task.Attempts,
	})
}

// MessagePublisher is a broker that takes whole JSON messages, such as the
// rabbitmq and kafka publishers.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, message interface{}) error
}

// BrokerAdapter publishes tasks as JSON messages keyed by task type.
type BrokerAdapter struct {
	broker MessagePublisher
}

func NewBrokerAdapter(b MessagePublisher) *BrokerAdapter {
	return &BrokerAdapter{broker: b}
}

func (a *BrokerAdapter) Publish(ctx context.Context, task *Task) error {
	if a.broker == nil {
		return nil
	}
	return a.broker.Publish(ctx, task.Type, task)
}
