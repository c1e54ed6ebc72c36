package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
)

const defaultFailedTaskLimit = 50

// QueueInspector is implemented by brokers that keep their own queue state,
// such as *queue.RedisQueue.
type QueueInspector interface {
	GetQueueStats(ctx context.Context) (*queue.QueueStats, error)
	DLQ() queue.DLQHandler
}

type deliveryService struct {
	broker    string
	health    func(ctx context.Context) error
	inspector QueueInspector
}

// NewDeliveryService describes the running broker. health and inspector
// may be nil when the broker offers no such view.
func NewDeliveryService(broker string, health func(ctx context.Context) error, inspector QueueInspector) DeliveryService {
	return &deliveryService{broker: broker, health: health, inspector: inspector}
}

func (s *deliveryService) Broker() string {
	return s.broker
}

func (s *deliveryService) Health(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	return s.health(ctx)
}

func (s *deliveryService) QueueStats(ctx context.Context) (*queue.QueueStats, error) {
	if s.inspector == nil {
		return nil, entity.NewNotFound("delivery queue")
	}
	stats, err := s.inspector.GetQueueStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return stats, nil
}

func (s *deliveryService) FailedTasks(ctx context.Context, limit int) ([]*queue.FailedTask, error) {
	dlq, err := s.dlq()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultFailedTaskLimit
	}
	return dlq.GetFailedTasks(ctx, limit)
}

func (s *deliveryService) Requeue(ctx context.Context, taskID string) error {
	if taskID == "" {
		return entity.NewValidation("task id is required")
	}
	dlq, err := s.dlq()
	if err != nil {
		return err
	}

	err = dlq.RequeueFailedTask(ctx, taskID)
	if errors.Is(err, queue.ErrTaskNotFound) {
		return entity.NewNotFound("failed task")
	}
	return err
}

func (s *deliveryService) dlq() (queue.DLQHandler, error) {
	if s.inspector == nil || s.inspector.DLQ() == nil {
		return nil, entity.NewNotFound("dead letter queue")
	}
	return s.inspector.DLQ(), nil
}
