package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
)

// Messenger sends a text message to a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// MessageConsumer is a broker that hands raw message bodies to a handler
// until ctx is done.
type MessageConsumer interface {
	Consume(ctx context.Context, handler func(message []byte) error) error
}

// DeliveryHandler delivers notification tasks through a messenger. Without
// one it only logs the notification.
type DeliveryHandler struct {
	messenger Messenger
	chatID    string
	timeout   time.Duration
}

func NewDeliveryHandler(messenger Messenger, chatID string) *DeliveryHandler {
	return &DeliveryHandler{messenger: messenger, chatID: chatID, timeout: 10 * time.Second}
}

func (h *DeliveryHandler) HandleTask(task *queue.Task) error {
	switch task.Type {
	case queue.TaskTypeDeliverNotification:
		return h.deliver(task)
	default:
		return fmt.Errorf("unknown task type %q: %w", task.Type, queue.ErrPermanent)
	}
}

// HandleMessage decodes a JSON task published through rabbitmq or kafka.
func (h *DeliveryHandler) HandleMessage(body []byte) error {
	var task queue.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return fmt.Errorf("invalid task message: %v: %w", err, queue.ErrPermanent)
	}
	task.Attempts++
	return h.HandleTask(&task)
}

func (h *DeliveryHandler) deliver(task *queue.Task) error {
	id := task.GetInt64("notification_id")
	if id == 0 {
		return fmt.Errorf("task %s has no notification_id: %w", task.ID, queue.ErrPermanent)
	}

	entry := logrus.WithFields(logrus.Fields{
		"task_id":         task.ID,
		"notification_id": id,
		"interviewer_id":  task.GetInt64("interviewer_id"),
		"type":            task.GetString("type"),
		"attempt":         task.Attempts,
	})

	if h.messenger == nil {
		entry.WithField("title", task.GetString("title")).Info("Notification delivered to log")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	text := task.GetString("title") + "\n" + task.GetString("message")
	if err := h.messenger.SendMessage(ctx, h.chatID, text); err != nil {
		entry.WithError(err).Warn("Notification delivery failed")
		return fmt.Errorf("failed to send notification %d: %w", id, err)
	}

	entry.Info("Notification delivered")
	return nil
}

// ConsumeBroker runs consumer until ctx is done.
func ConsumeBroker(ctx context.Context, consumer MessageConsumer, h *DeliveryHandler) error {
	logrus.Info("Delivery consumer started")
	defer logrus.Info("Delivery consumer stopped")
	return consumer.Consume(ctx, h.HandleMessage)
}
