package appServer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/config"
	"github.com/ds124wfegd/WB_L3/interview/internal/service"
	"github.com/ds124wfegd/WB_L3/interview/internal/worker"
	"github.com/ds124wfegd/WB_L3/interview/pkg/kafka"
	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
	"github.com/ds124wfegd/WB_L3/interview/pkg/rabbitmq"
	"github.com/ds124wfegd/WB_L3/interview/pkg/redis"
)

// deliveryStack is the broker notification tasks travel through. A nil
// publisher means notifications are only stored.
type deliveryStack struct {
	name      string
	publisher service.TaskPublisher
	consume   func(ctx context.Context, h *worker.DeliveryHandler) error
	health    func(ctx context.Context) error
	inspector service.QueueInspector
	closers   []func() error
}

func (d *deliveryStack) inspection() service.DeliveryService {
	return service.NewDeliveryService(d.name, d.health, d.inspector)
}

func (d *deliveryStack) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logrus.WithError(err).WithField("broker", d.name).Error("Failed to close delivery broker")
		}
	}
}

// openDelivery connects the configured broker. A broker that cannot be
// reached is logged and skipped; bookings keep working without delivery.
func openDelivery(ctx context.Context, cfg *config.Config) *deliveryStack {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Delivery.Broker {
	case "redis":
		client, err := redis.NewRedisClient(connectCtx, &cfg.Redis)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize Redis queue, continuing without delivery")
			return &deliveryStack{name: "none"}
		}
		q := queue.NewRedisQueue(client, queue.DefaultRedisQueueConfig())
		return &deliveryStack{
			name:      "redis",
			publisher: service.NewQueueAdapter(q),
			consume: func(ctx context.Context, h *worker.DeliveryHandler) error {
				if err := q.Subscribe(ctx, h.HandleTask); err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			},
			health:    q.HealthCheck,
			inspector: q,
			closers:   []func() error{client.Close, q.Close},
		}

	case "rabbitmq":
		mq, err := rabbitmq.NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize RabbitMQ, continuing without delivery")
			return &deliveryStack{name: "none"}
		}
		return &deliveryStack{
			name:      "rabbitmq",
			publisher: service.NewBrokerAdapter(mq),
			consume: func(ctx context.Context, h *worker.DeliveryHandler) error {
				return worker.ConsumeBroker(ctx, mq, h)
			},
			health:  func(context.Context) error { return mq.HealthCheck() },
			closers: []func() error{mq.Close},
		}

	case "kafka":
		if err := kafka.EnsureTopic(connectCtx, &cfg.Kafka); err != nil {
			logrus.WithError(err).Error("Failed to reach Kafka, continuing without delivery")
			return &deliveryStack{name: "none"}
		}
		producer := kafka.NewProducer(&cfg.Kafka)
		consumer := kafka.NewConsumer(&cfg.Kafka)
		return &deliveryStack{
			name:      "kafka",
			publisher: service.NewBrokerAdapter(producer),
			consume: func(ctx context.Context, h *worker.DeliveryHandler) error {
				return worker.ConsumeBroker(ctx, consumer, h)
			},
			closers: []func() error{producer.Close, consumer.Close},
		}

	default:
		logrus.WithField("broker", cfg.Delivery.Broker).Info("Notification delivery disabled")
		return &deliveryStack{name: "none"}
	}
}
