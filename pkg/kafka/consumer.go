package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/config"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg *config.KafkaConfig) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &Consumer{reader: reader}
}

// Consume blocks until ctx is done. A message is committed only after
// handler accepts it; a rejected message is logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(message []byte) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}

		if err := handler(msg.Value); err != nil {
			logrus.WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).WithError(err).Error("Failed to handle kafka message")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("Failed to commit kafka message")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
