package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
)

const pollTimeout = 500 * time.Millisecond

type Consumer struct {
	c *kafka.Consumer
}

func NewConsumer(brokers, groupID, topic string) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return &Consumer{c: c}, nil
}

// Run hands every record to handle until ctx is cancelled or handle fails.
// The context passed to handle carries the producer's trace.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, key string, value []byte) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := c.c.ReadMessage(pollTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			return err
		}

		if err := handle(ExtractContext(ctx, msg.Headers), string(msg.Key), msg.Value); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.c.Close()
}

// ExtractContext restores the trace injected by Publish.
func ExtractContext(ctx context.Context, headers []kafka.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &headers})
}
