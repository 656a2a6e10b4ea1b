package kafka

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
)

// ContentType marks values as structured CloudEvents.
const ContentType = "application/cloudevents+json"

type Producer struct {
	p     *kafka.Producer
	topic string
}

func NewProducer(brokers, topic string) (*Producer, error) {

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     brokers,
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"retries":                               1000000,
		"max.in.flight.requests.per.connection": 5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		p:     p,
		topic: topic,
	}, nil
}

func (p *Producer) Topic() string {
	return p.topic
}

type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key string, value string) {
	*c.headers = append(*c.headers, kafka.Header{
		Key:   key,
		Value: []byte(value),
	})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func headersFor(ctx context.Context) []kafka.Header {
	headers := []kafka.Header{{Key: "content-type", Value: []byte(ContentType)}}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &headers})
	return headers
}

// Publish blocks until the broker acknowledges the record. Records sharing a
// key land on the same partition, in order.
func (p *Producer) Publish(
	ctx context.Context,
	key string,
	value []byte,
) error {

	deliveryChan := make(chan kafka.Event, 1)

	err := p.p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   value,
		Headers: headersFor(ctx),
	}, deliveryChan)
	if err != nil {
		return err
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		return m.TopicPartition.Error
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits up to timeoutMs for all in-flight messages to be delivered.
func (p *Producer) Flush(timeoutMs int) {
	p.p.Flush(timeoutMs)
}

func (p *Producer) Close() {
	p.p.Close()
}
