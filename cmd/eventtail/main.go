// Command eventtail prints the message events relayed to Kafka by the
// outbox worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/eventing"
	"github.com/SARVESHVARADKAR123/chatbox/internal/kafka"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

type settings struct {
	Brokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string `envconfig:"KAFKA_TOPIC" default:"chat.messages"`
	GroupID string `envconfig:"EVENTTAIL_GROUP" default:"eventtail"`
}

func main() {
	_ = godotenv.Load()
	observability.InitLogger("eventtail", "info")
	log := observability.Log

	var cfg settings
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	consumer, err := kafka.NewConsumer(cfg.Brokers, cfg.GroupID, cfg.Topic)
	if err != nil {
		log.Fatal("kafka consumer failed", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("tailing", zap.String("topic", cfg.Topic))
	err = consumer.Run(ctx, func(ctx context.Context, key string, value []byte) error {
		sent, err := eventing.DecodeMessageSent(value)
		if err != nil {
			observability.GetLogger(ctx).Warn("skipping record", zap.String("key", key), zap.Error(err))
			return nil
		}
		observability.GetLogger(ctx).Info("message sent",
			zap.String("event_id", sent.ID),
			zap.String("channel", sent.Channel()),
			zap.Int64("message_id", sent.Message.ID),
			zap.String("user_id", string(sent.Message.SenderID)),
			zap.String("body", sent.Message.Body),
		)
		return nil
	})
	if err != nil {
		log.Fatal("consumer stopped", zap.Error(err))
	}
}
