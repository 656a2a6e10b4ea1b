package eventing

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

// RedisBroadcaster publishes each event on its conversation channel, where
// realtime gateways subscribe.
type RedisBroadcaster struct {
	Client *redis.Client
	Source string
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{Client: client, Source: DefaultSource}
}

func (b *RedisBroadcaster) Name() string { return "redis" }

func (b *RedisBroadcaster) Dispatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		data, err := Encode(b.Source, e)
		if err != nil {
			return err
		}
		channel := Channel(e)
		if err := b.Client.Publish(ctx, channel, data).Err(); err != nil {
			return fmt.Errorf("publish %s on %s: %w", e.EventID(), channel, err)
		}
		observability.GetLogger(ctx).Debug("event broadcast",
			zap.String("event_id", e.EventID()),
			zap.String("channel", channel),
		)
	}
	return nil
}
