package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

const conversationTTL = 10 * time.Minute

type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(addr string) *Cache {
	return &Cache{
		Client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		TTL: conversationTTL,
	}
}

func conversationKey(id int64) string {
	return "conv:" + strconv.FormatInt(id, 10)
}

// GetConversation returns nil, nil on a miss.
func (c *Cache) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	val, err := c.Client.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var conv domain.Conversation
	if err := json.Unmarshal(val, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Cache) SetConversation(ctx context.Context, conv *domain.Conversation) error {
	val, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = conversationTTL
	}
	return c.Client.Set(ctx, conversationKey(conv.ID), val, ttl).Err()
}

func (c *Cache) DeleteConversation(ctx context.Context, id int64) error {
	return c.Client.Del(ctx, conversationKey(id)).Err()
}

func (c *Cache) Close() error {
	return c.Client.Close()
}
