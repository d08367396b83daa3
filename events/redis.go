package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const DefaultChannel = "orders.created"

// RedisPublisher forwards order events to a redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) HandleOrderCreated(ctx context.Context, e OrderCreated) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}
