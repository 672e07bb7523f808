package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Beegash/BBWallet/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher appends an event to a named stream.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
	Close() error
}

// NewPublisher returns the publisher for the configured EVENT_BROKER.
func NewPublisher(cfg *config.Config, client *redis.Client, logger *zap.Logger) Publisher {
	if cfg.EventBroker == config.BrokerKafka {
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
	}
	return NewRedisPublisher(client)
}

// RedisPublisher writes events to Redis Streams under the "event" field.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event, err := NewEvent(eventType, data)
	if err != nil {
		return err
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }
