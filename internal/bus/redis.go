package bus

import (
	"context"
	"encoding/json"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// RedisBus fans change events out over a Redis pub/sub channel so that
// every API instance sees mutations made through any other instance.
type RedisBus struct {
	client  *redis.Client
	channel string
	log     *charmlog.Logger
}

// NewRedisBus connects to Redis and verifies the connection with a ping.
func NewRedisBus(ctx context.Context, cfg config.RedisConfig) (*RedisBus, error) {
	log := logger.Bus()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	log.Info("Connected to Redis", "address", cfg.Address, "channel", cfg.Channel)

	return &RedisBus{
		client:  client,
		channel: cfg.Channel,
		log:     log,
	}, nil
}

// Publish serializes the event and broadcasts it on the configured channel.
func (b *RedisBus) Publish(ctx context.Context, event ChangeEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Error("Failed to publish change event", "cycle_id", event.CycleID, "kind", event.Kind, "error", err)
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	b.log.Debug("Published change event", "cycle_id", event.CycleID, "kind", event.Kind)
	return nil
}

// Subscribe opens a pub/sub subscription and decodes events onto the
// returned channel until ctx is cancelled. Malformed payloads are logged
// and skipped.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	sub := b.client.Subscribe(ctx, b.channel)

	// Wait for the subscription to be confirmed before handing out the channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", b.channel, err)
	}

	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Warn("Dropping malformed change event", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the underlying Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
