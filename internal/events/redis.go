package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the redis channel events are published on.
const DefaultChannel = "mudra:events"

// RedisPublisher publishes events as JSON on a redis pub/sub channel.
// It is safe for concurrent use.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher connects to redis with opts. An empty channel uses DefaultChannel.
func NewRedisPublisher(opts *redis.Options, channel string, logger zerolog.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		rdb:     redis.NewClient(opts),
		channel: channel,
		logger:  logger.With().Str("component", "redis").Logger(),
	}
}

// Name returns the publisher's name.
func (p *RedisPublisher) Name() string { return "redis" }

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string { return p.channel }

// Ping verifies redis connectivity.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Publish sends e on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe calls fn for every event received on the channel until ctx is done.
// Messages that are not valid events are logged and skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, fn func(Event)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe starts is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", p.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			e, err := Decode([]byte(msg.Payload))
			if err != nil {
				p.logger.Warn().Err(err).Msg("skipping malformed event")
				continue
			}
			fn(e)
		}
	}
}

// Close closes the redis connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
