package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

const (
	defaultEventChannel = "plaza:auth-events"
	eventSubscriberBuf  = 64
)

// EventBusOptions configures EventBus.
type EventBusOptions struct {
	Client  redis.UniversalClient
	Channel string       // Optional: defaults to plaza:auth-events
	Logger  *slog.Logger // Optional: structured logger
}

// EventBus carries auth events between API instances over Redis pub/sub.
// Delivery is at most once; subscribers that are not connected miss events.
type EventBus struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

var _ ports.AuthEventBus = (*EventBus)(nil)

// NewEventBus creates a Redis pub/sub event bus.
func NewEventBus(opts EventBusOptions) *EventBus {
	channel := opts.Channel
	if channel == "" {
		channel = defaultEventChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		client:  opts.Client,
		channel: channel,
		logger:  logger.With("component", "redis_event_bus"),
	}
}

// Publish encodes ev as JSON and publishes it on the channel.
func (b *EventBus) Publish(ctx context.Context, ev domainauth.AuthEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server. The
// returned channel closes after cancel or when ctx ends.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan domainauth.AuthEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domainauth.AuthEvent, eventSubscriberBuf)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				b.logger.Debug("close pubsub", "error", err)
			}
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domainauth.AuthEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("discarding malformed auth event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				case <-ctx.Done():
					cancel()
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
