// Package memory provides in-process adapters used by the dev auth mode and tests.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

const defaultSubscriberBuffer = 64

// EventBus fans auth events out to in-process subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event,
// which is logged and counted in Dropped.
type EventBus struct {
	mu      sync.Mutex
	subs    map[int]chan domainauth.AuthEvent
	nextID  int
	buffer  int
	logger  *slog.Logger
	dropped atomic.Uint64
}

var _ ports.AuthEventBus = (*EventBus)(nil)

// NewEventBus creates an EventBus with the given per-subscriber buffer.
func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &EventBus{
		subs:   make(map[int]chan domainauth.AuthEvent),
		buffer: buffer,
		logger: slog.Default().With("component", "memory_event_bus"),
	}
}

// WithLogger sets the logger used to report dropped events.
func (b *EventBus) WithLogger(logger *slog.Logger) *EventBus {
	if logger != nil {
		b.logger = logger.With("component", "memory_event_bus")
	}
	return b
}

// Dropped returns how many deliveries were skipped for full subscribers.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Publish delivers ev to every current subscriber.
func (b *EventBus) Publish(ctx context.Context, ev domainauth.AuthEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
			b.logger.WarnContext(ctx, "auth event dropped for slow subscriber",
				"subscriber", id,
				"type", string(ev.Type),
				"session_id", ev.SessionID,
			)
		}
	}
	return nil
}

// Subscribe registers a subscriber. The channel is closed by cancel or when ctx ends.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan domainauth.AuthEvent, func(), error) {
	ch := make(chan domainauth.AuthEvent, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}
