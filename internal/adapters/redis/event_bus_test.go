package redis

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, ch <-chan domainauth.AuthEvent) domainauth.AuthEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth event")
	}
	return domainauth.AuthEvent{}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	bus := NewEventBus(EventBusOptions{Client: client, Channel: "test:auth"})
	ctx := context.Background()

	a, cancelA, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelA()
	b, cancelB, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelB()

	sess := domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	ev := domainauth.AuthEvent{
		ID:         "ev-1",
		Type:       domainauth.EventSignedIn,
		SessionID:  "s1",
		UserID:     "u1",
		Session:    &sess,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(ctx, ev))

	for _, ch := range []<-chan domainauth.AuthEvent{a, b} {
		got := receiveEvent(t, ch)
		assert.Equal(t, "ev-1", got.ID)
		assert.Equal(t, domainauth.EventSignedIn, got.Type)
		require.NotNil(t, got.Session)
		assert.Equal(t, "u1", got.Session.UserID)
	}
}

func TestEventBus_SkipsMalformedPayload(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	bus := NewEventBus(EventBusOptions{Client: client, Channel: "test:malformed"})
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, client.Publish(ctx, "test:malformed", "not json").Err())
	require.NoError(t, bus.Publish(ctx, domainauth.AuthEvent{ID: "ok", Type: domainauth.EventUserUpdated, UserID: "u1"}))

	got := receiveEvent(t, ch)
	assert.Equal(t, "ok", got.ID)
}

func TestEventBus_CancelClosesChannel(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	bus := NewEventBus(EventBusOptions{Client: client})

	ctx, stop := context.WithCancel(context.Background())
	ch, cancel, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	stop()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
