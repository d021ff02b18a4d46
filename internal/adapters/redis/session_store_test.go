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

func testSession(id string, ttl time.Duration) domainauth.Session {
	return domainauth.Session{
		ID:        id,
		UserID:    "user-123",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "user@example.com",
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, session))

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.FirstName, retrieved.FirstName)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("test-session-delete", 30*time.Minute)))
	require.NoError(t, store.Delete(ctx, "test-session-delete"))

	_, err := store.Get(ctx, "test-session-delete")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	assert.NoError(t, store.Delete(ctx, "never-existed"))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RejectsInvalid(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, testSession("", time.Hour)))
	assert.Error(t, store.Save(ctx, testSession("expired", -time.Minute)))
}

func TestSessionStore_KeyExpiresWithSession(t *testing.T) {
	client, mr := testutil.SetupMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("ttl", 10*time.Minute)))
	assert.True(t, mr.Exists("session:ttl"))
	ttl := mr.TTL("session:ttl")
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 2)

	mr.FastForward(11 * time.Minute)
	_, err := store.Get(ctx, "ttl")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_GetDropsSessionExpiredByClock(t *testing.T) {
	client, mr := testutil.SetupMiniredis(t)
	store := NewSessionStoreWithPrefix(client, "s:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("drift", time.Hour)))
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := store.Get(ctx, "drift")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.False(t, mr.Exists("s:drift"))
}

func TestSessionStore_GetMalformed(t *testing.T) {
	client, mr := testutil.SetupMiniredis(t)
	store := NewSessionStore(client)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainauth.ErrSessionNotFound)
}
