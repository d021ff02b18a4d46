package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

const (
	defaultFlashPrefix = "flash:"
	defaultFlashTTL    = 10 * time.Minute
)

// FlashStore queues notifications per browser session in a Redis list.
// Push is idempotent per Notification.ID within the TTL.
type FlashStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.FlashStore = (*FlashStore)(nil)

// NewFlashStore creates a flash store. A zero ttl uses ten minutes.
func NewFlashStore(client redis.UniversalClient, ttl time.Duration) *FlashStore {
	if ttl <= 0 {
		ttl = defaultFlashTTL
	}
	return &FlashStore{client: client, prefix: defaultFlashPrefix, ttl: ttl}
}

// NewFlashStoreWithPrefix creates a flash store whose keys start with prefix.
func NewFlashStoreWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *FlashStore {
	s := NewFlashStore(client, ttl)
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

func (s *FlashStore) listKey(sessionID string) string { return s.prefix + sessionID }
func (s *FlashStore) seenKey(id string) string        { return s.prefix + "seen:" + id }

// Push appends n to the session's queue unless a notification with the same
// ID was already queued.
func (s *FlashStore) Push(ctx context.Context, sessionID string, n domainauth.Notification) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if n.ID != "" {
		fresh, err := s.client.SetNX(ctx, s.seenKey(n.ID), 1, s.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis setnx: %w", err)
		}
		if !fresh {
			return nil
		}
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := s.listKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

// Drain returns and removes every queued notification for the session.
func (s *FlashStore) Drain(ctx context.Context, sessionID string) ([]domainauth.Notification, error) {
	if sessionID == "" {
		return nil, nil
	}

	key := s.listKey(sessionID)
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	raw := items.Val()
	out := make([]domainauth.Notification, 0, len(raw))
	var decodeErrs []error
	for _, item := range raw {
		var n domainauth.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			decodeErrs = append(decodeErrs, err)
			continue
		}
		out = append(out, n)
	}
	if len(decodeErrs) > 0 {
		return out, fmt.Errorf("decode notifications: %w", errors.Join(decodeErrs...))
	}
	return out, nil
}
