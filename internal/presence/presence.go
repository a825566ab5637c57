package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store mirrors the hub's in-memory presence into Redis with a TTL, so the
// REST facade and sibling instances can answer presence lookups without
// reaching the hub. The hub remains the source of truth; mirror writes are
// best-effort.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *Store) SetOnline(ctx context.Context, userID string) error {
	return s.rdb.Set(ctx, s.key(userID), "online", s.ttl).Err()
}

// Refresh re-arms the TTL for a still-connected user.
func (s *Store) Refresh(ctx context.Context, userID string) error {
	return s.rdb.Expire(ctx, s.key(userID), s.ttl).Err()
}

func (s *Store) SetOffline(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, s.key(userID)).Err()
}

func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "online", nil
}
