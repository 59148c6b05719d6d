package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store counts hits against a key that lives for one window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisStore keeps counters in Redis
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Hit increments the counter for key and (re)arms its expiry
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record hit: %w", err)
	}

	return incr.Val(), nil
}
