package cache

import (
	"context"
	"errors"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSegmentCache keeps routed pairs in Redis with an expiry.
type RedisSegmentCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSegmentCache(client *redis.Client, prefix string, ttl time.Duration) *RedisSegmentCache {
	if prefix == "" {
		prefix = "segment:"
	}
	return &RedisSegmentCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSegmentCache) Get(ctx context.Context, key string) (_ domain.Directions, _ bool, err error) {
	defer obs.Time(ctx, "segment.redis.Get")(&err)

	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Directions{}, false, nil
	}
	if err != nil {
		return domain.Directions{}, false, fmt.Errorf("get segment cache key=%q: %w", key, err)
	}

	d, err := decodeDirections(b)
	if err != nil {
		return domain.Directions{}, false, fmt.Errorf("get segment cache key=%q: %w", key, err)
	}
	return d, true, nil
}

// Put stores d; a zero TTL means the entry never expires.
func (r *RedisSegmentCache) Put(ctx context.Context, key string, d domain.Directions) (err error) {
	defer obs.Time(ctx, "segment.redis.Put")(&err)

	b, err := encodeDirections(d)
	if err != nil {
		return fmt.Errorf("put segment cache key=%q: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("put segment cache key=%q: %w", key, err)
	}
	return nil
}
