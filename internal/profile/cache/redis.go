package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"casefile/internal/platform/metrics"
	platformredis "casefile/internal/platform/redis"
	id "casefile/pkg/domain"
)

// Redis is the cross-instance cache backend. SetNX guarantees at most one
// stored value per key even when several instances compute concurrently;
// singleflight additionally collapses concurrent misses within one process.
// A zero TTL means entries live until invalidated, which is the correctness
// mechanism either way.
type Redis struct {
	client  *platformredis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewRedis creates a Redis-backed cache. metrics may be nil.
func NewRedis(client *platformredis.Client, ttl time.Duration, m *metrics.Metrics) *Redis {
	return &Redis{client: client, ttl: ttl, metrics: m}
}

func (c *Redis) GetOrCompute(ctx context.Context, profileID id.ProfileID, label string, compute ComputeFunc) ([]byte, error) {
	key := cacheKey(profileID, label)

	value, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		stored, err := c.client.SetNX(ctx, key, computed, c.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("cache store %s: %w", key, err)
		}
		if !stored {
			// Another instance won the race; its value is authoritative.
			if existing, err := c.client.Get(ctx, key).Bytes(); err == nil {
				return existing, nil
			}
		}
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	return result.([]byte), nil
}

func (c *Redis) Invalidate(ctx context.Context, profileID id.ProfileID, labels ...string) error {
	if len(labels) == 0 {
		labels = AllLabels()
	}
	keys := make([]string, 0, len(labels))
	for _, label := range labels {
		keys = append(keys, cacheKey(profileID, label))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", profileID, err)
	}
	if c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}
	return nil
}
