package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"casefile/internal/platform/metrics"
	id "casefile/pkg/domain"
)

// Memory is the in-process cache used by tests and single-node development.
// Safe for concurrent use; singleflight collapses concurrent misses on the
// same key into one computation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewMemory creates an empty in-memory cache. metrics may be nil.
func NewMemory(m *metrics.Metrics) *Memory {
	return &Memory{entries: make(map[string][]byte), metrics: m}
}

func (c *Memory) GetOrCompute(ctx context.Context, profileID id.ProfileID, label string, compute ComputeFunc) ([]byte, error) {
	key := cacheKey(profileID, label)

	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		value, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return value, nil
		}

		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// Keep the first stored value if a writer slipped in between the
		// recheck and the store.
		if existing, ok := c.entries[key]; ok {
			computed = existing
		} else {
			c.entries[key] = computed
		}
		c.mu.Unlock()
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

func (c *Memory) Invalidate(_ context.Context, profileID id.ProfileID, labels ...string) error {
	if len(labels) == 0 {
		labels = AllLabels()
	}
	c.mu.Lock()
	for _, label := range labels {
		delete(c.entries, cacheKey(profileID, label))
	}
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}
	return nil
}

// Len reports the number of cached entries. Test helper.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
