package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"salon/internal/metrics"
	"salon/internal/store"
)

// Cache holds precomputed month summaries keyed by "yyyy-mm".
type Cache interface {
	Get(ctx context.Context, month string) (Summary, bool, error)
	Set(ctx context.Context, month string, s Summary) error
	Invalidate(ctx context.Context, month string) error
}

// MonthKey names the cache slot for the month containing t in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01")
}

// RedisCache stores summaries as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a cache; ttl <= 0 keeps entries until invalidated.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(month string) string { return store.Key("insights", month) }

// Get returns false when the month is not cached.
func (c *RedisCache) Get(ctx context.Context, month string) (Summary, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(month)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.SummaryCache.WithLabelValues("miss").Inc()
		return Summary{}, false, nil
	}
	if err != nil {
		metrics.SummaryCache.WithLabelValues("error").Inc()
		return Summary{}, false, fmt.Errorf("read summary cache: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		metrics.SummaryCache.WithLabelValues("error").Inc()
		return Summary{}, false, fmt.Errorf("decode summary cache: %w", err)
	}
	metrics.SummaryCache.WithLabelValues("hit").Inc()
	return s, true, nil
}

// Set overwrites the cached summary for month.
func (c *RedisCache) Set(ctx context.Context, month string, s Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(month), raw, c.ttl).Err()
}

// Invalidate drops the cached summary for month.
func (c *RedisCache) Invalidate(ctx context.Context, month string) error {
	return c.client.Del(ctx, redisKey(month)).Err()
}

// MemoryCache is a process-local cache used with the in-memory queue.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Summary
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]Summary{}}
}

func (c *MemoryCache) Get(_ context.Context, month string) (Summary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[month]
	if ok {
		metrics.SummaryCache.WithLabelValues("hit").Inc()
	} else {
		metrics.SummaryCache.WithLabelValues("miss").Inc()
	}
	return s, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, month string, s Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[month] = s
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, month string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, month)
	return nil
}

// NoCache never stores anything.
type NoCache struct{}

func (NoCache) Get(context.Context, string) (Summary, bool, error) { return Summary{}, false, nil }
func (NoCache) Set(context.Context, string, Summary) error         { return nil }
func (NoCache) Invalidate(context.Context, string) error           { return nil }
