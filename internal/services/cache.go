package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nomadland/nomadland/internal/models"
)

const eventCachePrefix = "events:q:"

// EventCache is a Redis read-through cache for expanded event-instance
// queries. Expansion is recomputed on every request, so the hot listing
// endpoint caches its final payload for a short TTL. The cache is optional;
// a nil *EventCache is safe to call and always misses.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventCache connects to Redis and verifies the connection
func NewEventCache(addr, password string, db int, ttl time.Duration) (*EventCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &EventCache{client: client, ttl: ttl}, nil
}

// Key derives a stable cache key from the query filters
func (c *EventCache) Key(params *models.EventListParams) string {
	return eventCachePrefix + strings.Join([]string{
		params.From.Format("2006-01-02"),
		params.To.Format("2006-01-02"),
		fmt.Sprintf("r%d", params.RegionID),
		strings.Join(params.Languages, ","),
	}, ":")
}

// Get returns the cached instance list for key, or (nil, false) on a miss
func (c *EventCache) Get(ctx context.Context, key string) ([]*models.EventInstance, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is an ordinary miss; anything else degrades to a miss too
		return nil, false
	}

	var instances []*models.EventInstance
	if err := json.Unmarshal(data, &instances); err != nil {
		return nil, false
	}
	return instances, true
}

// Set stores the instance list under key with the configured TTL
func (c *EventCache) Set(ctx context.Context, key string, instances []*models.EventInstance) {
	if c == nil {
		return
	}

	data, err := json.Marshal(instances)
	if err != nil {
		return
	}
	// Best effort: a failed write just means the next read recomputes
	c.client.Set(ctx, key, data, c.ttl)
}

// Invalidate drops every cached event query. Called after any event write;
// queries are cheap to recompute and the TTL is short, so a coarse flush
// beats tracking which windows a template intersects.
func (c *EventCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, eventCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}

// Close releases the Redis connection
func (c *EventCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
