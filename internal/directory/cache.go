package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedgate_directory_cache_lookups_total",
	Help: "Directory cache lookups by outcome",
}, []string{"outcome"}) // outcome: "hit", "miss", "error"

const locationKeyPrefix = "fedgate:location:"

// Cache is a read-through Redis decorator over a directory client. Misses
// in the directory are not cached so a user mid-migration is never pinned
// to "not found" for the TTL.
type Cache struct {
	next   Client
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache wraps next with a Redis cache. Cache failures degrade to direct
// directory lookups; they never fail the login path.
func NewCache(next Client, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{next: next, client: client, ttl: ttl, logger: logger}
}

// Search serves from cache when possible, otherwise consults the directory
// and stores a non-empty result.
func (c *Cache) Search(ctx context.Context, uid string) (string, error) {
	key := locationKeyPrefix + uid

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		cacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "directory cache read failed, falling through", "error", err)
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
	}

	location, err := c.next.Search(ctx, uid)
	if err != nil {
		return "", err
	}

	if location != "" {
		if err := c.client.Set(ctx, key, location, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "directory cache write failed", "error", err)
		}
	}
	return location, nil
}

// Invalidate drops uid's cached location, for provisioning flows that move
// an account and need the next login to see the new node immediately.
func (c *Cache) Invalidate(ctx context.Context, uid string) error {
	return c.client.Del(ctx, locationKeyPrefix+uid).Err()
}
