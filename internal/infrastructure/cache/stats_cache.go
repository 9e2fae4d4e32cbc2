package cache

import (
	"context"
	"encoding/json"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStatsCache caches delivery aggregates in Redis with a short TTL.
// Every failure path degrades to a cache miss.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStatsCache creates a stats cache on an existing Redis client.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ports.StatsCache {
	return &RedisStatsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached aggregate for key, if present.
func (c *RedisStatsCache) Get(ctx context.Context, key string) (*domain.DeliveryStats, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Stats cache read failed")
		return nil, false
	}

	var stats domain.DeliveryStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set stores the aggregate for key.
func (c *RedisStatsCache) Set(ctx context.Context, key string, stats *domain.DeliveryStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Stats cache write failed")
	}
}
