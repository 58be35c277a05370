package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores lookup results keyed by IP address.
type Cache interface {
	Get(ctx context.Context, ip string) (Location, bool)
	Set(ctx context.Context, ip string, loc Location)
}

// NopCache is used when no Redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Location, bool) { return Location{}, false }
func (NopCache) Set(context.Context, string, Location)        {}

// RedisCache keeps lookup results in Redis with a fixed TTL. Cache errors
// are logged and treated as misses; the cache never blocks a lookup.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, ip string) (Location, bool) {
	raw, err := c.client.Get(ctx, cacheKey(ip)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("geoip cache read failed", zap.Error(err))
		}
		return Location{}, false
	}

	var loc Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		c.logger.Warn("geoip cache entry corrupt", zap.String("ip", ip), zap.Error(err))
		return Location{}, false
	}
	return loc, true
}

func (c *RedisCache) Set(ctx context.Context, ip string, loc Location) {
	payload, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(ip), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("geoip cache write failed", zap.Error(err))
	}
}

func cacheKey(ip string) string {
	return "geoip:" + ip
}
