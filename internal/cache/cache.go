// Package cache holds the optional point result cache. Cached days never change
// once their tiles are stored, so entries only expire to bound memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/domain"
	"go.uber.org/zap"
)

const keyPrefix = "sst:point:"

// PointCache stores aggregated point lookups. Implementations swallow backend
// errors: a cache failure degrades to a miss.
type PointCache interface {
	Get(ctx context.Context, key string) (*domain.PointTemperature, bool)
	Set(ctx context.Context, key string, value *domain.PointTemperature)
	Close() error
}

// PointKey builds the cache key of a point lookup. Coordinates are rounded to
// 4 decimals (~11 m) so near-identical clicks share an entry.
func PointKey(date string, lat, lon, radiusKm float64) string {
	return fmt.Sprintf("%s%s:%.4f:%.4f:%.2f", keyPrefix, date, lat, lon, radiusKm)
}

// New creates the cache selected by cfg.Mode
func New(ctx context.Context, cfg *config.CacheConfig, logger *zap.Logger) (PointCache, error) {
	switch cfg.Mode {
	case "", "none":
		return Nop{}, nil
	case "redis":
		return NewRedisCache(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported cache mode: %s", cfg.Mode)
	}
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.PointTemperature, bool) { return nil, false }
func (Nop) Set(context.Context, string, *domain.PointTemperature)        {}
func (Nop) Close() error                                                 { return nil }

// RedisCache stores JSON encoded lookups in Redis with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg *config.CacheConfig, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Point cache connected to Redis",
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("ttl", cfg.TTLDuration()),
	)
	return &RedisCache{client: client, ttl: cfg.TTLDuration(), logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PointTemperature, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Point cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var value domain.PointTemperature
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("Point cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value *domain.PointTemperature) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Point cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
