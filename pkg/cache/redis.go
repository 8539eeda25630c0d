package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	backendRedis     = "redis"
	redisDialTimeout = 5 * time.Second
)

// RedisConfig holds connection parameters for the Redis cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key
	Logger   *zap.Logger
}

// RedisCache is a Cache shared between processes through Redis.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &RedisCache{
		rdb:    rdb,
		prefix: cfg.Prefix,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves a value. Redis errors count as misses.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			CacheErrorsTotal.WithLabelValues(backendRedis).Inc()
			r.logger.Warn("cache-get-failed",
				zap.String("key", key),
				zap.Error(err))
		}
		CacheMissesTotal.WithLabelValues(backendRedis).Inc()
		return "", false
	}

	CacheHitsTotal.WithLabelValues(backendRedis).Inc()
	return value, true
}

// Set stores a value with a TTL.
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) bool {
	err := r.rdb.Set(ctx, r.prefix+key, value, ttl).Err()
	if err != nil {
		CacheErrorsTotal.WithLabelValues(backendRedis).Inc()
		r.logger.Warn("cache-set-failed",
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	CacheSetsTotal.WithLabelValues(backendRedis).Inc()
	return true
}

// Delete removes a value.
func (r *RedisCache) Delete(ctx context.Context, key string) {
	err := r.rdb.Del(ctx, r.prefix+key).Err()
	if err != nil {
		CacheErrorsTotal.WithLabelValues(backendRedis).Inc()
		r.logger.Warn("cache-delete-failed",
			zap.String("key", key),
			zap.Error(err))
		return
	}
	CacheDeletesTotal.WithLabelValues(backendRedis).Inc()
}

// Ping checks the Redis connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	err := r.rdb.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
