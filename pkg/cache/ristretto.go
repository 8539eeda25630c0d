package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

const backendMemory = "memory"

// RistrettoCache is an in-process Cache backed by Ristretto.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig sizes the in-process cache. Entries cost their value length in
// bytes, so MaxCost is a memory budget rather than an entry count.
type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Logger      *zap.Logger
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (*RistrettoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(ctx context.Context, key string) (string, bool) {
	value, found := r.cache.Get(key)
	s, ok := value.(string)
	if !found || !ok {
		CacheMissesTotal.WithLabelValues(backendMemory).Inc()
		r.logger.Debug("cache-miss", zap.String("key", key))
		return "", false
	}

	CacheHitsTotal.WithLabelValues(backendMemory).Inc()
	r.logger.Debug("cache-hit", zap.String("key", key))
	return s, true
}

// Set stores a value in the cache with a TTL.
func (r *RistrettoCache) Set(ctx context.Context, key string, value string, ttl time.Duration) bool {
	success := r.cache.SetWithTTL(key, value, entryCost(value), ttl)
	if success {
		CacheSetsTotal.WithLabelValues(backendMemory).Inc()
		r.logger.Debug("cache-set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}
	return success
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(ctx context.Context, key string) {
	r.cache.Del(key)
	CacheDeletesTotal.WithLabelValues(backendMemory).Inc()
	r.logger.Debug("cache-delete", zap.String("key", key))
}

// Close closes the cache and releases resources.
func (r *RistrettoCache) Close() error {
	r.logger.Info("cache-closed",
		zap.String("backend", backendMemory),
		zap.Float64("hit-ratio", r.HitRatio()))
	r.cache.Close()
	return nil
}

// HitRatio is the share of lookups served from memory since the cache was created.
func (r *RistrettoCache) HitRatio() float64 {
	if r.cache.Metrics == nil {
		return 0
	}
	return r.cache.Metrics.Ratio()
}

func entryCost(value string) int64 {
	return max(int64(len(value)), 1)
}

// Wait blocks until all pending writes have been applied.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
