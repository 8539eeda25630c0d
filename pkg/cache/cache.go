package cache

import (
	"context"
	"time"
)

// Cache stores string values such as resolved item names.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value with a TTL and reports whether it was accepted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) bool

	// Delete removes a value.
	Delete(ctx context.Context, key string)

	// Close releases resources.
	Close() error
}
