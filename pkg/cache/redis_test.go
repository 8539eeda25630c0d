package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{
		Addr:   mr.Addr(),
		Prefix: "dominator:",
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		seed      map[string]string
		remove    string
		advance   time.Duration
		key       string
		wantValue string
		wantFound bool
	}{
		{
			name:      "hit",
			seed:      map[string]string{"item-name:34": "Tritanium"},
			key:       "item-name:34",
			wantValue: "Tritanium",
			wantFound: true,
		},
		{
			name: "miss",
			key:  "item-name:35",
		},
		{
			name:   "deleted",
			seed:   map[string]string{"item-name:36": "Mexallon"},
			remove: "item-name:36",
			key:    "item-name:36",
		},
		{
			name:    "expired",
			seed:    map[string]string{"item-name:37": "Isogen"},
			advance: 2 * time.Hour,
			key:     "item-name:37",
		},
		{
			name:      "not-yet-expired",
			seed:      map[string]string{"item-name:38": "Nocxium"},
			advance:   30 * time.Minute,
			key:       "item-name:38",
			wantValue: "Nocxium",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mr := newTestRedisCache(t)

			for key, value := range tt.seed {
				require.True(t, c.Set(ctx, key, value, time.Hour))
			}
			if tt.remove != "" {
				c.Delete(ctx, tt.remove)
			}
			if tt.advance > 0 {
				mr.FastForward(tt.advance)
			}

			value, found := c.Get(ctx, tt.key)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestRedisCache_PrefixesKeys(t *testing.T) {
	c, mr := newTestRedisCache(t)

	require.True(t, c.Set(context.Background(), "item-name:34", "Tritanium", time.Hour))

	stored, err := mr.Get("dominator:item-name:34")
	require.NoError(t, err)
	assert.Equal(t, "Tritanium", stored)
	assert.Equal(t, time.Hour, mr.TTL("dominator:item-name:34"))
}

func TestRedisCache_ServerGone(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)
	require.True(t, c.Set(ctx, "item-name:34", "Tritanium", time.Hour))

	mr.Close()

	_, found := c.Get(ctx, "item-name:34")
	assert.False(t, found)
	assert.False(t, c.Set(ctx, "item-name:35", "Pyerite", time.Hour))
	assert.Error(t, c.Ping(ctx))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 on loopback refuses connections.
	_, err := NewRedisCache(ctx, RedisConfig{
		Addr:   "127.0.0.1:1",
		Logger: zap.NewNop(),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}
