package names

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/karnyvex/dominator/internal/storage"
	"github.com/karnyvex/dominator/pkg/cache"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL = 24 * time.Hour

	// sharedLookupTimeout bounds a lookup shared by concurrent callers, which
	// no longer follows any single caller's context.
	sharedLookupTimeout = 30 * time.Second
)

// Store is the persistent name table.
type Store interface {
	ItemName(ctx context.Context, typeID types.TypeID) (string, error)
	SaveItemNames(ctx context.Context, names []types.ItemName) error
	SearchItemNames(ctx context.Context, term string, limit int) ([]types.ItemName, error)
}

// Lookup fetches a name from the upstream API.
type Lookup interface {
	TypeName(ctx context.Context, typeID types.TypeID) (string, error)
}

// Resolver resolves item names through the cache, then the store, then ESI.
type Resolver struct {
	cache  cache.Cache
	store  Store
	lookup Lookup
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewResolver creates a resolver. cache and lookup may be nil.
func NewResolver(c cache.Cache, store Store, lookup Lookup, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Resolver{
		cache:  c,
		store:  store,
		lookup: lookup,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(typeID types.TypeID) string {
	return fmt.Sprintf("item-name:%d", typeID)
}

// Name returns the display name of an item. Concurrent calls for the same
// item share one lookup; a caller whose ctx ends stops waiting without
// cancelling the lookup for the others.
func (r *Resolver) Name(ctx context.Context, typeID types.TypeID) (string, error) {
	key := cacheKey(typeID)

	if r.cache != nil {
		if name, ok := r.cache.Get(ctx, key); ok {
			LookupsTotal.WithLabelValues("cache").Inc()
			return name, nil
		}
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return r.resolve(sharedCtx, typeID)
	})

	select {
	case <-ctx.Done():
		LookupsTotal.WithLabelValues("failed").Inc()
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			LookupsTotal.WithLabelValues("failed").Inc()
			return "", res.Err
		}
		name, _ := res.Val.(string)
		return name, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, typeID types.TypeID) (string, error) {
	name, err := r.store.ItemName(ctx, typeID)
	switch {
	case err == nil:
		LookupsTotal.WithLabelValues("store").Inc()
		r.remember(ctx, typeID, name)
		return name, nil
	case !errors.Is(err, storage.ErrNotFound):
		r.logger.Warn("item-name-store-lookup-failed",
			zap.Int32("type-id", int32(typeID)),
			zap.Error(err))
	}

	if r.lookup == nil {
		return "", fmt.Errorf("resolve name of type %d: %w", typeID, storage.ErrNotFound)
	}

	name, err = r.lookup.TypeName(ctx, typeID)
	if err != nil {
		return "", fmt.Errorf("resolve name of type %d: %w", typeID, err)
	}
	LookupsTotal.WithLabelValues("esi").Inc()

	err = r.store.SaveItemNames(ctx, []types.ItemName{{TypeID: typeID, Name: name}})
	if err != nil {
		r.logger.Warn("item-name-save-failed",
			zap.Int32("type-id", int32(typeID)),
			zap.Error(err))
	}
	r.remember(ctx, typeID, name)

	return name, nil
}

func (r *Resolver) remember(ctx context.Context, typeID types.TypeID, name string) {
	if r.cache != nil {
		r.cache.Set(ctx, cacheKey(typeID), name, r.ttl)
	}
}

// Search returns items whose name contains term, ignoring case.
// A blank term matches nothing.
func (r *Resolver) Search(ctx context.Context, term string, limit int) ([]types.ItemName, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []types.ItemName{}, nil
	}

	results, err := r.store.SearchItemNames(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search item names: %w", err)
	}
	return results, nil
}
