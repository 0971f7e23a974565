package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clothsearch/backend/internal/domain"
)

const defaultResultCacheTTL = 10 * time.Minute

// CachedAdapter wraps a SiteAdapter and keeps successful results for a short
// time, keyed by site and normalized query. Failures are never cached.
type CachedAdapter struct {
	next  domain.SiteAdapter
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewCachedAdapter wraps next with cache; a non-positive ttl uses the default
func NewCachedAdapter(next domain.SiteAdapter, cache domain.CacheRepository, ttl time.Duration) *CachedAdapter {
	if ttl <= 0 {
		ttl = defaultResultCacheTTL
	}
	return &CachedAdapter{next: next, cache: cache, ttl: ttl}
}

// Name implements domain.SiteAdapter
func (a *CachedAdapter) Name() string {
	return a.next.Name()
}

// Fetch serves from cache when possible and stores fresh results otherwise
func (a *CachedAdapter) Fetch(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
	log := zerolog.Ctx(ctx)
	key := a.cacheKey(query)

	if cached, err := a.getFromCache(ctx, key); err == nil {
		log.Debug().Str("site", a.Name()).Int("products", len(cached)).Msg("Serving site results from cache")
		return cached, nil
	}

	products, err := a.next.Fetch(ctx, query, deadline)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, key, products, a.ttl); err != nil {
		log.Warn().Err(err).Str("site", a.Name()).Msg("Failed to cache site results")
	}
	return products, nil
}

// cacheKey format: "products:{site}:{normalized_query}"
func (a *CachedAdapter) cacheKey(query string) string {
	return fmt.Sprintf("products:%s:%s", canonicalSiteName(a.Name()), normalizeForKey(query))
}

// getFromCache reads cached products. The memory cache stores values in their
// JSON shape, so they are decoded back into RawProduct records.
func (a *CachedAdapter) getFromCache(ctx context.Context, key string) ([]domain.RawProduct, error) {
	value, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if products, ok := value.([]domain.RawProduct); ok {
		return products, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var products []domain.RawProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return products, nil
}
