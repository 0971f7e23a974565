package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SiteAdapter fetches raw product listings from one e-commerce site.
//
// Fetch must give up by deadline: when it cannot finish in time it returns an
// error matching ErrAdapterTimeout instead of partial data. Any other fault
// should match ErrAdapterFailure.
type SiteAdapter interface {
	Name() string
	Fetch(ctx context.Context, query string, deadline time.Time) ([]RawProduct, error)
}

// SiteAdapterFunc lets a plain function act as a SiteAdapter, mostly for tests
// and small in-process sources.
type SiteAdapterFunc struct {
	ID string
	Fn func(ctx context.Context, query string, deadline time.Time) ([]RawProduct, error)
}

// Name implements SiteAdapter
func (f SiteAdapterFunc) Name() string {
	return f.ID
}

// Fetch implements SiteAdapter
func (f SiteAdapterFunc) Fetch(ctx context.Context, query string, deadline time.Time) ([]RawProduct, error) {
	return f.Fn(ctx, query, deadline)
}
