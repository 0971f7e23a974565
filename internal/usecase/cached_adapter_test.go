package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothsearch/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data     map[string]interface{}
	getError error
	setError error
	setTTL   time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]interface{})}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	m.setTTL = ttl
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// countingAdapter counts Fetch calls
type countingAdapter struct {
	name     string
	calls    int
	products []domain.RawProduct
	err      error
}

func (a *countingAdapter) Name() string { return a.name }

func (a *countingAdapter) Fetch(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
	a.calls++
	return a.products, a.err
}

func TestCachedAdapter_ServesRepeatQueriesFromCache(t *testing.T) {
	next := &countingAdapter{name: "Meesho", products: []domain.RawProduct{{Name: "Red Kurta", PriceDisplay: "₹1,299", Site: "Meesho"}}}
	cache := NewMockCacheRepository()
	adapter := NewCachedAdapter(next, cache, time.Minute)
	deadline := time.Now().Add(time.Second)

	first, err := adapter.Fetch(context.Background(), "Red Kurta", deadline)
	require.NoError(t, err)
	second, err := adapter.Fetch(context.Background(), "  red   kurta! ", deadline)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "Meesho", adapter.Name())
	assert.Contains(t, cache.data, "products:meesho:red kurta")
	assert.Equal(t, time.Minute, cache.setTTL)
}

func TestCachedAdapter_DecodesJSONShapedValues(t *testing.T) {
	next := &countingAdapter{name: "ajio"}
	cache := NewMockCacheRepository()
	cache.data["products:ajio:kurta"] = []interface{}{
		map[string]interface{}{"name": "Cached Kurta", "price_display": "₹700", "site": "ajio"},
	}
	adapter := NewCachedAdapter(next, cache, 0)

	products, err := adapter.Fetch(context.Background(), "kurta", time.Now().Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, 0, next.calls)
	require.Len(t, products, 1)
	assert.Equal(t, "Cached Kurta", products[0].Name)
	assert.Equal(t, "₹700", products[0].PriceDisplay)
	assert.Equal(t, domain.SiteID("ajio"), products[0].Site)
}

func TestCachedAdapter_DoesNotCacheFailures(t *testing.T) {
	next := &countingAdapter{name: "ajio", err: errors.Mark(errors.New("503"), domain.ErrAdapterFailure)}
	cache := NewMockCacheRepository()
	adapter := NewCachedAdapter(next, cache, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := adapter.Fetch(context.Background(), "kurta", time.Now().Add(time.Second))
		assert.True(t, errors.Is(err, domain.ErrAdapterFailure))
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.data)
}

func TestCachedAdapter_CacheErrorsFallThrough(t *testing.T) {
	next := &countingAdapter{name: "ajio", products: []domain.RawProduct{{Name: "Kurta"}}}
	cache := NewMockCacheRepository()
	cache.getError = errors.New("cache down")
	cache.setError = errors.New("cache down")
	adapter := NewCachedAdapter(next, cache, time.Minute)

	products, err := adapter.Fetch(context.Background(), "kurta", time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, next.calls)
}

func TestNewCachedAdapter_DefaultTTL(t *testing.T) {
	adapter := NewCachedAdapter(&countingAdapter{name: "x"}, NewMockCacheRepository(), -time.Second)
	assert.Equal(t, defaultResultCacheTTL, adapter.ttl)
}
