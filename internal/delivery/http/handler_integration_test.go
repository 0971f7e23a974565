package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothsearch/backend/config"
	"github.com/clothsearch/backend/internal/domain"
	"github.com/clothsearch/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeSearcher records the last query and returns a canned result
type fakeSearcher struct {
	lastQuery domain.Query
	calls     int
	result    *domain.SearchResult
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, query domain.Query) (*domain.SearchResult, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSites struct{}

func (fakeSites) Names() []domain.SiteID {
	return []domain.SiteID{"meesho", "ajio"}
}

func (fakeSites) Aliases() map[string]domain.SiteID {
	return map[string]domain.SiteID{"meesho": "meesho", "ajio": "ajio"}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a test router around searcher
func setupTestRouter(searcher ProductSearcher, sites SiteLister) *gin.Engine {
	handler := NewHandler(searcher, sites, "test")
	return SetupRouter(testConfig(), handler, zerolog.Nop())
}

func doGet(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ptr(v float64) *float64 {
	return &v
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(&fakeSearcher{}, fakeSites{})

	w := doGet(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "clothsearch-backend", response["service"])
	assert.Equal(t, "test", response["version"])
	assert.Equal(t, []interface{}{"ajio", "meesho"}, response["sites"])
}

func TestListSitesEndpoint(t *testing.T) {
	router := setupTestRouter(&fakeSearcher{}, fakeSites{})

	w := doGet(router, "/api/v1/sites")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Sites   []string          `json:"sites"`
		Aliases map[string]string `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"meesho", "ajio"}, response.Sites)
	assert.Equal(t, "ajio", response.Aliases["ajio"])
}

func TestSearchEndpoint_ParsesParameters(t *testing.T) {
	searcher := &fakeSearcher{result: &domain.SearchResult{Query: "red kurta", Results: []domain.NormalizedProduct{}, SearchID: "search-1"}}
	router := setupTestRouter(searcher, fakeSites{})

	w := doGet(router, "/api/v1/search?query=red+kurta&sites=meesho,+ajio,,&timeout=12.5&min_rating=4&min_price=100&max_price=2000&size=M&color=red&gender=women")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, searcher.calls)

	q := searcher.lastQuery
	assert.Equal(t, "red kurta", q.Text)
	assert.Equal(t, []string{"meesho", "ajio"}, q.Sites)
	assert.Equal(t, 12500*time.Millisecond, q.Timeout)
	assert.Equal(t, 4.0, q.Filter.MinRating)
	assert.Equal(t, ptr(100), q.Filter.MinPrice)
	assert.Equal(t, ptr(2000), q.Filter.MaxPrice)
	assert.Equal(t, "M", q.Filter.Size)
	assert.Equal(t, "red", q.Filter.Color)
	assert.Equal(t, "women", q.Filter.Gender)

	assert.Equal(t, "search-1", w.Header().Get(SearchIDHeader))
}

func TestSearchEndpoint_OmittedParameters(t *testing.T) {
	searcher := &fakeSearcher{result: &domain.SearchResult{Query: "saree", Results: []domain.NormalizedProduct{}}}
	router := setupTestRouter(searcher, fakeSites{})

	w := doGet(router, "/api/v1/search?query=saree")
	require.Equal(t, http.StatusOK, w.Code)

	q := searcher.lastQuery
	assert.Nil(t, q.Sites)
	assert.Zero(t, q.Timeout)
	assert.Nil(t, q.Filter.MinPrice)
	assert.Nil(t, q.Filter.MaxPrice)
	assert.Zero(t, q.Filter.MinRating)
	assert.Empty(t, w.Header().Get(SearchIDHeader))
}

func TestSearchEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		called bool
	}{
		{name: "unparseable min_price", target: "/api/v1/search?query=kurta&min_price=cheap"},
		{name: "unparseable max_price", target: "/api/v1/search?query=kurta&max_price=1e"},
		{name: "unparseable min_rating", target: "/api/v1/search?query=kurta&min_rating=good"},
		{name: "unparseable timeout", target: "/api/v1/search?query=kurta&timeout=soon"},
		{name: "non-positive timeout", target: "/api/v1/search?query=kurta&timeout=0"},
		{name: "NaN price", target: "/api/v1/search?query=kurta&min_price=NaN"},
		{name: "empty query", target: "/api/v1/search?query=", err: domain.ErrInvalidQuery, called: true},
		{name: "inverted price range", target: "/api/v1/search?query=kurta&min_price=900&max_price=100",
			err: errors.Wrap(domain.ErrInvalidFilter, "min_price 900 exceeds max_price 100"), called: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{err: tt.err}
			router := setupTestRouter(searcher, fakeSites{})

			w := doGet(router, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.called, searcher.calls > 0)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response["error"])
		})
	}
}

func TestSearchEndpoint_InternalError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("pipeline fault")}
	router := setupTestRouter(searcher, fakeSites{})

	w := doGet(router, "/api/v1/search?query=kurta")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pipeline fault")
}

func TestSearchEndpoint_NotConfigured(t *testing.T) {
	router := setupTestRouter(nil, nil)

	w := doGet(router, "/api/v1/search?query=kurta")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doGet(router, "/api/v1/sites")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchEndpoint_MethodAndPath(t *testing.T) {
	router := setupTestRouter(&fakeSearcher{}, fakeSites{})

	t.Run("POST is not routed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search?query=kurta", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-versioned route returns 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, doGet(router, "/search?query=kurta").Code)
	})
}

func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(&fakeSearcher{result: &domain.SearchResult{}}, fakeSites{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=kurta", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

// TestSearchWithService runs the real pipeline behind the router with
// in-process adapters: one site answers, the other never does.
func TestSearchWithService(t *testing.T) {
	registry := usecase.NewSiteRegistry()
	registry.Register(domain.SiteAdapterFunc{
		ID: "siteX",
		Fn: func(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
			return []domain.RawProduct{
				{Name: "Red Kurta", PriceDisplay: "₹1,299", RatingDisplay: "4.1", ImageURL: "https://x.example/1.jpg", ProductURL: "https://x.example/p/1"},
				{Name: "Budget Kurta", PriceDisplay: "₹500", RatingDisplay: "3.2", ProductURL: "https://x.example/p/2"},
			}, nil
		},
	})
	registry.Register(domain.SiteAdapterFunc{
		ID: "siteY",
		Fn: func(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	service := usecase.NewSearchService(
		registry,
		usecase.NewRetryExecutor(1, time.Millisecond),
		usecase.SearchServiceConfig{GlobalTimeout: 150 * time.Millisecond, PerSiteTimeout: 100 * time.Millisecond, MaxConcurrency: 5},
		zerolog.Nop(),
	)
	router := setupTestRouter(service, registry)

	w := doGet(router, "/api/v1/search?query=red+kurta&min_price=600&min_rating=4")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(SearchIDHeader))

	var body struct {
		Query        string                   `json:"query"`
		TotalResults int                      `json:"total_results"`
		Results      []map[string]interface{} `json:"results"`
		Errors       []string                 `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "red kurta", body.Query)
	assert.Equal(t, 1, body.TotalResults)
	require.Len(t, body.Results, 1)
	assert.Equal(t, 1299.0, body.Results[0]["price"])
	assert.Equal(t, 4.1, body.Results[0]["rating"])
	assert.Equal(t, "siteX", body.Results[0]["site"])
	assert.Equal(t, []string{"Timeout while scraping siteY"}, body.Errors)
}
