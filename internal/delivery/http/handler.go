package http

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/clothsearch/backend/internal/domain"
)

// SearchIDHeader carries the id of the search run that produced a response
const SearchIDHeader = "X-Search-ID"

// ProductSearcher runs one aggregated product search
type ProductSearcher interface {
	Search(ctx context.Context, query domain.Query) (*domain.SearchResult, error)
}

// SiteLister reports the sites a searcher can dispatch to
type SiteLister interface {
	Names() []domain.SiteID
	Aliases() map[string]domain.SiteID
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher ProductSearcher
	sites    SiteLister
	version  string
}

// NewHandler creates a new HTTP handler
func NewHandler(searcher ProductSearcher, sites SiteLister, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{searcher: searcher, sites: sites, version: version}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "clothsearch-backend",
		"version": h.version,
		"sites":   sortedSiteNames(h.sites),
	})
}

// ListSites returns the registered site ids and their aliases
func (h *Handler) ListSites(c *gin.Context) {
	if h.sites == nil {
		c.JSON(http.StatusOK, gin.H{"sites": []domain.SiteID{}, "aliases": gin.H{}})
		return
	}

	aliases := h.sites.Aliases()
	byAlias := make(map[string]string, len(aliases))
	for alias, site := range aliases {
		byAlias[alias] = string(site)
	}

	c.JSON(http.StatusOK, gin.H{
		"sites":   h.sites.Names(),
		"aliases": byAlias,
	})
}

// SearchProducts handles GET /api/v1/search
//
// Query parameters: query (required), sites (comma separated), timeout
// (seconds), min_rating, min_price, max_price, size, color, gender.
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	query, err := parseSearchQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.searcher.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	if result.SearchID != "" {
		c.Header(SearchIDHeader, result.SearchID)
	}
	c.JSON(http.StatusOK, result)
}

func parseSearchQuery(c *gin.Context) (domain.Query, error) {
	query := domain.Query{
		Text:  c.Query("query"),
		Sites: splitList(c.Query("sites")),
		Filter: domain.FilterSpec{
			Size:   strings.TrimSpace(c.Query("size")),
			Color:  strings.TrimSpace(c.Query("color")),
			Gender: strings.TrimSpace(c.Query("gender")),
		},
	}

	if raw, ok := c.GetQuery("timeout"); ok && strings.TrimSpace(raw) != "" {
		seconds, err := parseNumber("timeout", raw)
		if err != nil {
			return query, err
		}
		if seconds <= 0 {
			return query, errors.Newf("timeout must be positive, got %v", seconds)
		}
		query.Timeout = time.Duration(seconds * float64(time.Second))
	}

	if raw, ok := c.GetQuery("min_rating"); ok && strings.TrimSpace(raw) != "" {
		v, err := parseNumber("min_rating", raw)
		if err != nil {
			return query, err
		}
		query.Filter.MinRating = v
	}

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"min_price", &query.Filter.MinPrice},
		{"max_price", &query.Filter.MaxPrice},
	} {
		raw, ok := c.GetQuery(bound.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := parseNumber(bound.name, raw)
		if err != nil {
			return query, err
		}
		*bound.dst = &v
	}

	return query, nil
}

func parseNumber(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

// splitList turns "meesho, ajio,,myntra" into [meesho ajio myntra]
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortedSiteNames(sites SiteLister) []string {
	names := make([]string, 0)
	if sites == nil {
		return names
	}
	for _, s := range sites.Names() {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}
