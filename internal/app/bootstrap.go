// Package app wires configuration, site adapters and the search service
// together for the server and CLI entrypoints.
package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clothsearch/backend/config"
	"github.com/clothsearch/backend/internal/domain"
	"github.com/clothsearch/backend/internal/infrastructure/cache"
	"github.com/clothsearch/backend/internal/infrastructure/sites"
	"github.com/clothsearch/backend/internal/usecase"
)

// Version is reported by the health check and the CLI
const Version = "1.0.0"

// Components holds everything an entrypoint needs to serve searches
type Components struct {
	Registry *usecase.SiteRegistry
	Search   *usecase.SearchService
	cache    *cache.MemoryCache
}

// Close releases background resources
func (c *Components) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// NewLogger builds the root logger: console output in development, JSON otherwise
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Server.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "clothsearch").Logger()
}

// Build creates the registry and search service described by cfg
func Build(cfg *config.Config, log zerolog.Logger) *Components {
	components := &Components{Registry: usecase.NewSiteRegistry()}

	var resultCache domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		components.cache = cache.NewMemoryCache(cfg.Cache.CleanupInterval)
		resultCache = components.cache
	}

	opts := sites.Options{
		UserAgent:      cfg.Sites.UserAgent,
		RequestTimeout: cfg.Sites.RequestTimeout,
		RatePerSecond:  cfg.Sites.RatePerSecond,
		Burst:          cfg.Sites.Burst,
		MaxResults:     cfg.Search.MaxResultsPerSite,
	}

	for _, site := range sites.Select(sites.DefaultCatalog(), cfg.Sites.Enabled) {
		var adapter domain.SiteAdapter
		if cfg.Sites.Mock {
			adapter = sites.NewMockAdapter(site.ID, sites.MockAdapterOptions{
				BaseURL: site.BaseURL,
				Count:   cfg.Search.MaxResultsPerSite,
			})
		} else {
			adapter = sites.NewHTMLAdapter(site, opts)
		}
		if resultCache != nil {
			adapter = usecase.NewCachedAdapter(adapter, resultCache, cfg.Cache.TTL)
		}
		components.Registry.Register(adapter, site.Aliases...)
	}

	log.Info().
		Int("sites", len(components.Registry.Names())).
		Bool("mock", cfg.Sites.Mock).
		Str("cache", cfg.Cache.Type).
		Msg("Site adapters registered")

	components.Search = usecase.NewSearchService(
		components.Registry,
		usecase.NewRetryExecutor(cfg.Search.MaxAttempts, cfg.Search.BaseDelay),
		usecase.SearchServiceConfig{
			GlobalTimeout:      cfg.Search.GlobalTimeout,
			PerSiteTimeout:     cfg.Search.PerSiteTimeout,
			MaxConcurrency:     cfg.Search.MaxConcurrency,
			EnableDebugLogging: cfg.IsDevelopment(),
		},
		log,
	)

	return components
}
