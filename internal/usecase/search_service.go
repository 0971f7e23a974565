package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clothsearch/backend/internal/domain"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	GlobalTimeout      time.Duration
	PerSiteTimeout     time.Duration
	MaxConcurrency     int
	EnableDebugLogging bool
}

// SearchService aggregates product listings from every registered site.
// Flow: validate -> fan out -> normalize -> filter -> dedupe -> sort -> envelope
type SearchService struct {
	registry     *SiteRegistry
	fanout       *FanoutCoordinator
	filter       *FilterEngine
	preprocessor *QueryPreprocessor
	config       SearchServiceConfig
	log          zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewSearchService creates a new search service with dependencies
func NewSearchService(
	registry *SiteRegistry,
	retry *RetryExecutor,
	config SearchServiceConfig,
	log zerolog.Logger,
) *SearchService {
	if config.GlobalTimeout <= 0 {
		config.GlobalTimeout = defaultGlobalTimeout
	}
	if config.PerSiteTimeout <= 0 {
		config.PerSiteTimeout = defaultPerSiteTimeout
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaultConcurrency
	}

	return &SearchService{
		registry:     registry,
		fanout:       NewFanoutCoordinator(registry, retry),
		filter:       NewFilterEngine(),
		preprocessor: NewQueryPreprocessor(log, config.EnableDebugLogging),
		config:       config,
		log:          log.With().Str("component", "search").Logger(),
		tracer:       otel.Tracer("clothsearch-search"),
		now:          time.Now,
	}
}

// Registry exposes the site registry the service dispatches to
func (s *SearchService) Registry() *SiteRegistry {
	return s.registry
}

// Search runs one aggregated search.
//
// Only an invalid query or filter spec returns an error. Site failures are
// reported in the envelope's Errors alongside whatever the other sites found.
func (s *SearchService) Search(ctx context.Context, query domain.Query) (*domain.SearchResult, error) {
	searchID := ksuid.New().String()
	log := s.log.With().Str("search_id", searchID).Logger()
	ctx = log.WithContext(ctx)

	ctx, span := s.tracer.Start(ctx, "search.run", trace.WithAttributes(
		attribute.String("search.id", searchID),
		attribute.String("search.query", query.Text),
	))
	defer span.End()

	run := newPipelineRun()

	if err := query.Validate(); err != nil {
		run.fail()
		span.SetStatus(codes.Error, "invalid query")
		log.Info().Err(err).Msg("Rejected search")
		return nil, err
	}
	text := s.preprocessor.PreprocessQuery(query.Text)
	if text == "" {
		run.fail()
		span.SetStatus(codes.Error, "invalid query")
		return nil, errors.Wrapf(domain.ErrInvalidQuery, "%q has no searchable text", query.Text)
	}

	start := s.now()
	if err := run.advance(StateIdle, StateFanning); err != nil {
		return nil, s.internalFault(run, span, err)
	}

	sites := s.registry.Resolve(query.Sites)
	opts := FanoutOptions{
		PerSiteTimeout: firstPositive(query.PerSiteTimeout, s.config.PerSiteTimeout),
		GlobalTimeout:  firstPositive(query.Timeout, s.config.GlobalTimeout),
		Concurrency:    s.config.MaxConcurrency,
	}
	log.Info().
		Str("query", text).
		Int("sites", len(sites)).
		Dur("global_timeout", opts.GlobalTimeout).
		Msg("Starting search")

	outcomes := s.fanout.RunAll(ctx, sites, text, opts)

	if err := run.advance(StateFanning, StateNormalizing); err != nil {
		return nil, s.internalFault(run, span, err)
	}
	products, siteErrors, dropped := collectOutcomes(sites, outcomes)

	if err := run.advance(StateNormalizing, StateFiltering); err != nil {
		return nil, s.internalFault(run, span, err)
	}
	products = Deduplicate(s.filter.Apply(products, query.Filter))

	if err := run.advance(StateFiltering, StateSorting); err != nil {
		return nil, s.internalFault(run, span, err)
	}
	SortByPrice(products)

	if err := run.advance(StateSorting, StateDone); err != nil {
		return nil, s.internalFault(run, span, err)
	}

	result := &domain.SearchResult{
		Query:         query.Text,
		TotalResults:  len(products),
		Results:       products,
		ExecutionTime: roundSeconds(s.now().Sub(start)),
		SearchID:      searchID,
		SiteErrors:    siteErrors,
	}
	if len(siteErrors) > 0 {
		result.Errors = make([]string, 0, len(siteErrors))
		for _, se := range siteErrors {
			result.Errors = append(result.Errors, se.Describe())
		}
	}

	span.SetAttributes(
		attribute.Int("search.results", result.TotalResults),
		attribute.Int("search.site_errors", len(siteErrors)),
	)
	span.SetStatus(codes.Ok, "search complete")
	log.Info().
		Int("results", result.TotalResults).
		Int("dropped", dropped).
		Int("site_errors", len(siteErrors)).
		Float64("execution_time", result.ExecutionTime).
		Msg("Search complete")

	return result, nil
}

func (s *SearchService) internalFault(run *pipelineRun, span trace.Span, err error) error {
	run.fail()
	span.RecordError(err)
	span.SetStatus(codes.Error, "pipeline fault")
	s.log.Error().Err(err).Msg("Search pipeline fault")
	return errors.WithStack(err)
}

// collectOutcomes flattens successful outcomes in site order, normalizes each
// record and drops the ones without a price or a real name. Failures become
// SiteErrors in the same order.
func collectOutcomes(sites []domain.SiteID, outcomes map[domain.SiteID]domain.SiteOutcome) ([]domain.NormalizedProduct, []domain.SiteError, int) {
	products := make([]domain.NormalizedProduct, 0)
	var siteErrors []domain.SiteError
	dropped := 0

	for _, site := range sites {
		outcome, ok := outcomes[site]
		if !ok {
			continue
		}
		if outcome.Err != nil {
			siteErrors = append(siteErrors, *outcome.Err)
			continue
		}
		for _, raw := range outcome.Products {
			if raw.Site == "" {
				raw.Site = site
			}
			p := NormalizeProduct(raw)
			if !IsPresentable(p) {
				dropped++
				continue
			}
			products = append(products, p)
		}
	}
	return products, siteErrors, dropped
}

// SortByPrice orders products by ascending price. The sort is stable, so
// equal prices keep their relative order.
func SortByPrice(products []domain.NormalizedProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		return priceOrInf(products[i]) < priceOrInf(products[j])
	})
}

func priceOrInf(p domain.NormalizedProduct) float64 {
	if p.Price == nil {
		return math.Inf(1)
	}
	return *p.Price
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
