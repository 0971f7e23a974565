package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/clothsearch/backend/internal/domain"
)

const (
	defaultPerSiteTimeout = 30 * time.Second
	defaultGlobalTimeout  = 60 * time.Second
	defaultConcurrency    = 5
)

// FanoutOptions bounds one fanout run
type FanoutOptions struct {
	PerSiteTimeout time.Duration // deadline handed to each site task
	GlobalTimeout  time.Duration // hard stop for the whole run
	Concurrency    int           // max site tasks in flight
}

func (o FanoutOptions) withDefaults() FanoutOptions {
	if o.PerSiteTimeout <= 0 {
		o.PerSiteTimeout = defaultPerSiteTimeout
	}
	if o.GlobalTimeout <= 0 {
		o.GlobalTimeout = defaultGlobalTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

// FanoutCoordinator queries many sites concurrently and collects one
// SiteOutcome per site. A failing site never affects its siblings.
type FanoutCoordinator struct {
	registry *SiteRegistry
	retry    *RetryExecutor
	tracer   trace.Tracer
}

// NewFanoutCoordinator creates a coordinator dispatching through registry
func NewFanoutCoordinator(registry *SiteRegistry, retry *RetryExecutor) *FanoutCoordinator {
	if retry == nil {
		retry = NewRetryExecutor(defaultMaxAttempts, defaultBaseDelay)
	}
	return &FanoutCoordinator{
		registry: registry,
		retry:    retry,
		tracer:   otel.Tracer("clothsearch-fanout"),
	}
}

type slotResult struct {
	index   int
	outcome domain.SiteOutcome
}

// RunAll fetches query from every site and returns their outcomes keyed by site.
//
// Sites are admitted in list order through a FIFO semaphore of size
// opts.Concurrency. Each task gets its own deadline of now+PerSiteTimeout and
// retries through the RetryExecutor. RunAll returns once every task is
// terminal or GlobalTimeout elapses; tasks still running then are cancelled,
// their late results discarded, and they are reported as
// ErrGlobalDeadlineExceeded.
func (f *FanoutCoordinator) RunAll(ctx context.Context, sites []domain.SiteID, query string, opts FanoutOptions) map[domain.SiteID]domain.SiteOutcome {
	opts = opts.withDefaults()
	log := zerolog.Ctx(ctx).With().Str("component", "fanout").Logger()

	outcomes := make(map[domain.SiteID]domain.SiteOutcome, len(sites))
	if len(sites) == 0 {
		return outcomes
	}

	ctx, span := f.tracer.Start(ctx, "fanout.run_all",
		trace.WithAttributes(
			attribute.Int("fanout.sites", len(sites)),
			attribute.Int("fanout.concurrency", opts.Concurrency),
		),
	)
	defer span.End()

	start := time.Now()
	gctx, cancel := context.WithTimeout(ctx, opts.GlobalTimeout)
	defer cancel()

	// Buffered so tasks finishing after the global deadline never block.
	results := make(chan slotResult, len(sites))
	sem := semaphore.NewWeighted(int64(opts.Concurrency))

	go func() {
		for i, site := range sites {
			if err := sem.Acquire(gctx, 1); err != nil {
				return
			}
			go func(index int, site domain.SiteID) {
				defer sem.Release(1)
				results <- slotResult{index: index, outcome: f.runSite(gctx, site, query, opts.PerSiteTimeout)}
			}(i, site)
		}
	}()

	slots := make([]domain.SiteOutcome, len(sites))
	filled := make([]bool, len(sites))
	received := 0

collect:
	for received < len(sites) {
		select {
		case r := <-results:
			if r.outcome.Err != nil && r.outcome.Err.Kind == domain.KindCancelled && errors.Is(gctx.Err(), context.DeadlineExceeded) {
				r.outcome.Err.Kind = domain.KindGlobalDeadline
			}
			slots[r.index] = r.outcome
			filled[r.index] = true
			received++
		case <-gctx.Done():
			break collect
		}
	}

	if received < len(sites) {
		kind, sentinel := domain.KindGlobalDeadline, domain.ErrGlobalDeadlineExceeded
		if errors.Is(gctx.Err(), context.Canceled) {
			kind, sentinel = domain.KindCancelled, domain.ErrCancelled
		}
		for i, site := range sites {
			if filled[i] {
				continue
			}
			log.Warn().Str("site", string(site)).Dur("elapsed", time.Since(start)).Msg("Site abandoned at global deadline")
			slots[i] = domain.SiteOutcome{
				Site:    site,
				Err:     &domain.SiteError{Site: site, Kind: kind, Message: sentinel.Error()},
				Elapsed: time.Since(start),
			}
		}
		span.SetAttributes(attribute.Int("fanout.abandoned", len(sites)-received))
	}

	failed := 0
	for i, site := range sites {
		outcomes[site] = slots[i]
		if !slots[i].OK() {
			failed++
		}
	}

	span.SetAttributes(attribute.Int("fanout.failed", failed))
	if failed == len(sites) {
		span.SetStatus(codes.Error, "all sites failed")
	} else {
		span.SetStatus(codes.Ok, fmt.Sprintf("%d/%d sites succeeded", len(sites)-failed, len(sites)))
	}
	log.Info().
		Int("sites", len(sites)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Fanout complete")

	return outcomes
}

// runSite fetches one site with retries and converts the result into an outcome
func (f *FanoutCoordinator) runSite(ctx context.Context, site domain.SiteID, query string, perSiteTimeout time.Duration) (outcome domain.SiteOutcome) {
	start := time.Now()
	deadline := start.Add(perSiteTimeout)
	log := zerolog.Ctx(ctx).With().Str("component", "fanout").Str("site", string(site)).Logger()

	ctx, span := f.tracer.Start(ctx, "fanout.site", trace.WithAttributes(attribute.String("site", string(site))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Newf("adapter panic: %v", r)
			log.Error().Err(err).Msg("Site adapter panicked")
			outcome = failedOutcome(site, errors.Mark(err, domain.ErrAdapterFailure), 0, time.Since(start))
			span.SetStatus(codes.Error, "adapter panic")
		}
	}()

	adapter, ok := f.registry.Get(string(site))
	if !ok {
		err := errors.Wrapf(domain.ErrUnknownSite, "%s", site)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown site")
		return failedOutcome(site, err, 0, time.Since(start))
	}

	products, attempts, err := Retry(ctx, f.retry, deadline, func(ctx context.Context) ([]domain.RawProduct, error) {
		actx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()

		items, err := adapter.Fetch(actx, query, deadline)
		if err != nil {
			if errors.Is(actx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrAdapterTimeout) {
				err = errors.Mark(err, domain.ErrAdapterTimeout)
			}
			return nil, err
		}
		return items, nil
	})
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		log.Warn().Err(err).Int("attempts", attempts).Msg("Site failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "site failed")
		return failedOutcome(site, err, attempts, time.Since(start))
	}

	if products == nil {
		products = []domain.RawProduct{}
	}
	for i := range products {
		if products[i].Site == "" {
			products[i].Site = site
		}
	}

	log.Debug().Int("products", len(products)).Int("attempts", attempts).Msg("Site succeeded")
	span.SetAttributes(attribute.Int("products", len(products)))
	span.SetStatus(codes.Ok, "site succeeded")
	return domain.SiteOutcome{
		Site:     site,
		Products: products,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}
}

func failedOutcome(site domain.SiteID, err error, attempts int, elapsed time.Duration) domain.SiteOutcome {
	return domain.SiteOutcome{
		Site: site,
		Err: &domain.SiteError{
			Site:    site,
			Kind:    domain.ClassifyError(err),
			Message: err.Error(),
		},
		Attempts: attempts,
		Elapsed:  elapsed,
	}
}
