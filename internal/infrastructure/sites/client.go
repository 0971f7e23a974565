package sites

import (
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/clothsearch/backend/internal/domain"
)

const (
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxResults     = 10
)

// Options tunes how an HTMLAdapter talks to its site
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	RatePerSecond  float64 // <= 0 disables client-side throttling
	Burst          int
	MaxResults     int
	HTTPClient     *http.Client
}

// HTMLAdapter fetches a site's search page and extracts product cards from it
type HTMLAdapter struct {
	site        SiteConfig
	httpClient  *http.Client
	userAgent   string
	rateLimiter *rate.Limiter
	maxResults  int
}

// NewHTMLAdapter creates an adapter for one catalogue entry
func NewHTMLAdapter(site SiteConfig, opts Options) *HTMLAdapter {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.RequestTimeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &HTMLAdapter{
		site:        site,
		httpClient:  client,
		userAgent:   opts.UserAgent,
		rateLimiter: rate.NewLimiter(limit, opts.Burst),
		maxResults:  opts.MaxResults,
	}
}

// Name implements domain.SiteAdapter
func (a *HTMLAdapter) Name() string {
	return a.site.ID
}

// Fetch implements domain.SiteAdapter. One call is one attempt; retries are
// the caller's concern.
func (a *HTMLAdapter) Fetch(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
	log := zerolog.Ctx(ctx).With().Str("site", a.site.ID).Logger()

	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := a.waitForSlot(ctx, deadline); err != nil {
		return nil, err
	}

	reqURL := a.site.SearchURL(query)
	log.Debug().Str("url", reqURL).Msg("Fetching search page")

	doc, err := a.fetchDocument(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	products := extractProducts(doc, a.site, a.maxResults)
	log.Debug().Int("products", len(products)).Msg("Extracted product cards")
	return products, nil
}

func (a *HTMLAdapter) fetchDocument(ctx context.Context, reqURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to create request"), domain.ErrAdapterFailure)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, a.contextError(ctx, err, "requesting search page")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Mark(
			errors.Wrapf(domain.ErrRateLimited, "%s returned status %d", a.site.ID, resp.StatusCode),
			domain.ErrAdapterFailure,
		)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Mark(
			errors.Newf("%s returned status %d", a.site.ID, resp.StatusCode),
			domain.ErrAdapterFailure,
		)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, a.contextError(ctx, err, "parsing search page")
	}
	return doc, nil
}

// waitForSlot blocks until the rate limiter admits one request. A slot that
// would only open after deadline is a timeout, reported without waiting.
func (a *HTMLAdapter) waitForSlot(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return a.contextError(ctx, err, "waiting for rate limiter")
	}

	r := a.rateLimiter.Reserve()
	if !r.OK() {
		return errors.Mark(errors.Newf("%s rate limiter rejected the request", a.site.ID), domain.ErrAdapterFailure)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if remaining := time.Until(deadline); delay > remaining {
		r.Cancel()
		return errors.Mark(
			errors.Newf("%s rate limiter slot opens in %s, %s before deadline", a.site.ID, delay.Round(time.Millisecond), remaining.Round(time.Millisecond)),
			domain.ErrAdapterTimeout,
		)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return a.contextError(ctx, ctx.Err(), "waiting for rate limiter")
	}
}

// contextError marks err as a timeout when the adapter deadline fired and as
// a plain failure otherwise.
func (a *HTMLAdapter) contextError(ctx context.Context, err error, action string) error {
	wrapped := errors.Wrapf(err, "%s %s", a.site.ID, action)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Mark(wrapped, domain.ErrAdapterTimeout)
	case errors.Is(ctx.Err(), context.Canceled):
		return errors.Mark(wrapped, domain.ErrCancelled)
	default:
		return errors.Mark(wrapped, domain.ErrAdapterFailure)
	}
}
