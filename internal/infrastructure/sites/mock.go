package sites

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/clothsearch/backend/internal/domain"
)

var (
	mockColors    = []string{"Red", "Blue", "Black", "White", "Green", "Maroon"}
	mockSizes     = []string{"S", "M", "L", "XL"}
	mockGenders   = []string{"Women", "Men", "Unisex"}
	mockMaterials = []string{"Cotton", "Cotton Blend", "Silk", "Rayon", "Linen"}
)

// MockAdapter produces synthetic listings for demos and offline runs.
// Results depend only on the site, the query and the seed, and it makes no
// network calls.
type MockAdapter struct {
	id      string
	baseURL string
	seed    int64
	count   int
	latency time.Duration
}

// MockAdapterOptions configures a MockAdapter
type MockAdapterOptions struct {
	BaseURL string        // used only to synthesize URLs
	Seed    int64         // mixed into every result
	Count   int           // listings per fetch, default 10
	Latency time.Duration // simulated page load time
}

// NewMockAdapter creates a mock for site id
func NewMockAdapter(id string, opts MockAdapterOptions) *MockAdapter {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = "https://" + id + ".example.invalid"
	}
	if opts.Count <= 0 {
		opts.Count = defaultMaxResults
	}
	return &MockAdapter{
		id:      id,
		baseURL: strings.TrimRight(base, "/"),
		seed:    opts.Seed,
		count:   opts.Count,
		latency: opts.Latency,
	}
}

// Name implements domain.SiteAdapter
func (m *MockAdapter) Name() string {
	return m.id
}

// Fetch implements domain.SiteAdapter
func (m *MockAdapter) Fetch(ctx context.Context, query string, deadline time.Time) ([]domain.RawProduct, error) {
	if m.latency > 0 {
		if time.Until(deadline) < m.latency {
			return nil, errors.Mark(errors.Newf("%s mock latency %s exceeds deadline", m.id, m.latency), domain.ErrAdapterTimeout)
		}
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, errors.Mark(errors.Wrap(ctx.Err(), m.id), domain.ErrCancelled)
		case <-timer.C:
		}
	}

	q := strings.TrimSpace(query)
	h := fnv.New64a()
	_, _ = h.Write([]byte(m.id + "|" + strings.ToLower(q)))
	r := rand.New(rand.NewSource(int64(h.Sum64()) ^ m.seed))

	out := make([]domain.RawProduct, 0, m.count)
	for i := 0; i < m.count; i++ {
		id := fmt.Sprintf("%s-%04d", m.id, i+1)
		price := 299 + 50*i + r.Intn(400)
		rating := 3.0 + float64(r.Intn(21))/10
		color := mockColors[r.Intn(len(mockColors))]
		out = append(out, domain.RawProduct{
			Name:          fmt.Sprintf("%s %s %d", color, q, i+1),
			PriceDisplay:  formatRupees(price),
			RatingDisplay: fmt.Sprintf("%.1f", rating),
			ImageURL:      m.baseURL + "/images/" + url.PathEscape(id) + ".jpg",
			ProductURL:    m.baseURL + "/p/" + url.PathEscape(id),
			Size:          mockSizes[r.Intn(len(mockSizes))],
			Color:         color,
			Gender:        mockGenders[r.Intn(len(mockGenders))],
			Material:      mockMaterials[r.Intn(len(mockMaterials))],
			Site:          domain.SiteID(m.id),
		})
	}
	return out, nil
}

// formatRupees renders 1299 as "₹1,299"
func formatRupees(amount int) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) > 3 {
		s = s[:len(s)-3] + "," + s[len(s)-3:]
	}
	return "₹" + s
}
