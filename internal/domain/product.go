package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// SentinelNA is the placeholder sites use for a missing field
const SentinelNA = "N/A"

// MaxRating is the top of the canonical rating scale
const MaxRating = 5.0

// SiteID identifies a site adapter in the registry, e.g. "meesho"
type SiteID string

// FilterSpec holds the optional post-fetch filters of a search
type FilterSpec struct {
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinRating float64  `json:"min_rating,omitempty"` // 0 disables the rating filter
	Size      string   `json:"size,omitempty"`
	Color     string   `json:"color,omitempty"`
	Gender    string   `json:"gender,omitempty"`
}

// HasPriceFilter reports whether either price bound is set
func (f FilterSpec) HasPriceFilter() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// Validate rejects negative bounds, inverted price ranges and ratings off the 0-5 scale
func (f FilterSpec) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return errors.Wrapf(ErrInvalidFilter, "min_price must be >= 0, got %v", *f.MinPrice)
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return errors.Wrapf(ErrInvalidFilter, "max_price must be >= 0, got %v", *f.MaxPrice)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return errors.Wrapf(ErrInvalidFilter, "min_price %v exceeds max_price %v", *f.MinPrice, *f.MaxPrice)
	}
	if f.MinRating < 0 || f.MinRating > MaxRating {
		return errors.Wrapf(ErrInvalidFilter, "min_rating must be within 0-5, got %v", f.MinRating)
	}
	return nil
}

// Query is a single search request. It is built once and never mutated.
type Query struct {
	Text           string        `json:"query"`
	Sites          []string      `json:"sites,omitempty"` // empty means every registered site
	Filter         FilterSpec    `json:"filter"`
	Timeout        time.Duration `json:"timeout"`          // global deadline for the whole fanout
	PerSiteTimeout time.Duration `json:"per_site_timeout"` // deadline handed to each adapter
}

// Validate checks the query before any fanout happens
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrInvalidQuery
	}
	return q.Filter.Validate()
}

// RawProduct holds the fields a site reported, exactly as extracted
type RawProduct struct {
	Name          string `json:"name"`
	PriceDisplay  string `json:"price_display"`
	RatingDisplay string `json:"rating_display,omitempty"`
	ImageURL      string `json:"image_url"`
	ProductURL    string `json:"product_url"`
	Size          string `json:"size,omitempty"`
	Color         string `json:"color,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Material      string `json:"material,omitempty"`
	Site          SiteID `json:"site"`
}

// NormalizedProduct is a product with canonical numeric price and rating
type NormalizedProduct struct {
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	PriceDisplay string   `json:"price_display,omitempty"`
	Rating       *float64 `json:"rating"`
	ImageURL     string   `json:"image_url"`
	ProductURL   string   `json:"product_url"`
	Site         SiteID   `json:"site"`
	Size         string   `json:"size,omitempty"`
	Color        string   `json:"color,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Material     string   `json:"material,omitempty"`
}

// SiteError describes why a single site produced no products
type SiteError struct {
	Site    SiteID    `json:"site"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Describe renders the error the way the response envelope reports it
func (e SiteError) Describe() string {
	switch e.Kind {
	case KindTimeout, KindGlobalDeadline:
		return fmt.Sprintf("Timeout while scraping %s", e.Site)
	case KindCancelled:
		return fmt.Sprintf("Cancelled while scraping %s", e.Site)
	default:
		return fmt.Sprintf("Error scraping %s: %s", e.Site, e.Message)
	}
}

// SiteOutcome is the terminal result of one site task.
// Exactly one of Products and Err is populated.
type SiteOutcome struct {
	Site     SiteID
	Products []RawProduct
	Err      *SiteError
	Attempts int
	Elapsed  time.Duration
}

// OK reports whether the site succeeded
func (o SiteOutcome) OK() bool {
	return o.Err == nil
}

// SearchResult is the response envelope of one search
type SearchResult struct {
	Query         string              `json:"query"`
	TotalResults  int                 `json:"total_results"`
	Results       []NormalizedProduct `json:"results"`
	ExecutionTime float64             `json:"execution_time"` // seconds, 2 decimals
	Errors        []string            `json:"errors"`         // nil when every site succeeded

	SearchID   string      `json:"-"`
	SiteErrors []SiteError `json:"-"`
}
