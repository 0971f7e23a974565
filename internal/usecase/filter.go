package usecase

import (
	"strings"

	"github.com/clothsearch/backend/internal/domain"
)

// FilterEngine applies a FilterSpec to normalized products
type FilterEngine struct{}

// NewFilterEngine creates a filter engine
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// Apply returns the products that pass every filter in spec, in input order
func (e *FilterEngine) Apply(products []domain.NormalizedProduct, spec domain.FilterSpec) []domain.NormalizedProduct {
	out := make([]domain.NormalizedProduct, 0, len(products))
	for _, p := range products {
		if e.Matches(p, spec) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether a single product passes spec.
// Missing sub-filters always pass.
func (e *FilterEngine) Matches(p domain.NormalizedProduct, spec domain.FilterSpec) bool {
	if spec.HasPriceFilter() {
		if p.Price == nil {
			return false
		}
		if spec.MinPrice != nil && *p.Price < *spec.MinPrice {
			return false
		}
		if spec.MaxPrice != nil && *p.Price > *spec.MaxPrice {
			return false
		}
	}

	if spec.MinRating > 0 {
		if p.Rating == nil || *p.Rating < spec.MinRating {
			return false
		}
	}

	return containsFold(p.Size, spec.Size) &&
		containsFold(p.Color, spec.Color) &&
		containsFold(p.Gender, spec.Gender)
}

// containsFold is a case-insensitive substring check; an empty want always passes,
// an empty field never matches a non-empty want
func containsFold(field, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(want))
}
