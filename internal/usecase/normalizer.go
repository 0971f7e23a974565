package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clothsearch/backend/internal/domain"
)

// priceRunRegex matches the first run of digits and thousands separators with
// an optional fractional part, e.g. "1,299" in "₹1,299 onwards" or "49.99" in "$49.99".
var priceRunRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ratingTokenRegex accepts plain decimals only ("4", "4.3")
var ratingTokenRegex = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// materialSynonyms maps raw material descriptions to canonical terms.
// Order matters: the first key contained in the input wins, so longer phrases
// ("cotton blend") must come before their prefixes ("cotton").
var materialSynonyms = []struct {
	key   string
	value string
}{
	{"cotton blend", "Cotton Blend"},
	{"cotton mix", "Cotton Blend"},
	{"cotton", "Cotton"},
	{"polyester", "Polyester"},
	{"wool", "Wool"},
	{"silk", "Silk"},
	{"linen", "Linen"},
	{"rayon", "Rayon"},
	{"nylon", "Nylon"},
	{"denim", "Denim"},
	{"spandex", "Spandex"},
	{"elastane", "Spandex"},
	{"viscose", "Viscose"},
	{"modal", "Modal"},
	{"lycra", "Spandex"},
}

// isSentinel reports whether a site field is empty or the "N/A" placeholder
func isSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, domain.SentinelNA)
}

// NormalizePrice extracts a numeric price from a display string such as "₹1,299".
// Returns nil for empty input, the "N/A" sentinel, or text with no digits.
func NormalizePrice(s string) *float64 {
	if isSentinel(s) {
		return nil
	}

	run := priceRunRegex.FindString(s)
	if run == "" {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64)
	if err != nil || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

// NormalizeRating reads the leading numeric token of a rating string.
// Accepts "4.3", "4.3 out of 5" and "4.3|120 reviews". Anything else is nil.
// Values outside 0-5 are returned as-is.
func NormalizeRating(s string) *float64 {
	if isSentinel(s) {
		return nil
	}

	token := strings.TrimSpace(s)
	if idx := strings.IndexAny(token, " |"); idx >= 0 {
		token = token[:idx]
	}
	if !ratingTokenRegex.MatchString(token) {
		return nil
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &value
}

// NormalizeMaterial maps a material description onto a canonical term.
// Unknown materials are returned with the first letter capitalized.
func NormalizeMaterial(s string) string {
	if isSentinel(s) {
		return domain.SentinelNA
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	for _, syn := range materialSynonyms {
		if strings.Contains(lower, syn.key) {
			return syn.value
		}
	}

	first, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(first)) + lower[size:]
}

// NormalizeProduct converts a raw site record into canonical form.
// It never drops a record; use IsPresentable to decide what reaches the response.
func NormalizeProduct(raw domain.RawProduct) domain.NormalizedProduct {
	p := domain.NormalizedProduct{
		Name:         strings.TrimSpace(raw.Name),
		Price:        NormalizePrice(raw.PriceDisplay),
		PriceDisplay: strings.TrimSpace(raw.PriceDisplay),
		Rating:       NormalizeRating(raw.RatingDisplay),
		ImageURL:     optionalField(raw.ImageURL),
		ProductURL:   optionalField(raw.ProductURL),
		Site:         raw.Site,
		Size:         optionalField(raw.Size),
		Color:        optionalField(raw.Color),
		Gender:       optionalField(raw.Gender),
	}
	if !isSentinel(raw.Material) {
		p.Material = NormalizeMaterial(raw.Material)
	}
	return p
}

// IsPresentable reports whether a product may appear in a search result:
// it needs a price and a real name.
func IsPresentable(p domain.NormalizedProduct) bool {
	return p.Price != nil && !isSentinel(p.Name)
}

// optionalField trims a field and folds the sentinel into an empty string
func optionalField(s string) string {
	if isSentinel(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
