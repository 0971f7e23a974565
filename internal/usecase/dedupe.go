package usecase

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/clothsearch/backend/internal/domain"
)

// Deduplicate drops listings that repeat an earlier one, keeping first
// occurrences in order. Listings with a product page are the same only when
// they point at the same page, so colour and size variants survive. A listing
// without a page repeats any earlier one from the same site with the same name
// and price.
func Deduplicate(products []domain.NormalizedProduct) []domain.NormalizedProduct {
	seen := make(map[string]bool, len(products)*2)
	out := make([]domain.NormalizedProduct, 0, len(products))

	for _, p := range products {
		urlKey, listingKey := dedupeKeys(p)
		matchKey := urlKey
		if matchKey == "" {
			matchKey = listingKey
		}
		if matchKey != "" && seen[matchKey] {
			continue
		}
		for _, k := range []string{urlKey, listingKey} {
			if k != "" {
				seen[k] = true
			}
		}
		out = append(out, p)
	}
	return out
}

func dedupeKeys(p domain.NormalizedProduct) (urlKey, listingKey string) {
	if u := canonicalProductURL(p.ProductURL); u != "" && u != strings.ToLower(domain.SentinelNA) {
		urlKey = "url:" + u
	}
	if name := normalizeForKey(p.Name); name != "" && p.Price != nil {
		listingKey = "listing:" + string(p.Site) + "|" + name + "|" + strconv.FormatFloat(*p.Price, 'f', 2, 64)
	}
	return urlKey, listingKey
}

// canonicalProductURL drops the scheme, fragment and trailing slashes
func canonicalProductURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	key := strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}
