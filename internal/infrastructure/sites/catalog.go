package sites

import (
	"net/url"
	"strings"
)

// SiteConfig describes how to search one site and where each field lives in
// its result page. Selectors are CSS selectors evaluated inside a product card.
type SiteConfig struct {
	ID      string
	Aliases []string
	BaseURL string
	// SearchPath is appended to BaseURL. {query} is replaced by the query
	// string-escaped text, {slug} by a lowercase hyphenated path segment.
	SearchPath string

	ProductSelector  string
	TitleSelector    string
	PriceSelector    string
	RatingSelector   string
	ImageSelector    string
	LinkSelector     string
	SizeSelector     string
	ColorSelector    string
	GenderSelector   string
	MaterialSelector string

	// MaterialHints are fabric words looked for in the product name when the
	// card has no material element, for sites that name listings by fabric.
	MaterialHints []string
}

// SearchURL builds the search page URL for query
func (c SiteConfig) SearchURL(query string) string {
	path := strings.ReplaceAll(c.SearchPath, "{query}", url.QueryEscape(query))
	path = strings.ReplaceAll(path, "{slug}", slugify(query))
	return strings.TrimRight(c.BaseURL, "/") + path
}

// WithBaseURL returns a copy pointing at another host, used for mirrors and tests
func (c SiteConfig) WithBaseURL(base string) SiteConfig {
	if strings.TrimSpace(base) != "" {
		c.BaseURL = strings.TrimSpace(base)
	}
	return c
}

func slugify(query string) string {
	return url.PathEscape(strings.Join(strings.Fields(strings.ToLower(query)), "-"))
}

const (
	sizeSelector   = `[class*="size"], [class*="Size"]`
	colorSelector  = `[class*="color"], [class*="Color"]`
	genderSelector = `[class*="gender"], [class*="Gender"]`

	materialSelector = `[class*="material"], [class*="Material"], [class*="fabric"], [class*="Fabric"]`
)

// DefaultCatalog lists the supported clothing sites
func DefaultCatalog() []SiteConfig {
	return []SiteConfig{
		{
			ID:               "meesho",
			BaseURL:          "https://www.meesho.com",
			SearchPath:       "/search?q={query}",
			ProductSelector:  `[class*="ProductList__GridCol"], [class*="ProductCard"], [data-testid*="product"]`,
			TitleSelector:    `p[class*="Text__StyledText"], div[class*="ProductName"], [class*="name"]`,
			PriceSelector:    `h5[class*="Text__StyledText"], [class*="price"], span[class*="rupee"]`,
			RatingSelector:   `span[class*="Rating__StyledRating"], [class*="rating"]`,
			ImageSelector:    "img",
			LinkSelector:     `a[href*="/p/"], a`,
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
		},
		{
			ID:               "nykaa",
			Aliases:          []string{"nykaafashion", "nykaa_fashion"},
			BaseURL:          "https://www.nykaafashion.com",
			SearchPath:       "/search?q={query}",
			ProductSelector:  `[class*="product-card"], [class*="product-tile"]`,
			TitleSelector:    `[class*="product-name"], [class*="title"]`,
			PriceSelector:    `[class*="primary-price"], [class*="price"], [class*="amount"]`,
			ImageSelector:    "img",
			LinkSelector:     `a[href*="/p/"], a`,
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
		},
		{
			ID:               "fabindia",
			BaseURL:          "https://www.fabindia.com",
			SearchPath:       "/search?q={query}",
			ProductSelector:  `[class*="product-item"], [class*="product-card"]`,
			TitleSelector:    `[class*="product-name"], [class*="title"]`,
			PriceSelector:    `[class*="price"], [class*="amount"]`,
			ImageSelector:    `img[class*="product-image"], img`,
			LinkSelector:     `a[href*="/product/"], a`,
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
			MaterialHints:    []string{"cotton", "linen", "silk", "wool"},
		},
		{
			ID:               "myntra",
			BaseURL:          "https://www.myntra.com",
			SearchPath:       "/{slug}",
			ProductSelector:  `li.product-base, [class*="product-base"]`,
			TitleSelector:    `h4.product-product, [class*="product-brand"], [class*="product-name"]`,
			PriceSelector:    `span.product-discountedPrice, [class*="product-price"]`,
			RatingSelector:   `[class*="product-ratingsContainer"]`,
			ImageSelector:    `img.product-image, img`,
			LinkSelector:     "a",
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
		},
		{
			ID:               "ajio",
			BaseURL:          "https://www.ajio.com",
			SearchPath:       "/search/?text={query}",
			ProductSelector:  `div.rilrtl-products-list__item, [class*="product-card"], [class*="product-tile"]`,
			TitleSelector:    `div.nameCls, [class*="name"], [class*="brand"]`,
			PriceSelector:    `span.price, [class*="price"], [class*="amount"]`,
			ImageSelector:    "img",
			LinkSelector:     `a[href*="/p/"], a`,
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
		},
		{
			ID:              "flipkart",
			BaseURL:         "https://www.flipkart.com",
			SearchPath:      "/search?q={query}",
			ProductSelector: "div._1AtVbE",
			TitleSelector:   "div._4rR01T",
			PriceSelector:   "div._30jeq3",
			RatingSelector:  "div._3LWZlK",
			ImageSelector:   "img._396cs4, img",
			LinkSelector:    "a._1fQZEK, a",
		},
		{
			ID:              "amazon",
			BaseURL:         "https://www.amazon.in",
			SearchPath:      "/s?k={query}",
			ProductSelector: `div[data-component-type="s-search-result"]`,
			TitleSelector:   "span.a-text-normal",
			PriceSelector:   "span.a-price-whole",
			RatingSelector:  "span.a-icon-alt",
			ImageSelector:   "img.s-image",
			LinkSelector:    "a.a-link-normal",
		},
		{
			ID:               "tatacliq",
			BaseURL:          "https://www.tatacliq.com",
			SearchPath:       "/search/?searchCategory=all&text={query}",
			ProductSelector:  `[class*="ProductList__GridCol"], [class*="product-card"], [class*="product-tile"]`,
			TitleSelector:    `[class*="ProductDescription__ProductName"], [class*="product-name"], [class*="title"]`,
			PriceSelector:    `[class*="ProductDescription__Price"], [class*="price"], [class*="amount"]`,
			RatingSelector:   `[class*="ProductDescription__Rating"]`,
			ImageSelector:    `img[class*="ProductImage"], img`,
			LinkSelector:     `a[href*="/p-"], a`,
			SizeSelector:     sizeSelector,
			ColorSelector:    colorSelector,
			GenderSelector:   genderSelector,
			MaterialSelector: materialSelector,
		},
	}
}

// Select returns the catalogue entries named in enabled, by id or alias, in
// catalogue order. An empty list selects everything.
func Select(catalog []SiteConfig, enabled []string) []SiteConfig {
	if len(enabled) == 0 {
		return catalog
	}
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		want[strings.ToLower(strings.TrimSpace(name))] = true
	}

	out := make([]SiteConfig, 0, len(enabled))
	for _, site := range catalog {
		if want[site.ID] {
			out = append(out, site)
			continue
		}
		for _, alias := range site.Aliases {
			if want[alias] {
				out = append(out, site)
				break
			}
		}
	}
	return out
}
