package sites

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/clothsearch/backend/internal/domain"
)

// extractProducts reads at most limit product cards from doc. Missing fields
// are reported as "N/A"; normalization decides what to keep.
func extractProducts(doc *goquery.Document, site SiteConfig, limit int) []domain.RawProduct {
	base, _ := url.Parse(site.BaseURL)
	products := make([]domain.RawProduct, 0, limit)

	doc.Find(site.ProductSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(products) >= limit {
			return false
		}
		name := textOrNA(card, site.TitleSelector)
		products = append(products, domain.RawProduct{
			Name:          name,
			PriceDisplay:  textOrNA(card, site.PriceSelector),
			RatingDisplay: textOrNA(card, site.RatingSelector),
			ImageURL:      imageURL(card, site.ImageSelector, base),
			ProductURL:    linkURL(card, site.LinkSelector, base),
			Size:          textOrNA(card, site.SizeSelector),
			Color:         textOrNA(card, site.ColorSelector),
			Gender:        textOrNA(card, site.GenderSelector),
			Material:      materialOf(card, site, name),
			Site:          domain.SiteID(site.ID),
		})
		return true
	})

	return products
}

// materialOf reads the card's material element, falling back to the first
// of the site's fabric hints that appears in the product name.
func materialOf(card *goquery.Selection, site SiteConfig, name string) string {
	if material := textOrNA(card, site.MaterialSelector); material != domain.SentinelNA {
		return material
	}
	lower := strings.ToLower(name)
	for _, hint := range site.MaterialHints {
		if strings.Contains(lower, hint) {
			return hint
		}
	}
	return domain.SentinelNA
}

func textOrNA(card *goquery.Selection, selector string) string {
	if selector == "" {
		return domain.SentinelNA
	}
	text := strings.Join(strings.Fields(card.Find(selector).First().Text()), " ")
	if text == "" {
		return domain.SentinelNA
	}
	return text
}

// imageURL prefers src and falls back to lazy-load attributes
func imageURL(card *goquery.Selection, selector string, base *url.URL) string {
	img := card.Find(selector).First()
	for _, attr := range []string{"src", "data-src", "data-original"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			return resolve(base, v)
		}
	}
	return domain.SentinelNA
}

func linkURL(card *goquery.Selection, selector string, base *url.URL) string {
	link := card.Find(selector).First()
	if goquery.NodeName(card) == "a" && link.Length() == 0 {
		link = card
	}
	if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return resolve(base, href)
	}
	return domain.SentinelNA
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil || u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
