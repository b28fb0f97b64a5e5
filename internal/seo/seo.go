package seo

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"strings"

	"github.com/vitrin/vitrin/internal/storefront"
)

// Tags is everything a page template needs to emit its head section.
type Tags struct {
	Title       string
	Description string
	Canonical   string
	OpenGraph   map[string]string
	// JSONLD is a pre-marshaled schema.org document, already safe to
	// inline inside a <script type="application/ld+json"> block.
	JSONLD template.JS
}

const titleSuffix = " | Vitrin"

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func jsonLD(doc any) template.JS {
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	// "</script>" inside string values would terminate the inline block.
	safe := strings.ReplaceAll(string(data), "</", `<\/`)
	return template.JS(safe)
}

// ForProduct builds head tags for a product page. Merchant SEO overrides
// win over the product's own title/description.
func ForProduct(publicURL string, p *storefront.Product) Tags {
	title := p.SEO.Title
	if title == "" {
		title = p.Title
	}
	desc := p.SEO.Description
	if desc == "" {
		desc = clip(stripTags(p.DescriptionHTML), 160)
	}

	canonical := fmt.Sprintf("%s/products/%s", publicURL, p.Handle)
	og := map[string]string{
		"og:type":  "product",
		"og:title": title,
		"og:url":   canonical,
	}
	if desc != "" {
		og["og:description"] = desc
	}
	if p.FeaturedImage != nil {
		og["og:image"] = p.FeaturedImage.URL
	}

	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        p.Title,
		"description": desc,
		"url":         canonical,
		"brand": map[string]any{
			"@type": "Brand",
			"name":  p.Vendor,
		},
		"offers": map[string]any{
			"@type":         "AggregateOffer",
			"lowPrice":      p.PriceRange.MinVariantPrice.Amount,
			"highPrice":     p.PriceRange.MaxVariantPrice.Amount,
			"priceCurrency": p.PriceRange.MinVariantPrice.CurrencyCode,
		},
	}
	if p.FeaturedImage != nil {
		ld["image"] = p.FeaturedImage.URL
	}

	return Tags{
		Title:       title + titleSuffix,
		Description: desc,
		Canonical:   canonical,
		OpenGraph:   og,
		JSONLD:      jsonLD(ld),
	}
}

// ForCollection builds head tags for a collection page.
func ForCollection(publicURL string, col *storefront.Collection) Tags {
	title := col.SEO.Title
	if title == "" {
		title = col.Title
	}
	desc := col.SEO.Description
	if desc == "" {
		desc = clip(col.Description, 160)
	}

	canonical := fmt.Sprintf("%s/collections/%s", publicURL, col.Handle)
	og := map[string]string{
		"og:type":  "website",
		"og:title": title,
		"og:url":   canonical,
	}
	if desc != "" {
		og["og:description"] = desc
	}
	if col.Image != nil {
		og["og:image"] = col.Image.URL
	}

	items := make([]map[string]any, len(col.Products))
	for i, p := range col.Products {
		items[i] = map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"url":      fmt.Sprintf("%s/products/%s", publicURL, p.Handle),
			"name":     p.Title,
		}
	}
	ld := map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            title,
		"itemListElement": items,
	}

	return Tags{
		Title:       title + titleSuffix,
		Description: desc,
		Canonical:   canonical,
		OpenGraph:   og,
		JSONLD:      jsonLD(ld),
	}
}

// ForPage builds head tags for a plain page (index, cart, search).
func ForPage(publicURL, path, title, desc string) Tags {
	canonical := publicURL + path
	return Tags{
		Title:       title + titleSuffix,
		Description: desc,
		Canonical:   canonical,
		OpenGraph: map[string]string{
			"og:type":  "website",
			"og:title": title,
			"og:url":   canonical,
		},
	}
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders a sitemap.xml document for the given absolute URLs.
func Sitemap(urls []string) ([]byte, error) {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, u := range urls {
		set.URLs = append(set.URLs, sitemapURL{Loc: u, ChangeFreq: "daily", Priority: 0.8})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Robots returns the robots.txt body pointing crawlers at the sitemap.
func Robots(publicURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /cart\n")
	b.WriteString("Disallow: /account\n")
	if publicURL != "" {
		fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n", publicURL)
	}
	return b.String()
}

// stripTags is a minimal tag stripper for meta descriptions sourced from
// descriptionHtml; not a sanitizer, output is re-escaped by templates.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
