package seo_test

import (
	"strings"
	"testing"

	"github.com/vitrin/vitrin/internal/seo"
	"github.com/vitrin/vitrin/internal/storefront"

	"github.com/stretchr/testify/assert"
)

func TestForProduct(t *testing.T) {
	p := &storefront.Product{
		Handle:          "wool-hat",
		Title:           "Wool Hat",
		DescriptionHTML: "<p>A <strong>warm</strong> hat.</p>",
		Vendor:          "Vitrin Knits",
		FeaturedImage:   &storefront.Image{URL: "https://cdn.example.com/hat.jpg"},
		PriceRange: storefront.PriceRange{
			MinVariantPrice: storefront.Money{Amount: "24.00", CurrencyCode: "USD"},
			MaxVariantPrice: storefront.Money{Amount: "32.00", CurrencyCode: "USD"},
		},
	}

	tags := seo.ForProduct("https://shop.example.com", p)

	assert.Equal(t, "Wool Hat | Vitrin", tags.Title)
	assert.Equal(t, "A warm hat.", tags.Description)
	assert.Equal(t, "https://shop.example.com/products/wool-hat", tags.Canonical)
	assert.Equal(t, "product", tags.OpenGraph["og:type"])
	assert.Equal(t, "https://cdn.example.com/hat.jpg", tags.OpenGraph["og:image"])

	ld := string(tags.JSONLD)
	assert.Contains(t, ld, `"@type":"Product"`)
	assert.Contains(t, ld, `"lowPrice":"24.00"`)
	assert.Contains(t, ld, `"highPrice":"32.00"`)
	assert.Contains(t, ld, `"priceCurrency":"USD"`)
}

func TestForProductMerchantOverridesWin(t *testing.T) {
	p := &storefront.Product{
		Handle: "wool-hat",
		Title:  "Wool Hat",
		SEO: storefront.SEOFields{
			Title:       "Best Wool Hat",
			Description: "Hand-edited description.",
		},
	}

	tags := seo.ForProduct("https://shop.example.com", p)

	assert.Equal(t, "Best Wool Hat | Vitrin", tags.Title)
	assert.Equal(t, "Hand-edited description.", tags.Description)
}

func TestForProductEscapesScriptCloser(t *testing.T) {
	p := &storefront.Product{
		Handle: "x",
		Title:  "x",
		SEO:    storefront.SEOFields{Description: "tricky </script><script>alert(1)</script>"},
	}

	tags := seo.ForProduct("https://shop.example.com", p)

	ld := string(tags.JSONLD)
	assert.NotContains(t, ld, "</script>")
	assert.Contains(t, ld, "alert(1)")
}

func TestForCollection(t *testing.T) {
	col := &storefront.Collection{
		Handle:      "hats",
		Title:       "Hats",
		Description: strings.Repeat("Very long description. ", 20),
		Products: []storefront.Product{
			{Handle: "wool-hat", Title: "Wool Hat"},
			{Handle: "straw-hat", Title: "Straw Hat"},
		},
	}

	tags := seo.ForCollection("https://shop.example.com", col)

	assert.Equal(t, "Hats | Vitrin", tags.Title)
	assert.LessOrEqual(t, len(tags.Description), 165)
	assert.Equal(t, "https://shop.example.com/collections/hats", tags.Canonical)

	ld := string(tags.JSONLD)
	assert.Contains(t, ld, `"@type":"ItemList"`)
	assert.Contains(t, ld, "https://shop.example.com/products/straw-hat")
}

func TestForPage(t *testing.T) {
	tags := seo.ForPage("https://shop.example.com", "/search", "Search", "")

	assert.Equal(t, "Search | Vitrin", tags.Title)
	assert.Equal(t, "https://shop.example.com/search", tags.Canonical)
	assert.Equal(t, "website", tags.OpenGraph["og:type"])
	assert.Empty(t, tags.JSONLD)
}

func TestSitemap(t *testing.T) {
	out, err := seo.Sitemap([]string{
		"https://shop.example.com/",
		"https://shop.example.com/products/wool-hat",
	})
	assert.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, body, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
	assert.Contains(t, body, "<loc>https://shop.example.com/products/wool-hat</loc>")
	assert.Contains(t, body, "<changefreq>daily</changefreq>")
}

func TestRobots(t *testing.T) {
	body := seo.Robots("https://shop.example.com")

	assert.Contains(t, body, "User-agent: *\n")
	assert.Contains(t, body, "Disallow: /cart\n")
	assert.Contains(t, body, "Disallow: /account\n")
	assert.Contains(t, body, "Sitemap: https://shop.example.com/sitemap.xml\n")

	assert.NotContains(t, seo.Robots(""), "Sitemap:")
}
