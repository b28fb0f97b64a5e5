package render_test

import (
	"bytes"
	"testing"

	"github.com/vitrin/vitrin/internal/render"
	"github.com/vitrin/vitrin/internal/storefront"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		expected string
	}{
		{"24.0", "USD", "$24.00"},
		{"24", "CAD", "$24.00"},
		{"19.9", "EUR", "€19.90"},
		{"5", "GBP", "£5.00"},
		{"1200", "JPY", "¥1200"},
		{"99.95", "PLN", "99.95 PLN"},
		{"10.00", "", "10.00"},
		{"not-a-number", "USD", "$not-a-number"},
	}

	for _, tc := range cases {
		got := render.FormatMoney(storefront.Money{Amount: tc.amount, CurrencyCode: tc.currency})
		assert.Equal(t, tc.expected, got, "%s %s", tc.amount, tc.currency)
	}
}

func TestEngineLoadsAllPages(t *testing.T) {
	engine := render.NewEngine()
	assert.NoError(t, engine.Load())

	for _, page := range []string{"index", "product", "collection", "cart", "search", "account", "error"} {
		var buf bytes.Buffer
		err := engine.Render(&buf, page, fiberMapFor(page))
		assert.NoError(t, err, "page %s", page)
		assert.Contains(t, buf.String(), "<!DOCTYPE html>", "page %s", page)
	}
}

func TestEngineUnknownTemplate(t *testing.T) {
	engine := render.NewEngine()
	assert.NoError(t, engine.Load())

	var buf bytes.Buffer
	err := engine.Render(&buf, "no-such-page", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-page")
}

func TestProductPageRendersVariantsAndPrice(t *testing.T) {
	engine := render.NewEngine()
	assert.NoError(t, engine.Load())

	product := storefront.Product{
		ID:     "gid://shopify/Product/1",
		Handle: "wool-hat",
		Title:  "Wool Hat",
		PriceRange: storefront.PriceRange{
			MinVariantPrice: storefront.Money{Amount: "24.0", CurrencyCode: "USD"},
		},
		Variants: []storefront.ProductVariant{
			{ID: "gid://shopify/ProductVariant/11", Title: "Small", AvailableForSale: true,
				Price: storefront.Money{Amount: "24.0", CurrencyCode: "USD"}},
		},
	}

	var buf bytes.Buffer
	err := engine.Render(&buf, "product", map[string]interface{}{
		"Product": product,
	})
	assert.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Wool Hat")
	assert.Contains(t, html, "$24.00")
	assert.Contains(t, html, "gid://shopify/ProductVariant/11")
}

// fiberMapFor returns the minimum bind each page needs to execute.
func fiberMapFor(page string) map[string]interface{} {
	bind := map[string]interface{}{}
	switch page {
	case "product":
		bind["Product"] = storefront.Product{Title: "x"}
	case "collection":
		bind["Collection"] = storefront.Collection{Title: "x"}
	case "cart":
		bind["Cart"] = nil
	case "error":
		bind["Status"] = 500
		bind["Message"] = "boom"
	}
	return bind
}
