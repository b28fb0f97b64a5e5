package storefront

// Wire types for the Storefront API. Connection fields use the nodes
// shorthand rather than edges, and every list carries PageInfo for
// cursor pagination.

// Money is an amount in a specific currency, kept as the API's decimal
// string to avoid float drift in totals.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Image is a remote image with optional alt text.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// PageInfo is the cursor pagination envelope.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// SEOFields carries the merchant-edited search overrides on a resource.
type SEOFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProductVariant is one sellable variation of a product.
type ProductVariant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	AvailableForSale  bool             `json:"availableForSale"`
	Price             Money            `json:"price"`
	CompareAtPrice    *Money           `json:"compareAtPrice,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions,omitempty"`
	QuantityAvailable int              `json:"quantityAvailable,omitempty"`
}

// SelectedOption is a name/value pair such as Size: M.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PriceRange is the min/max variant price span shown on listings.
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

// Product is the storefront view of a product.
type Product struct {
	ID              string     `json:"id"`
	Handle          string     `json:"handle"`
	Title           string     `json:"title"`
	DescriptionHTML string     `json:"descriptionHtml"`
	Vendor          string     `json:"vendor,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	FeaturedImage   *Image     `json:"featuredImage,omitempty"`
	Images          []Image    `json:"-"`
	PriceRange      PriceRange `json:"priceRange"`
	SEO             SEOFields  `json:"seo"`

	Variants []ProductVariant `json:"-"`
}

// Collection groups products under a handle.
type Collection struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Image       *Image    `json:"image,omitempty"`
	SEO         SEOFields `json:"seo"`

	Products     []Product `json:"-"`
	ProductsPage PageInfo  `json:"-"`
}

// CartLine is one line in a cart; Merchandise is the variant plus enough
// product context to render the line without a second query.
type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Cost        LineCost    `json:"cost"`
	Merchandise Merchandise `json:"merchandise"`
}

// LineCost is the extended cost of a cart line.
type LineCost struct {
	TotalAmount Money `json:"totalAmount"`
}

// Merchandise is the variant referenced by a cart line.
type Merchandise struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Image   *Image `json:"image,omitempty"`
	Product struct {
		Handle string `json:"handle"`
		Title  string `json:"title"`
	} `json:"product"`
	Price Money `json:"price"`
}

// CartCost aggregates cart totals.
type CartCost struct {
	SubtotalAmount Money  `json:"subtotalAmount"`
	TotalAmount    Money  `json:"totalAmount"`
	TotalTaxAmount *Money `json:"totalTaxAmount,omitempty"`
}

// Cart is the API-held cart; this repository never stores cart contents
// locally, only the ID inside the session.
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Cost          CartCost   `json:"cost"`
	Lines         []CartLine `json:"-"`
}

// CartLineInput is the mutation input for adding a line.
type CartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// CartLineUpdateInput changes the quantity of an existing line.
type CartLineUpdateInput struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// SearchResult is one product hit for a search query.
type SearchResult struct {
	Product Product
}
