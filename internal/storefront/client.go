package storefront

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/graphql"
)

// ErrNotFound is returned when a handle resolves to no resource.
var ErrNotFound = errors.New("resource not found")

// ErrCartNotFound is returned when a cart ID no longer resolves (carts
// expire server-side); handlers mint a fresh cart on this error.
var ErrCartNotFound = errors.New("cart not found")

// Client is the typed Storefront API client.
type Client struct {
	gql    *graphql.Client
	logger *zap.Logger
}

// NewClient builds a storefront client for the given GraphQL endpoint.
// The access token is sent on every request.
func NewClient(endpoint, accessToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	headers := map[string]string{
		"X-Storefront-Access-Token": accessToken,
	}
	return &Client{
		gql:    graphql.NewClient(endpoint, headers, logger),
		logger: logger,
	}
}

type nodesOf[T any] struct {
	Nodes    []T      `json:"nodes"`
	PageInfo PageInfo `json:"pageInfo"`
}

type productNode struct {
	Product
	Images   nodesOf[Image]          `json:"images"`
	Variants nodesOf[ProductVariant] `json:"variants"`
}

func (n productNode) unwrap() Product {
	p := n.Product
	p.Images = n.Images.Nodes
	p.Variants = n.Variants.Nodes
	return p
}

// ProductByHandle fetches one product with images and variants.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     queryProductByHandle,
		Variables: map[string]any{"handle": handle},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %q: %w", handle, err)
	}
	if data.Product == nil {
		return nil, ErrNotFound
	}
	p := data.Product.unwrap()
	return &p, nil
}

// Products lists products for the index page, newest cursor first.
func (c *Client) Products(ctx context.Context, first int, after string) ([]Product, PageInfo, error) {
	vars := map[string]any{"first": first}
	if after != "" {
		vars["after"] = after
	}
	var data struct {
		Products nodesOf[productNode] `json:"products"`
	}
	err := c.gql.Execute(ctx, graphql.Request{Query: queryProducts, Variables: vars}, &data)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]Product, len(data.Products.Nodes))
	for i, n := range data.Products.Nodes {
		products[i] = n.unwrap()
	}
	return products, data.Products.PageInfo, nil
}

type collectionNode struct {
	Collection
	Products nodesOf[productNode] `json:"products"`
}

// CollectionByHandle fetches a collection and one page of its products.
func (c *Client) CollectionByHandle(ctx context.Context, handle string, first int, after string) (*Collection, error) {
	vars := map[string]any{"handle": handle, "first": first}
	if after != "" {
		vars["after"] = after
	}
	var data struct {
		Collection *collectionNode `json:"collection"`
	}
	err := c.gql.Execute(ctx, graphql.Request{Query: queryCollectionByHandle, Variables: vars}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %q: %w", handle, err)
	}
	if data.Collection == nil {
		return nil, ErrNotFound
	}
	col := data.Collection.Collection
	col.Products = make([]Product, len(data.Collection.Products.Nodes))
	for i, n := range data.Collection.Products.Nodes {
		col.Products[i] = n.unwrap()
	}
	col.ProductsPage = data.Collection.Products.PageInfo
	return &col, nil
}

// Collections lists collections for navigation and the sitemap.
func (c *Client) Collections(ctx context.Context, first int) ([]Collection, error) {
	var data struct {
		Collections nodesOf[Collection] `json:"collections"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     queryCollections,
		Variables: map[string]any{"first": first},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return data.Collections.Nodes, nil
}

// Search runs a product search.
func (c *Client) Search(ctx context.Context, query string, first int) ([]Product, error) {
	var data struct {
		Search nodesOf[productNode] `json:"search"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     querySearch,
		Variables: map[string]any{"query": query, "first": first},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	products := make([]Product, len(data.Search.Nodes))
	for i, n := range data.Search.Nodes {
		products[i] = n.unwrap()
	}
	return products, nil
}

type cartNode struct {
	Cart
	Lines nodesOf[CartLine] `json:"lines"`
}

func (n *cartNode) unwrap() *Cart {
	cart := n.Cart
	cart.Lines = n.Lines.Nodes
	return &cart
}

type cartPayload struct {
	Cart       *cartNode           `json:"cart"`
	UserErrors []graphql.UserError `json:"userErrors"`
}

func (p *cartPayload) result() (*Cart, error) {
	if err := graphql.UserErrorsToError(p.UserErrors); err != nil {
		return nil, err
	}
	if p.Cart == nil {
		return nil, ErrCartNotFound
	}
	return p.Cart.unwrap(), nil
}

// Cart fetches a cart by ID. Expired carts come back nil from the API
// and are reported as ErrCartNotFound.
func (c *Client) Cart(ctx context.Context, id string) (*Cart, error) {
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     queryCart,
		Variables: map[string]any{"id": id},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	if data.Cart == nil {
		return nil, ErrCartNotFound
	}
	return data.Cart.unwrap(), nil
}

// CartCreate creates a cart, optionally seeded with lines.
func (c *Client) CartCreate(ctx context.Context, lines []CartLineInput) (*Cart, error) {
	var data struct {
		CartCreate cartPayload `json:"cartCreate"`
	}
	vars := map[string]any{}
	if len(lines) > 0 {
		vars["lines"] = lines
	}
	err := c.gql.Execute(ctx, graphql.Request{Query: mutationCartCreate, Variables: vars}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return data.CartCreate.result()
}

// CartLinesAdd adds lines to an existing cart.
func (c *Client) CartLinesAdd(ctx context.Context, cartID string, lines []CartLineInput) (*Cart, error) {
	var data struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     mutationCartLinesAdd,
		Variables: map[string]any{"cartId": cartID, "lines": lines},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart lines: %w", err)
	}
	return data.CartLinesAdd.result()
}

// CartLinesUpdate changes quantities of existing lines.
func (c *Client) CartLinesUpdate(ctx context.Context, cartID string, lines []CartLineUpdateInput) (*Cart, error) {
	var data struct {
		CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     mutationCartLinesUpdate,
		Variables: map[string]any{"cartId": cartID, "lines": lines},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart lines: %w", err)
	}
	return data.CartLinesUpdate.result()
}

// CartLinesRemove removes lines from a cart.
func (c *Client) CartLinesRemove(ctx context.Context, cartID string, lineIDs []string) (*Cart, error) {
	var data struct {
		CartLinesRemove cartPayload `json:"cartLinesRemove"`
	}
	err := c.gql.Execute(ctx, graphql.Request{
		Query:     mutationCartLinesRemove,
		Variables: map[string]any{"cartId": cartID, "lineIds": lineIDs},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart lines: %w", err)
	}
	return data.CartLinesRemove.result()
}
