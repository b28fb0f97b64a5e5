package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/seo"
	"github.com/vitrin/vitrin/internal/session"
	"github.com/vitrin/vitrin/internal/storefront"
)

const pageSize = 24

// StoreHandler serves the browsing routes: index, product, collection,
// search, plus sitemap/robots/health.
type StoreHandler struct {
	deps Deps
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(deps Deps) *StoreHandler {
	return &StoreHandler{deps: deps}
}

// RegisterRoutes registers the browsing routes with the Fiber app.
func (h *StoreHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Get("/products/:handle", h.HandleProduct)
	router.Get("/collections/:handle", h.HandleCollection)
	router.Get("/search", h.HandleSearch)
	router.Get("/sitemap.xml", h.HandleSitemap)
	router.Get("/robots.txt", h.HandleRobots)
	router.Get("/health", h.HandleHealth)

	if p := h.deps.mount("products"); p != "" {
		router.Get(p+"/:handle", h.HandleProduct)
	}
	if p := h.deps.mount("collections"); p != "" {
		router.Get(p+"/:handle", h.HandleCollection)
	}
	if p := h.deps.mount("search"); p != "" {
		router.Get(p, h.HandleSearch)
	}
}

// page assembles the bind map every layout render needs: SEO tags, the
// cart badge count and any flash message (which is consumed).
func (h *StoreHandler) page(c *fiber.Ctx, tags seo.Tags, extra fiber.Map) fiber.Map {
	return basePage(c, h.deps, tags, extra)
}

func basePage(c *fiber.Ctx, deps Deps, tags seo.Tags, extra fiber.Map) fiber.Map {
	s := deps.Sessions.Load(c)

	bind := fiber.Map{
		"SEO":          tags,
		"Query":        c.Query("q"),
		"CartQuantity": cartQuantity(c, deps, s),
		"Flash":        s.Flash,
	}
	if s.Flash != "" {
		s.Flash = ""
		if err := deps.Sessions.Commit(c, s); err != nil {
			deps.Logger.Warn("failed to clear flash", zap.Error(err))
		}
	}
	for k, v := range extra {
		bind[k] = v
	}
	return bind
}

// cartQuantity reads the badge count without failing the page when the
// cart fetch errors; a wrong badge beats a broken page.
func cartQuantity(c *fiber.Ctx, deps Deps, s *session.Session) int {
	if s.CartID == "" {
		return 0
	}
	cart, err := deps.Storefront.Cart(c.Context(), s.CartID)
	if err != nil {
		return 0
	}
	return cart.TotalQuantity
}

// HandleIndex renders the landing page: collection navigation plus a
// page of featured products.
func (h *StoreHandler) HandleIndex(c *fiber.Ctx) error {
	ctx := c.Context()

	collections, err := h.deps.Storefront.Collections(ctx, 8)
	if err != nil {
		h.deps.Logger.Warn("failed to load collections for index", zap.Error(err))
		collections = nil
	}

	products, pageInfo, err := h.deps.Storefront.Products(ctx, pageSize, c.Query("after"))
	if err != nil {
		return fmt.Errorf("failed to load index products: %w", err)
	}

	tags := seo.ForPage(h.deps.Config.PublicURL, "/", "Shop", "Browse our full catalog.")
	return c.Render("index", h.page(c, tags, fiber.Map{
		"Collections": collections,
		"Products":    products,
		"PageInfo":    pageInfo,
	}))
}

// HandleProduct renders a product detail page.
func (h *StoreHandler) HandleProduct(c *fiber.Ctx) error {
	handle := c.Params("handle")

	product, err := h.deps.Storefront.ProductByHandle(c.Context(), handle)
	if err != nil {
		if errors.Is(err, storefront.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return fmt.Errorf("failed to load product %q: %w", handle, err)
	}

	tags := seo.ForProduct(h.deps.Config.PublicURL, product)
	return c.Render("product", h.page(c, tags, fiber.Map{
		"Product": product,
	}))
}

// HandleCollection renders a collection page with cursor pagination.
func (h *StoreHandler) HandleCollection(c *fiber.Ctx) error {
	handle := c.Params("handle")

	col, err := h.deps.Storefront.CollectionByHandle(c.Context(), handle, pageSize, c.Query("after"))
	if err != nil {
		if errors.Is(err, storefront.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return fmt.Errorf("failed to load collection %q: %w", handle, err)
	}

	tags := seo.ForCollection(h.deps.Config.PublicURL, col)
	return c.Render("collection", h.page(c, tags, fiber.Map{
		"Collection": col,
	}))
}

// HandleSearch runs a product search for ?q=.
func (h *StoreHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")

	var results []storefront.Product
	if query != "" {
		var err error
		results, err = h.deps.Storefront.Search(c.Context(), query, pageSize)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	tags := seo.ForPage(h.deps.Config.PublicURL, "/search", "Search", "")
	return c.Render("search", h.page(c, tags, fiber.Map{
		"Results": results,
	}))
}

// HandleSitemap emits sitemap.xml from the live catalog.
func (h *StoreHandler) HandleSitemap(c *fiber.Ctx) error {
	ctx := c.Context()
	base := h.deps.Config.PublicURL

	urls := []string{base + "/"}

	collections, err := h.deps.Storefront.Collections(ctx, 50)
	if err != nil {
		return fmt.Errorf("failed to build sitemap: %w", err)
	}
	for _, col := range collections {
		urls = append(urls, fmt.Sprintf("%s/collections/%s", base, col.Handle))
	}

	after := ""
	for {
		products, pageInfo, err := h.deps.Storefront.Products(ctx, 100, after)
		if err != nil {
			return fmt.Errorf("failed to build sitemap: %w", err)
		}
		for _, p := range products {
			urls = append(urls, fmt.Sprintf("%s/products/%s", base, p.Handle))
		}
		if !pageInfo.HasNextPage {
			break
		}
		after = pageInfo.EndCursor
	}

	body, err := seo.Sitemap(urls)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(body)
}

// HandleRobots serves robots.txt.
func (h *StoreHandler) HandleRobots(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(seo.Robots(h.deps.Config.PublicURL))
}

// HandleHealth reports process liveness.
func (h *StoreHandler) HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
