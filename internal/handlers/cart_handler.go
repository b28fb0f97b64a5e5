package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/seo"
	"github.com/vitrin/vitrin/internal/storefront"
	"github.com/vitrin/vitrin/pkg/events"
)

// CartHandler serves the cart page and the cart mutation actions.
type CartHandler struct {
	deps     Deps
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(deps Deps) *CartHandler {
	return &CartHandler{
		deps:     deps,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/cart", h.HandleCartPage)
	router.Get("/cart/checkout", h.HandleCheckout)
	cartRoutes := router.Group("/cart/lines")
	cartRoutes.Post("/", h.HandleAddLine)
	cartRoutes.Post("/update", h.HandleUpdateLine)
	cartRoutes.Post("/remove", h.HandleRemoveLine)
}

// AddLineRequest is the add-to-cart form body.
type AddLineRequest struct {
	VariantID string `form:"variant_id" validate:"required"`
	Quantity  int    `form:"quantity" validate:"gte=1,lte=99"`
}

// UpdateLineRequest changes one line's quantity.
type UpdateLineRequest struct {
	LineID   string `form:"line_id" validate:"required"`
	Quantity int    `form:"quantity" validate:"gte=1,lte=99"`
}

// RemoveLineRequest removes one line.
type RemoveLineRequest struct {
	LineID string `form:"line_id" validate:"required"`
}

// HandleCartPage renders the cart. An expired cart ID is dropped from
// the session and shown as an empty cart.
func (h *CartHandler) HandleCartPage(c *fiber.Ctx) error {
	s := h.deps.Sessions.Load(c)

	var cart *storefront.Cart
	if s.CartID != "" {
		var err error
		cart, err = h.deps.Storefront.Cart(c.Context(), s.CartID)
		if err != nil {
			if !errors.Is(err, storefront.ErrCartNotFound) {
				return fmt.Errorf("failed to load cart: %w", err)
			}
			s.CartID = ""
			if err := h.deps.Sessions.Commit(c, s); err != nil {
				h.deps.Logger.Warn("failed to drop expired cart", zap.Error(err))
			}
		}
	}

	tags := seo.ForPage(h.deps.Config.PublicURL, "/cart", "Cart", "")
	return c.Render("cart", basePage(c, h.deps, tags, fiber.Map{
		"Cart": cart,
	}))
}

// HandleAddLine adds a variant to the cart, creating the cart on first
// use. The new cart ID is pinned to the session.
func (h *CartHandler) HandleAddLine(c *fiber.Ctx) error {
	var req AddLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	ctx := c.Context()
	s := h.deps.Sessions.Load(c)
	lines := []storefront.CartLineInput{{MerchandiseID: req.VariantID, Quantity: req.Quantity}}

	var cart *storefront.Cart
	var err error
	created := false
	if s.CartID == "" {
		cart, err = h.deps.Storefront.CartCreate(ctx, lines)
		created = true
	} else {
		cart, err = h.deps.Storefront.CartLinesAdd(ctx, s.CartID, lines)
		if errors.Is(err, storefront.ErrCartNotFound) {
			// Cart expired upstream; mint a new one with the same lines.
			cart, err = h.deps.Storefront.CartCreate(ctx, lines)
			created = true
		}
	}
	if err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	s.CartID = cart.ID
	s.Flash = "Added to cart."
	if err := h.deps.Sessions.Commit(c, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	h.publish(created, cart)
	return c.Redirect("/cart", fiber.StatusSeeOther)
}

// HandleCheckout hands the customer off to the hosted checkout for the
// session's cart.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	s := h.deps.Sessions.Load(c)
	if s.CartID == "" {
		return c.Redirect("/cart", fiber.StatusSeeOther)
	}

	cart, err := h.deps.Storefront.Cart(c.Context(), s.CartID)
	if err != nil {
		if errors.Is(err, storefront.ErrCartNotFound) {
			s.CartID = ""
			if cerr := h.deps.Sessions.Commit(c, s); cerr != nil {
				h.deps.Logger.Warn("failed to drop expired cart", zap.Error(cerr))
			}
			return c.Redirect("/cart", fiber.StatusSeeOther)
		}
		return fmt.Errorf("failed to load cart: %w", err)
	}

	if h.deps.Events != nil {
		err := h.deps.Events.Publish(events.New(events.TypeCheckoutStarted, map[string]any{
			"cart_id":        cart.ID,
			"total_quantity": cart.TotalQuantity,
			"total":          cart.Cost.TotalAmount,
		}))
		if err != nil {
			h.deps.Logger.Warn("failed to publish checkout event", zap.Error(err))
		}
	}
	return c.Redirect(cart.CheckoutURL, fiber.StatusSeeOther)
}

// HandleUpdateLine changes line quantity.
func (h *CartHandler) HandleUpdateLine(c *fiber.Ctx) error {
	var req UpdateLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	s := h.deps.Sessions.Load(c)
	if s.CartID == "" {
		return c.Redirect("/cart", fiber.StatusSeeOther)
	}

	cart, err := h.deps.Storefront.CartLinesUpdate(c.Context(), s.CartID, []storefront.CartLineUpdateInput{
		{ID: req.LineID, Quantity: req.Quantity},
	})
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}

	h.publish(false, cart)
	return c.Redirect("/cart", fiber.StatusSeeOther)
}

// HandleRemoveLine removes a line.
func (h *CartHandler) HandleRemoveLine(c *fiber.Ctx) error {
	var req RemoveLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	s := h.deps.Sessions.Load(c)
	if s.CartID == "" {
		return c.Redirect("/cart", fiber.StatusSeeOther)
	}

	cart, err := h.deps.Storefront.CartLinesRemove(c.Context(), s.CartID, []string{req.LineID})
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	h.publish(false, cart)
	return c.Redirect("/cart", fiber.StatusSeeOther)
}

func (h *CartHandler) publish(created bool, cart *storefront.Cart) {
	if h.deps.Events == nil {
		return
	}
	eventType := events.TypeCartUpdated
	if created {
		eventType = events.TypeCartCreated
	}
	err := h.deps.Events.Publish(events.New(eventType, map[string]any{
		"cart_id":        cart.ID,
		"total_quantity": cart.TotalQuantity,
		"total":          cart.Cost.TotalAmount,
	}))
	if err != nil {
		h.deps.Logger.Warn("failed to publish cart event", zap.Error(err))
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag())
		}
		return fmt.Sprintf("validation failed: %v", msgs)
	}
	return "validation failed"
}
