package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/customer"
	"github.com/vitrin/vitrin/internal/middleware"
	"github.com/vitrin/vitrin/internal/render"
	"github.com/vitrin/vitrin/internal/session"
	"github.com/vitrin/vitrin/internal/storefront"
	"github.com/vitrin/vitrin/pkg/events"
)

// Deps bundles everything the route handlers need.
type Deps struct {
	Config     *config.Config
	Storefront *storefront.Client
	Customers  *customer.Client
	OAuth      *customer.OAuth
	Sessions   *session.Manager
	Events     *events.Client // nil disables event publishing
	// Routes mounts the standard route groups under extra URL prefixes
	// from vitrin.yml, e.g. {"products": "/p"} also serves product
	// pages at /p/:handle. Canonical paths stay registered.
	Routes map[string]string
	Logger *zap.Logger
}

// mount returns the extra prefix configured for a route group, or ""
// when the group keeps only its canonical path.
func (d Deps) mount(group string) string {
	p := d.Routes[group]
	if p == "" || p == "/" || !strings.HasPrefix(p, "/") {
		return ""
	}
	return strings.TrimSuffix(p, "/")
}

// New builds the storefront fiber app with all routes registered.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		Views:                 render.NewEngine(),
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	app.Use(logger.New())
	app.Use(middleware.Session(deps.Sessions))

	storeHandler := NewStoreHandler(deps)
	cartHandler := NewCartHandler(deps)
	accountHandler := NewAccountHandler(deps)

	storeHandler.RegisterRoutes(app)
	cartHandler.RegisterRoutes(app)
	accountHandler.RegisterRoutes(app)

	return app
}

// errorHandler renders unhandled errors as the error page, or as a JSON
// body when the client asked for JSON.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if errors.Is(err, storefront.ErrNotFound) {
			code = fiber.StatusNotFound
		}

		if code >= 500 {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}

		if c.Accepts("html", "json") == "json" {
			return c.Status(code).JSON(fiber.Map{
				"message": "request failed",
				"error":   err.Error(),
			})
		}
		return c.Status(code).Render("error", fiber.Map{
			"Status":       code,
			"Message":      publicMessage(code),
			"Query":        "",
			"CartQuantity": 0,
			"Flash":        "",
		})
	}
}

func publicMessage(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "The page you were looking for does not exist."
	case fiber.StatusForbidden:
		return "You are not allowed to do that."
	default:
		return "Something went wrong on our side. Please try again."
	}
}
