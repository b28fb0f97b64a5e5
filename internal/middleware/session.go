package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vitrin/vitrin/internal/session"
)

// Session loads the request's session into the fiber context so handlers
// share one decoded session per request.
func Session(manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		manager.Load(c)
		return c.Next()
	}
}

// CustomerRequired redirects anonymous visitors to the login flow. It
// guards the account routes; the OAuth callback itself stays public.
func CustomerRequired(manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := manager.Load(c)
		if s.CustomerTokens() == nil {
			return c.Redirect("/account/login", fiber.StatusFound)
		}
		return c.Next()
	}
}
