package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/customer"
	"github.com/vitrin/vitrin/internal/middleware"
	"github.com/vitrin/vitrin/internal/seo"
	"github.com/vitrin/vitrin/internal/session"
)

// AccountHandler serves the customer account routes and the OAuth
// login/callback/logout flow.
type AccountHandler struct {
	deps Deps
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(deps Deps) *AccountHandler {
	return &AccountHandler{deps: deps}
}

// RegisterRoutes registers the account routes with the Fiber app.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	accountRoutes := router.Group("/account")
	accountRoutes.Get("/login", h.HandleLogin)
	accountRoutes.Get("/authorize", h.HandleCallback)
	accountRoutes.Get("/logout", h.HandleLogout)
	accountRoutes.Get("/", middleware.CustomerRequired(h.deps.Sessions), h.HandleAccount)
}

// HandleLogin starts the OAuth flow: state, nonce and PKCE verifier are
// parked in the session, then the browser is sent to the platform.
func (h *AccountHandler) HandleLogin(c *fiber.Ctx) error {
	verifier, err := customer.GenerateVerifier()
	if err != nil {
		return fmt.Errorf("failed to start login: %w", err)
	}

	s := h.deps.Sessions.Load(c)
	s.OAuthState = uuid.New().String()
	s.OAuthNonce = uuid.New().String()
	s.OAuthVerifier = verifier
	if err := h.deps.Sessions.Commit(c, s); err != nil {
		return fmt.Errorf("failed to save login state: %w", err)
	}

	return c.Redirect(h.deps.OAuth.AuthorizeURL(s.OAuthState, s.OAuthNonce, verifier), fiber.StatusFound)
}

// HandleCallback finishes the OAuth flow. A state mismatch is rejected
// without touching the session's tokens.
func (h *AccountHandler) HandleCallback(c *fiber.Ctx) error {
	s := h.deps.Sessions.Load(c)

	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" || s.OAuthState == "" || state != s.OAuthState {
		h.deps.Logger.Warn("oauth callback state mismatch")
		return fiber.ErrForbidden
	}

	tokens, err := h.deps.OAuth.ExchangeCode(c.Context(), code, s.OAuthVerifier, s.OAuthNonce)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	s.SetCustomerTokens(tokens)
	s.ClearOAuthFlow()
	s.Flash = "You are signed in."
	if err := h.deps.Sessions.Commit(c, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return c.Redirect("/account", fiber.StatusFound)
}

// HandleLogout drops the session's tokens and bounces through the
// platform logout so the upstream session ends too.
func (h *AccountHandler) HandleLogout(c *fiber.Ctx) error {
	s := h.deps.Sessions.Load(c)
	tokens := s.CustomerTokens()

	s.SetCustomerTokens(nil)
	if err := h.deps.Sessions.Commit(c, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if tokens != nil && tokens.IDToken != "" {
		return c.Redirect(h.deps.OAuth.LogoutURL(tokens.IDToken, h.deps.Config.PublicURL+"/"), fiber.StatusFound)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleAccount renders the signed-in customer's profile and recent
// orders, refreshing the access token when it has expired.
func (h *AccountHandler) HandleAccount(c *fiber.Ctx) error {
	s := h.deps.Sessions.Load(c)
	tokens := s.CustomerTokens()
	if tokens == nil {
		return c.Redirect("/account/login", fiber.StatusFound)
	}

	if tokens.Expired() {
		refreshed, err := h.deps.OAuth.Refresh(c.Context(), tokens.RefreshToken)
		if err != nil {
			if errors.Is(err, customer.ErrReauthenticate) {
				return h.forceLogin(c, s)
			}
			return fmt.Errorf("failed to refresh customer tokens: %w", err)
		}
		tokens = refreshed
		s.SetCustomerTokens(tokens)
		if err := h.deps.Sessions.Commit(c, s); err != nil {
			return fmt.Errorf("failed to save refreshed tokens: %w", err)
		}
	}

	ctx := c.Context()
	me, err := h.deps.Customers.Me(ctx, tokens.AccessToken)
	if err != nil {
		if errors.Is(err, customer.ErrReauthenticate) {
			return h.forceLogin(c, s)
		}
		return fmt.Errorf("failed to load customer profile: %w", err)
	}

	orders, err := h.deps.Customers.Orders(ctx, tokens.AccessToken, 10)
	if err != nil {
		h.deps.Logger.Warn("failed to load orders", zap.Error(err))
		orders = nil
	}

	tags := seo.ForPage(h.deps.Config.PublicURL, "/account", "Your account", "")
	return c.Render("account", basePage(c, h.deps, tags, fiber.Map{
		"Customer": me,
		"Orders":   orders,
	}))
}

func (h *AccountHandler) forceLogin(c *fiber.Ctx, s *session.Session) error {
	s.SetCustomerTokens(nil)
	if err := h.deps.Sessions.Commit(c, s); err != nil {
		h.deps.Logger.Warn("failed to clear stale tokens", zap.Error(err))
	}
	return c.Redirect("/account/login", fiber.StatusFound)
}
