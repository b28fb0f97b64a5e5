package session_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitrin/vitrin/internal/customer"
	"github.com/vitrin/vitrin/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMockRepositoryCRUD(t *testing.T) {
	repo := session.NewMockRepository()

	s := &session.Session{CartID: "gid://shopify/Cart/abc"}
	assert.NoError(t, repo.Create(s))
	assert.NotEmpty(t, s.ID)

	loaded, err := repo.GetByID(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/abc", loaded.CartID)

	loaded.CartID = "gid://shopify/Cart/def"
	assert.NoError(t, repo.Update(loaded))
	again, err := repo.GetByID(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/def", again.CartID)

	assert.NoError(t, repo.Delete(s.ID))
	_, err = repo.GetByID(s.ID)
	assert.Error(t, err)
}

func TestMockRepositoryUpdateMissing(t *testing.T) {
	repo := session.NewMockRepository()
	err := repo.Update(&session.Session{ID: "nope"})
	assert.Error(t, err)
}

func TestMockRepositoryDeleteStale(t *testing.T) {
	repo := session.NewMockRepository()

	s := &session.Session{}
	assert.NoError(t, repo.Create(s))

	// With a zero TTL everything already written counts as stale.
	n, err := repo.DeleteStale(0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.GetByID(s.ID)
	assert.Error(t, err)
}

func TestCustomerTokensRoundTrip(t *testing.T) {
	s := &session.Session{}
	assert.Nil(t, s.CustomerTokens())

	ts := &customer.TokenSet{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	s.SetCustomerTokens(ts)

	got := s.CustomerTokens()
	assert.NotNil(t, got)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)

	s.SetCustomerTokens(nil)
	assert.Nil(t, s.CustomerTokens())
}

func TestClearOAuthFlow(t *testing.T) {
	s := &session.Session{OAuthState: "a", OAuthNonce: "b", OAuthVerifier: "c"}
	s.ClearOAuthFlow()
	assert.Empty(t, s.OAuthState)
	assert.Empty(t, s.OAuthNonce)
	assert.Empty(t, s.OAuthVerifier)
}

// newSessionApp wires a manager into a minimal fiber app so cookie
// handling is exercised through real requests.
func newSessionApp(t *testing.T, repo session.Repository) (*fiber.App, *session.Manager) {
	t.Helper()
	manager, err := session.NewManager(repo, "test-secret", false)
	assert.NoError(t, err)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/set", func(c *fiber.Ctx) error {
		s := manager.Load(c)
		s.CartID = "gid://shopify/Cart/abc"
		if err := manager.Commit(c, s); err != nil {
			return err
		}
		return c.SendString(s.ID)
	})
	app.Get("/get", func(c *fiber.Ctx) error {
		return c.SendString(manager.Load(c).CartID)
	})
	app.Get("/destroy", func(c *fiber.Ctx) error {
		if err := manager.Destroy(c, manager.Load(c)); err != nil {
			return err
		}
		return c.SendString("ok")
	})
	return app, manager
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func TestManagerRoundTrip(t *testing.T) {
	app, _ := newSessionApp(t, session.NewMockRepository())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	ck := sessionCookie(t, resp)
	assert.True(t, ck.HttpOnly)
	assert.NotEmpty(t, ck.Value)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "gid://shopify/Cart/abc", string(body))
}

func TestManagerRejectsTamperedCookie(t *testing.T) {
	app, _ := newSessionApp(t, session.NewMockRepository())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	assert.NoError(t, err)
	ck := sessionCookie(t, resp)
	resp.Body.Close()

	// Flip the signature; the session must come back empty, not error.
	tail := "AAAA"
	if ck.Value[len(ck.Value)-4:] == tail {
		tail = "BBBB"
	}
	ck.Value = ck.Value[:len(ck.Value)-4] + tail
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Empty(t, string(body))
}

func TestManagerMissingCookieIsFreshSession(t *testing.T) {
	app, _ := newSessionApp(t, session.NewMockRepository())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/get", nil), -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Empty(t, string(body))
}

func TestManagerDestroyExpiresCookie(t *testing.T) {
	app, _ := newSessionApp(t, session.NewMockRepository())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	assert.NoError(t, err)
	ck := sessionCookie(t, resp)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/destroy", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	expired := sessionCookie(t, resp)
	assert.True(t, expired.Expires.Before(time.Now()))
	resp.Body.Close()

	// The old cookie points at a deleted row; the session starts over.
	req = httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Empty(t, string(body))
}
