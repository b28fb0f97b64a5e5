package session

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the browser cookie carrying the signed session ID.
const CookieName = "vitrin_session"

const localsKey = "vitrin_session_data"

// Manager loads and commits sessions around request handling. The cookie
// only carries a signed JWT with the session ID; all state stays in the
// repository.
type Manager struct {
	repo     Repository
	key      []byte
	secure   bool
	lifetime time.Duration
}

// NewManager derives the cookie signing key from secret via HKDF so the
// raw configured secret never touches the wire format.
func NewManager(repo Repository, secret string, secure bool) (*Manager, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("vitrin session cookie v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return &Manager{
		repo:     repo,
		key:      key,
		secure:   secure,
		lifetime: 30 * 24 * time.Hour,
	}, nil
}

// Load returns the request's session, minting a fresh empty one when the
// cookie is absent, tampered or expired. A fresh session is not persisted
// until Commit, so crawlers never create rows.
func (m *Manager) Load(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(localsKey).(*Session); ok && s != nil {
		return s
	}

	s := m.load(c.Cookies(CookieName))
	c.Locals(localsKey, s)
	return s
}

func (m *Manager) load(cookie string) *Session {
	if cookie == "" {
		return &Session{}
	}

	token, err := jwt.Parse(cookie, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return &Session{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return &Session{}
	}
	id, _ := claims["sid"].(string)
	if id == "" {
		return &Session{}
	}

	s, err := m.repo.GetByID(id)
	if err != nil {
		// Row reaped or database reset: start over.
		return &Session{}
	}
	return s
}

// Commit persists the session and (re)sets the cookie. New sessions get
// an ID from the repository on create.
func (m *Manager) Commit(c *fiber.Ctx, s *Session) error {
	if s.ID == "" {
		if err := m.repo.Create(s); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	} else if err := m.repo.Update(s); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": s.ID,
		"iat": now.Unix(),
		"exp": now.Add(m.lifetime).Unix(),
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    signed,
		Expires:  now.Add(m.lifetime),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	c.Locals(localsKey, s)
	return nil
}

// Destroy deletes the session row and expires the cookie.
func (m *Manager) Destroy(c *fiber.Ctx, s *Session) error {
	if s.ID != "" {
		if err := m.repo.Delete(s.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	c.Locals(localsKey, &Session{})
	return nil
}
