package session

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/vitrin/vitrin/internal/customer"
)

// Session is the locally-owned state for one browser: everything else
// (cart contents, customer data) lives in the commerce API and is only
// referenced from here.
type Session struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`

	// CartID pins the API-side cart, empty until the first add-to-cart.
	CartID string `json:"cart_id" gorm:"type:varchar(128)"`

	// Tokens holds the customer OAuth tokens as a JSON blob; nil when
	// the visitor is anonymous.
	Tokens []byte `json:"-" gorm:"type:text"`

	// OAuthState/OAuthNonce/OAuthVerifier are only set between the
	// login redirect and the callback.
	OAuthState    string `json:"-" gorm:"type:varchar(64)"`
	OAuthNonce    string `json:"-" gorm:"type:varchar(64)"`
	OAuthVerifier string `json:"-" gorm:"type:varchar(64)"`

	Flash string `json:"flash,omitempty" gorm:"type:varchar(255)"`

	gorm.Model `json:"-"`
}

// CustomerTokens decodes the stored token set, or nil for anonymous
// sessions.
func (s *Session) CustomerTokens() *customer.TokenSet {
	if len(s.Tokens) == 0 {
		return nil
	}
	var ts customer.TokenSet
	if err := json.Unmarshal(s.Tokens, &ts); err != nil {
		return nil
	}
	return &ts
}

// SetCustomerTokens stores a token set, or clears it when ts is nil.
func (s *Session) SetCustomerTokens(ts *customer.TokenSet) {
	if ts == nil {
		s.Tokens = nil
		return
	}
	data, err := json.Marshal(ts)
	if err != nil {
		return
	}
	s.Tokens = data
}

// ClearOAuthFlow drops the in-flight login state after the callback.
func (s *Session) ClearOAuthFlow() {
	s.OAuthState = ""
	s.OAuthNonce = ""
	s.OAuthVerifier = ""
}

// Stale reports whether the session row is old enough to be reaped.
func (s *Session) Stale(ttl time.Duration) bool {
	return time.Since(s.UpdatedAt) > ttl
}

// Repository defines the interface for session persistence.
type Repository interface {
	GetByID(id string) (*Session, error)
	Create(session *Session) error
	Update(session *Session) error
	Delete(id string) error
	DeleteStale(ttl time.Duration) (int64, error)
}
