package customer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// ErrReauthenticate means the stored tokens cannot be refreshed and the
// customer has to go through the login redirect again.
var ErrReauthenticate = errors.New("customer must re-authenticate")

// TokenSet is one issued set of Customer Account API tokens.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past (or within 30s of)
// its expiry.
func (t TokenSet) Expired() bool {
	return time.Now().After(t.ExpiresAt.Add(-30 * time.Second))
}

// OAuth drives the authorization-code + PKCE flow against the Customer
// Account API.
type OAuth struct {
	clientID     string
	clientSecret string
	authBase     string // e.g. https://shop.example/customer/oauth
	redirectURI  string
	http         *http.Client
	logger       *zap.Logger

	// refreshMu makes token refresh single-flight: concurrent request
	// handlers holding the same expired token trigger one upstream
	// refresh, the rest reuse its result.
	refreshMu   sync.Mutex
	refreshed   map[string]TokenSet
	refreshedAt map[string]time.Time
}

// NewOAuth builds the OAuth client. authBase is the platform's customer
// OAuth root; redirectURI must match the URI registered via
// `vitrin customer-account push`.
func NewOAuth(clientID, clientSecret, authBase, redirectURI string, logger *zap.Logger) *OAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		authBase:     strings.TrimSuffix(authBase, "/"),
		redirectURI:  redirectURI,
		http:         &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
		refreshed:    make(map[string]TokenSet),
		refreshedAt:  make(map[string]time.Time),
	}
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Challenge derives the S256 code challenge from a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthorizeURL builds the redirect that starts the login flow.
func (o *OAuth) AuthorizeURL(state, nonce, verifier string) string {
	q := url.Values{}
	q.Set("client_id", o.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", o.redirectURI)
	q.Set("scope", "openid email customer-account-api:full")
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("code_challenge", Challenge(verifier))
	q.Set("code_challenge_method", "S256")
	return o.authBase + "/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func (o *OAuth) tokenRequest(ctx context.Context, form url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.authBase+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || tr.Error != "" {
		if tr.Error == "invalid_grant" {
			return nil, ErrReauthenticate
		}
		return nil, fmt.Errorf("token endpoint returned %q (HTTP %d): %s", tr.Error, resp.StatusCode, tr.ErrorDesc)
	}

	return &TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		IDToken:      tr.IDToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// ExchangeCode trades an authorization code for tokens and checks the
// id_token nonce against the one stored in the session before the
// redirect. The id_token signature is not re-verified locally; the token
// arrives over the platform's TLS channel in direct response to our
// request.
func (o *OAuth) ExchangeCode(ctx context.Context, code, verifier, nonce string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("redirect_uri", o.redirectURI)
	form.Set("code", code)
	form.Set("code_verifier", verifier)

	tokens, err := o.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}

	if tokens.IDToken != "" && nonce != "" {
		claims := jwt.MapClaims{}
		if _, _, err := new(jwt.Parser).ParseUnverified(tokens.IDToken, claims); err != nil {
			return nil, fmt.Errorf("failed to parse id_token: %w", err)
		}
		if got, _ := claims["nonce"].(string); got != nonce {
			return nil, fmt.Errorf("id_token nonce mismatch")
		}
	}

	return tokens, nil
}

// Refresh exchanges a refresh token for a new token set. Calls with the
// same refresh token within a short window share one upstream request.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if refreshToken == "" {
		return nil, ErrReauthenticate
	}

	o.refreshMu.Lock()
	defer o.refreshMu.Unlock()

	// Memo entries past the reuse window can never be returned again;
	// drop them so the maps stay bounded by the number of tokens
	// refreshed in the last minute.
	for tok, at := range o.refreshedAt {
		if time.Since(at) >= time.Minute {
			delete(o.refreshedAt, tok)
			delete(o.refreshed, tok)
		}
	}

	// Another handler may have refreshed this token while we waited on
	// the lock; reuse its result instead of burning the (single-use)
	// refresh token twice.
	if at, ok := o.refreshedAt[refreshToken]; ok && time.Since(at) < time.Minute {
		ts := o.refreshed[refreshToken]
		return &ts, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("refresh_token", refreshToken)

	tokens, err := o.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}

	o.refreshed[refreshToken] = *tokens
	o.refreshedAt[refreshToken] = time.Now()
	o.logger.Debug("refreshed customer tokens")
	return tokens, nil
}

// LogoutURL builds the platform logout redirect for the given id_token.
func (o *OAuth) LogoutURL(idToken, returnTo string) string {
	q := url.Values{}
	q.Set("id_token_hint", idToken)
	if returnTo != "" {
		q.Set("post_logout_redirect_uri", returnTo)
	}
	return o.authBase + "/logout?" + q.Encode()
}
