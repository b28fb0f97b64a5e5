package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the storefront. Values come
// from environment variables (optionally a .env-style file loaded by the
// caller) with viper defaults for local development.
type Config struct {
	// StoreDomain is the shop's domain on the commerce platform,
	// e.g. "demo-shop.mycommerce.dev". Scheme is stripped if present.
	StoreDomain string `validate:"required,hostname"`

	// StorefrontToken authenticates Storefront API queries.
	StorefrontToken string `validate:"required"`

	// Customer Account API OAuth client.
	CustomerClientID     string
	CustomerClientSecret string
	// CustomerAuthURL overrides the derived authorization endpoint,
	// used by tests and self-hosted platforms.
	CustomerAuthURL string

	// SessionSecret signs session cookies. Generated (with a warning)
	// when empty so `vitrin dev` works out of the box.
	SessionSecret string

	// SessionDriver selects the session store backend: "sqlite" or
	// "postgres". SessionDSN is the driver-specific DSN.
	SessionDriver string `validate:"oneof=sqlite postgres"`
	SessionDSN    string

	// EventsURL is the AMQP broker for storefront events. Empty
	// disables event publishing.
	EventsURL string

	// PublicURL is the externally visible origin of the storefront,
	// used for canonical links, OAuth callbacks and cookie security.
	PublicURL string `validate:"omitempty,url"`

	Port          int `validate:"gt=0,lte=65535"`
	InspectorPort int `validate:"gt=0,lte=65535"`

	// APIVersion pins the Storefront API version in request paths.
	APIVersion string

	generatedSecret bool
}

// GeneratedSecret reports whether SessionSecret was auto-generated rather
// than configured; callers should warn, since sessions will not survive a
// process restart.
func (c Config) GeneratedSecret() bool { return c.generatedSecret }

// Load reads configuration from the environment with local-dev defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("VITRIN_PORT", 3000)
	v.SetDefault("VITRIN_INSPECTOR_PORT", 9331)
	v.SetDefault("VITRIN_SESSION_DRIVER", "sqlite")
	v.SetDefault("VITRIN_SESSION_DSN", "file:vitrin_sessions.db")
	v.SetDefault("VITRIN_API_VERSION", "2026-07")
	v.AutomaticEnv()

	cfg := &Config{
		StoreDomain:          normalizeDomain(v.GetString("VITRIN_STORE_DOMAIN")),
		StorefrontToken:      v.GetString("VITRIN_STOREFRONT_TOKEN"),
		CustomerClientID:     v.GetString("VITRIN_CUSTOMER_CLIENT_ID"),
		CustomerClientSecret: v.GetString("VITRIN_CUSTOMER_CLIENT_SECRET"),
		CustomerAuthURL:      v.GetString("VITRIN_CUSTOMER_AUTH_URL"),
		SessionSecret:        v.GetString("VITRIN_SESSION_SECRET"),
		SessionDriver:        v.GetString("VITRIN_SESSION_DRIVER"),
		SessionDSN:           v.GetString("VITRIN_SESSION_DSN"),
		EventsURL:            v.GetString("VITRIN_EVENTS_URL"),
		PublicURL:            strings.TrimSuffix(v.GetString("VITRIN_PUBLIC_URL"), "/"),
		Port:                 v.GetInt("VITRIN_PORT"),
		InspectorPort:        v.GetInt("VITRIN_INSPECTOR_PORT"),
		APIVersion:           v.GetString("VITRIN_API_VERSION"),
	}

	if cfg.SessionSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = hex.EncodeToString(buf)
		cfg.generatedSecret = true
	}

	return cfg, nil
}

// Validate checks the configuration with the struct tags above. It returns
// the raw validator error so callers can enumerate field failures.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// StorefrontEndpoint returns the GraphQL endpoint for the Storefront API.
func (c *Config) StorefrontEndpoint() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.StoreDomain, c.APIVersion)
}

// CustomerEndpoint returns the GraphQL endpoint for the Customer Account API.
func (c *Config) CustomerEndpoint() string {
	return fmt.Sprintf("https://%s/customer/api/%s/graphql", c.StoreDomain, c.APIVersion)
}

// Secure reports whether cookies should carry the Secure attribute.
func (c *Config) Secure() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

var validate = validator.New()

func normalizeDomain(domain string) string {
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(strings.TrimSpace(domain), "/")
}
