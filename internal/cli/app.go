package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/customer"
	"github.com/vitrin/vitrin/internal/handlers"
	"github.com/vitrin/vitrin/internal/session"
	"github.com/vitrin/vitrin/internal/storefront"
	"github.com/vitrin/vitrin/pkg/events"
)

// Session rows for visitors who never return are reaped in the
// background while the app is serving.
const (
	sessionTTL   = 30 * 24 * time.Hour
	reapInterval = time.Hour
)

// configEnvVars maps Config fields to the environment variables that set
// them, so validation failures tell the user what to export.
var configEnvVars = map[string]string{
	"StoreDomain":     "VITRIN_STORE_DOMAIN",
	"StorefrontToken": "VITRIN_STOREFRONT_TOKEN",
	"SessionDriver":   "VITRIN_SESSION_DRIVER",
	"PublicURL":       "VITRIN_PUBLIC_URL",
	"Port":            "VITRIN_PORT",
	"InspectorPort":   "VITRIN_INSPECTOR_PORT",
}

// requireStoreConfig validates the loaded configuration and rewrites
// field failures into the environment variables the user has to set.
func requireStoreConfig(cfg *config.Config) error {
	err := cfg.Validate()
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		vars := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if v, ok := configEnvVars[fe.Field()]; ok {
				vars = append(vars, v)
			}
		}
		if len(vars) > 0 {
			return fmt.Errorf("incomplete configuration: set %s", strings.Join(vars, ", "))
		}
	}
	return err
}

// buildApp wires the storefront fiber app from configuration. routes are
// the project's extra route mounts. The session reaper runs until ctx is
// cancelled; the returned cleanup closes whatever connections were opened.
func buildApp(ctx context.Context, cfg *config.Config, routes map[string]string, logger *zap.Logger) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, f := range closers {
			f()
		}
	}

	var repo session.Repository
	if cfg.SessionDSN == "" || cfg.SessionDriver == "" {
		repo = session.NewMockRepository()
	} else {
		db, err := session.OpenDB(cfg.SessionDriver, cfg.SessionDSN)
		if err != nil {
			// Local dev should not require a database; fall back and warn.
			logger.Warn("session database unavailable, using in-memory sessions", zap.Error(err))
			repo = session.NewMockRepository()
		} else {
			repo = session.NewGORMRepository(db)
		}
	}
	go session.ReapLoop(ctx, repo, sessionTTL, reapInterval, logger)

	sessions, err := session.NewManager(repo, cfg.SessionSecret, cfg.Secure())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build session manager: %w", err)
	}

	var eventsClient *events.Client
	if cfg.EventsURL != "" {
		eventsClient, err = events.NewClient(cfg.EventsURL, logger)
		if err != nil {
			logger.Warn("event broker unavailable, events disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { eventsClient.Close() })
		}
	}

	authBase := cfg.CustomerAuthURL
	if authBase == "" {
		authBase = fmt.Sprintf("https://%s/customer/oauth", cfg.StoreDomain)
	}
	oauth := customer.NewOAuth(
		cfg.CustomerClientID,
		cfg.CustomerClientSecret,
		authBase,
		cfg.PublicURL+"/account/authorize",
		logger,
	)

	app := handlers.New(handlers.Deps{
		Config:     cfg,
		Storefront: storefront.NewClient(cfg.StorefrontEndpoint(), cfg.StorefrontToken, logger),
		Customers:  customer.NewClient(cfg.CustomerEndpoint(), logger),
		OAuth:      oauth,
		Sessions:   sessions,
		Events:     eventsClient,
		Routes:     routes,
		Logger:     logger,
	})
	return app, cleanup, nil
}
