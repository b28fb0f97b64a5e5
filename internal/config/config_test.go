package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vitrin/vitrin/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VITRIN_STORE_DOMAIN", "demo-shop.mycommerce.dev")
	t.Setenv("VITRIN_STOREFRONT_TOKEN", "tok")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 9331, cfg.InspectorPort)
	assert.Equal(t, "sqlite", cfg.SessionDriver)
	assert.Equal(t, "2026-07", cfg.APIVersion)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.True(t, cfg.GeneratedSecret())
}

func TestLoadStripsSchemeAndSlash(t *testing.T) {
	t.Setenv("VITRIN_STORE_DOMAIN", "https://demo-shop.mycommerce.dev/")
	t.Setenv("VITRIN_STOREFRONT_TOKEN", "tok")
	t.Setenv("VITRIN_PUBLIC_URL", "https://shop.example.com/")

	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, "demo-shop.mycommerce.dev", cfg.StoreDomain)
	assert.Equal(t, "https://shop.example.com", cfg.PublicURL)
	assert.True(t, cfg.Secure())
}

func TestLoadKeepsConfiguredSecret(t *testing.T) {
	t.Setenv("VITRIN_STORE_DOMAIN", "demo-shop.mycommerce.dev")
	t.Setenv("VITRIN_STOREFRONT_TOKEN", "tok")
	t.Setenv("VITRIN_SESSION_SECRET", "configured-secret")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "configured-secret", cfg.SessionSecret)
	assert.False(t, cfg.GeneratedSecret())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := &config.Config{
		StoreDomain:   "",
		SessionDriver: "mysql",
		Port:          0,
		InspectorPort: 9331,
	}
	assert.Error(t, cfg.Validate())
}

func TestEndpoints(t *testing.T) {
	cfg := &config.Config{StoreDomain: "demo-shop.mycommerce.dev", APIVersion: "2026-07"}

	assert.Equal(t, "https://demo-shop.mycommerce.dev/api/2026-07/graphql.json",
		cfg.StorefrontEndpoint())
	assert.Equal(t, "https://demo-shop.mycommerce.dev/customer/api/2026-07/graphql",
		cfg.CustomerEndpoint())
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()

	p := config.DefaultProject("my-shop")
	p.Routes = map[string]string{"/p": "products"}
	assert.NoError(t, p.Save(dir))

	loaded, err := config.LoadProject(dir)
	assert.NoError(t, err)
	assert.Equal(t, "my-shop", loaded.Name)
	assert.Equal(t, "minimal", loaded.Template)
	assert.Equal(t, "worker/main.go", loaded.Entry)
	assert.Equal(t, "products", loaded.Routes["/p"])
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := config.LoadProject(t.TempDir())
	assert.ErrorIs(t, err, config.ErrNoProject)
}

func TestLoadProjectFillsDirDefaults(t *testing.T) {
	dir := t.TempDir()
	data := []byte("name: bare\nlanguage: go\n")
	assert.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFileName), data, 0o644))

	p, err := config.LoadProject(dir)
	assert.NoError(t, err)
	assert.Equal(t, "assets", p.AssetsDir)
	assert.Equal(t, "dist", p.DistDir)
}
