package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/scaffold"

	"github.com/stretchr/testify/assert"
)

func TestInitMinimalTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-shop")

	project, err := scaffold.Init(scaffold.Options{Path: dir})
	assert.NoError(t, err)
	assert.Equal(t, "my-shop", project.Name)
	assert.Equal(t, "minimal", project.Template)
	assert.Equal(t, "go", project.Language)

	assert.FileExists(t, filepath.Join(dir, config.ProjectFileName))
	assert.FileExists(t, filepath.Join(dir, "assets", "app.css"))
	assert.FileExists(t, filepath.Join(dir, "worker", "main.go"))

	// The embedded worker entry was de-templated on the way out.
	assert.NoFileExists(t, filepath.Join(dir, "worker", "main.go.tmpl"))

	loaded, err := config.LoadProject(dir)
	assert.NoError(t, err)
	assert.Equal(t, "my-shop", loaded.Name)
	assert.Equal(t, "worker/main.go", loaded.Entry)
}

func TestInitExplicitName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir-name")

	project, err := scaffold.Init(scaffold.Options{Path: dir, Name: "Boutique"})
	assert.NoError(t, err)
	assert.Equal(t, "Boutique", project.Name)
}

func TestInitRefusesNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o644))

	_, err := scaffold.Init(scaffold.Options{Path: dir})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}

func TestInitForceOverridesNonEmptyCheck(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o644))

	_, err := scaffold.Init(scaffold.Options{Path: dir, Force: true})
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, config.ProjectFileName))
	assert.FileExists(t, filepath.Join(dir, "existing.txt"))
}

func TestInitUnknownTemplateFailsToClone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cloned")

	_, err := scaffold.Init(scaffold.Options{
		Path:         dir,
		Template:     "does-not-exist",
		TemplateBase: "file:///nonexistent/templates-",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clone template")
}
