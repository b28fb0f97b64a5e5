package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-project configuration file written by
// `vitrin init` and read by dev/build/deploy.
const ProjectFileName = "vitrin.yml"

// ErrNoProject indicates the working directory has no vitrin.yml; CLI
// commands catch it to suggest running `vitrin init`.
var ErrNoProject = errors.New("no vitrin.yml found")

// Project describes one storefront project on disk.
type Project struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"` // "go" or "go-templates"
	Template string `yaml:"template"` // starter template the project came from
	Entry    string `yaml:"entry"`    // worker entry point served in dev

	AssetsDir string `yaml:"assets_dir"`
	DistDir   string `yaml:"dist_dir"`

	// Routes mounts the standard route groups ("products",
	// "collections", "search") under extra URL prefixes, e.g.
	// products: /p also serves product pages at /p/:handle.
	Routes map[string]string `yaml:"routes,omitempty"`
}

// DefaultProject returns the project settings shared by all templates.
func DefaultProject(name string) Project {
	return Project{
		Name:      name,
		Language:  "go",
		Template:  "minimal",
		Entry:     "worker/main.go",
		AssetsDir: "assets",
		DistDir:   "dist",
	}
}

// LoadProject reads vitrin.yml from dir.
func LoadProject(dir string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(dir, ProjectFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoProject
		}
		return nil, fmt.Errorf("failed to read %s: %w", ProjectFileName, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	if p.AssetsDir == "" {
		p.AssetsDir = "assets"
	}
	if p.DistDir == "" {
		p.DistDir = "dist"
	}
	return &p, nil
}

// Save writes the project file into dir.
func (p *Project) Save(dir string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ProjectFileName, err)
	}
	return nil
}
