// Package scaffold creates new storefront projects, either by cloning a
// starter template repository or from the embedded minimal template.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/vitrin/vitrin/internal/config"
)

//go:embed minimal
var minimalFS embed.FS

// Options configures project creation.
type Options struct {
	// Path is the directory to create the project in.
	Path string
	// Name is the project name; defaults to the directory base name.
	Name string
	// Template selects a starter; "minimal" uses the embedded files,
	// anything else is treated as a template name under TemplateBase.
	Template string
	// Language is recorded in vitrin.yml for tooling.
	Language string
	// TemplateBase is the git URL prefix templates are cloned from.
	TemplateBase string
	// Force allows scaffolding into a non-empty directory.
	Force bool
}

// DefaultTemplateBase is where official starter templates live.
const DefaultTemplateBase = "https://github.com/vitrin/templates-"

// Init creates a new project directory. Returns the project config it
// wrote.
func Init(opts Options) (*config.Project, error) {
	if opts.Path == "" {
		opts.Path = "."
	}
	absPath, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if opts.Name == "" {
		opts.Name = filepath.Base(absPath)
	}
	if opts.Template == "" {
		opts.Template = "minimal"
	}
	if opts.Language == "" {
		opts.Language = "go"
	}

	if !opts.Force {
		if entries, err := os.ReadDir(absPath); err == nil && len(entries) > 0 {
			return nil, fmt.Errorf("%s is not empty (use --force to scaffold anyway)", opts.Path)
		}
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	if opts.Template == "minimal" {
		if err := writeEmbedded(absPath); err != nil {
			return nil, err
		}
	} else {
		if err := cloneTemplate(absPath, opts); err != nil {
			return nil, err
		}
	}

	project := config.DefaultProject(opts.Name)
	project.Template = opts.Template
	project.Language = opts.Language
	if err := project.Save(absPath); err != nil {
		return nil, err
	}
	return &project, nil
}

// cloneTemplate shallow-clones the starter template and strips its git
// history so the new project starts clean.
func cloneTemplate(dest string, opts Options) error {
	base := opts.TemplateBase
	if base == "" {
		base = DefaultTemplateBase
	}
	url := base + opts.Template

	_, err := git.PlainClone(dest, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone template %s: %w", url, err)
	}

	if err := os.RemoveAll(filepath.Join(dest, ".git")); err != nil {
		return fmt.Errorf("failed to strip template history: %w", err)
	}
	return nil
}

func writeEmbedded(dest string) error {
	return fs.WalkDir(minimalFS, "minimal", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("minimal", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			return os.MkdirAll(target, 0o755)
		}

		data, err := minimalFS.ReadFile(path)
		if err != nil {
			return err
		}
		// Template sources are stored with a .tmpl suffix so they stay
		// out of this module's own build.
		target = strings.TrimSuffix(target, ".tmpl")
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		return nil
	})
}
