// Package build produces the deployable dist tree: fingerprinted assets,
// the asset manifest, and the worker entry's source map.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/render"
)

// Result summarizes one build.
type Result struct {
	Files      int               `json:"files"`
	TotalBytes int64             `json:"total_bytes"`
	Duration   time.Duration     `json:"duration_ns"`
	Manifest   map[string]string `json:"manifest"`
}

// ManifestName is the asset manifest written into the dist dir.
const ManifestName = "manifest.json"

// SourceMapName is the worker entry source map served by the inspector.
const SourceMapName = "index.js.map"

// Build compiles the project into project.DistDir under projectDir.
// Assets are copied under content-hash fingerprints; the manifest maps
// logical names to fingerprinted ones.
func Build(ctx context.Context, projectDir string, project *config.Project, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	// A template that fails to parse should fail the build, not the
	// first request in production.
	if err := render.NewEngine().Load(); err != nil {
		return nil, fmt.Errorf("template check failed: %w", err)
	}

	distDir := filepath.Join(projectDir, project.DistDir)
	if err := os.RemoveAll(distDir); err != nil {
		return nil, fmt.Errorf("failed to clean dist dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(distDir, "assets"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dist dir: %w", err)
	}

	result := &Result{Manifest: make(map[string]string)}

	assetsDir := filepath.Join(projectDir, project.AssetsDir)
	err := filepath.WalkDir(assetsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == assetsDir {
				// No assets dir is fine; the manifest stays empty.
				return filepath.SkipAll
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(assetsDir, path)
		if err != nil {
			return err
		}
		logical := filepath.ToSlash(rel)

		fingerprinted, size, err := copyFingerprinted(path, filepath.Join(distDir, "assets"), logical)
		if err != nil {
			return fmt.Errorf("failed to copy asset %s: %w", logical, err)
		}

		result.Manifest[logical] = "assets/" + fingerprinted
		result.Files++
		result.TotalBytes += size
		logger.Debug("asset built", zap.String("logical", logical), zap.String("out", fingerprinted))
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifest, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(distDir, ManifestName), manifest, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := writeSourceMap(distDir, project.Entry); err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]any{
		"name":     project.Name,
		"entry":    project.Entry,
		"built_at": time.Now().Format(time.RFC3339),
	})
	if err := os.WriteFile(filepath.Join(distDir, "build.json"), meta, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write build metadata: %w", err)
	}

	result.Duration = time.Since(start)
	logger.Info("build complete",
		zap.Int("files", result.Files),
		zap.Int64("bytes", result.TotalBytes),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// copyFingerprinted writes src into outDir under "name.<hash8>.ext" and
// returns the fingerprinted file name.
func copyFingerprinted(src, outDir, logical string) (string, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, in)
	if err != nil {
		return "", 0, err
	}
	sum := hex.EncodeToString(hash.Sum(nil))[:8]

	ext := filepath.Ext(logical)
	base := strings.TrimSuffix(filepath.Base(logical), ext)
	name := fmt.Sprintf("%s.%s%s", base, sum, ext)

	subdir := filepath.Dir(logical)
	dest := filepath.Join(outDir, filepath.FromSlash(subdir), name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, err
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return "", 0, err
	}

	if subdir != "." {
		name = filepath.ToSlash(filepath.Join(subdir, name))
	}
	return name, size, nil
}

// writeSourceMap emits the minimal source map the inspector serves for
// the worker entry. The Go worker has no transpiled sources; the map
// points tools back at the entry file itself.
func writeSourceMap(distDir, entry string) error {
	sm := map[string]any{
		"version":  3,
		"file":     "index.js",
		"sources":  []string{entry},
		"names":    []string{},
		"mappings": "",
	}
	data, err := json.Marshal(sm)
	if err != nil {
		return fmt.Errorf("failed to marshal source map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(distDir, SourceMapName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write source map: %w", err)
	}
	return nil
}
