// Package deploy uploads built storefronts to the hosting platform and
// reports on past deployments.
package deploy

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Deployment is one deployment as reported by the platform.
type Deployment struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Status      string    `json:"status"` // pending, building, completed, failed
	CreatedAt   time.Time `json:"created_at"`
	Actor       string    `json:"actor,omitempty"`
	Environment string    `json:"environment,omitempty"`
}

// Options tunes one deploy.
type Options struct {
	Environment string // "production" or a preview environment name
	Message     string
}

// Client talks to the platform's deployment API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *zap.Logger

	pollInterval time.Duration
}

// NewClient builds a deploy client. endpoint is the platform's
// deployment API root for the store.
func NewClient(endpoint, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:     endpoint,
		token:        token,
		http:         &http.Client{Timeout: 5 * time.Minute},
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// Deploy packages distDir and uploads it, then polls until the platform
// reports a terminal status.
func (c *Client) Deploy(ctx context.Context, distDir string, opts Options) (*Deployment, error) {
	bundle, err := packageDist(distDir)
	if err != nil {
		return nil, fmt.Errorf("failed to package %s: %w", distDir, err)
	}
	c.logger.Info("uploading bundle", zap.Int("bytes", bundle.Len()))

	dep, err := c.upload(ctx, bundle, opts)
	if err != nil {
		return nil, err
	}

	for dep.Status != "completed" && dep.Status != "failed" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		dep, err = c.status(ctx, dep.ID)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("deployment status", zap.String("id", dep.ID), zap.String("status", dep.Status))
	}

	if dep.Status == "failed" {
		return dep, fmt.Errorf("deployment %s failed", dep.ID)
	}
	return dep, nil
}

func (c *Client) upload(ctx context.Context, bundle *bytes.Buffer, opts Options) (*Deployment, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if opts.Environment != "" {
		mw.WriteField("environment", opts.Environment)
	}
	if opts.Message != "" {
		mw.WriteField("message", opts.Message)
	}
	part, err := mw.CreateFormFile("bundle", "dist.tar.gz")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}
	if _, err := io.Copy(part, bundle); err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/deployments", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upload rejected: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var dep Deployment
	if err := json.NewDecoder(resp.Body).Decode(&dep); err != nil {
		return nil, fmt.Errorf("failed to decode deployment response: %w", err)
	}
	return &dep, nil
}

func (c *Client) status(ctx context.Context, id string) (*Deployment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/deployments/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status check rejected: HTTP %d", resp.StatusCode)
	}

	var dep Deployment
	if err := json.NewDecoder(resp.Body).Decode(&dep); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &dep, nil
}

// List returns recent deployments, newest first.
func (c *Client) List(ctx context.Context) ([]Deployment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/deployments", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rejected: HTTP %d", resp.StatusCode)
	}

	var deps []Deployment
	if err := json.NewDecoder(resp.Body).Decode(&deps); err != nil {
		return nil, fmt.Errorf("failed to decode deployment list: %w", err)
	}
	return deps, nil
}

// packageDist tars and gzips the dist directory.
func packageDist(distDir string) (*bytes.Buffer, error) {
	info, err := os.Stat(distDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dist directory %s not found, run `vitrin build` first", distDir)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	err = filepath.WalkDir(distDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(distDir, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
