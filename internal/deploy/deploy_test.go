package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newDistDir builds a minimal dist directory to package.
func newDistDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.css"), []byte("body{}"), 0o644))
	return dir
}

func TestDeployUploadsAndPollsUntilCompleted(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/deployments":
			assert.NoError(t, r.ParseMultipartForm(10<<20))
			assert.Equal(t, "production", r.FormValue("environment"))
			_, hdr, err := r.FormFile("bundle")
			assert.NoError(t, err)
			assert.Equal(t, "dist.tar.gz", hdr.Filename)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(Deployment{ID: "dep_7", Status: "pending"})
		case r.Method == http.MethodGet && r.URL.Path == "/deployments/dep_7":
			status := "building"
			if atomic.AddInt32(&polls, 1) >= 2 {
				status = "completed"
			}
			json.NewEncoder(w).Encode(Deployment{
				ID:     "dep_7",
				Status: status,
				URL:    "https://store.vitrin.app",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", nil)
	client.pollInterval = time.Millisecond

	dep, err := client.Deploy(context.Background(), newDistDir(t), Options{Environment: "production"})
	assert.NoError(t, err)
	assert.Equal(t, "completed", dep.Status)
	assert.Equal(t, "https://store.vitrin.app", dep.URL)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(2))
}

func TestDeployReportsFailedDeployment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Deployment{ID: "dep_9", Status: "failed"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", nil)
	client.pollInterval = time.Millisecond

	dep, err := client.Deploy(context.Background(), newDistDir(t), Options{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dep_9 failed")
	assert.Equal(t, "failed", dep.Status)
}

func TestDeployMissingDistDir(t *testing.T) {
	client := NewClient("http://unused", "t", nil)

	_, err := client.Deploy(context.Background(), filepath.Join(t.TempDir(), "dist"), Options{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vitrin build")
}

func TestDeployRejectedUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong", nil)

	_, err := client.Deploy(context.Background(), newDistDir(t), Options{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deployments", r.URL.Path)
		json.NewEncoder(w).Encode([]Deployment{
			{ID: "dep_2", Status: "completed"},
			{ID: "dep_1", Status: "failed"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", nil)

	deps, err := client.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, deps, 2)
	assert.Equal(t, "dep_2", deps[0].ID)
}
