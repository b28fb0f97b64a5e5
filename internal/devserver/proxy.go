package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Proxy is the dev server's front listener. It multiplexes the simulated
// runtime's service bindings: the ASSETS binding (static files with
// live-reload injection), the DEBUG-NETWORK binding (request ring
// buffer), the reload websocket, and the app itself via a recording
// reverse proxy.
type Proxy struct {
	runtime   *url.URL // the in-process runtime's listener
	assetsDir string
	netlog    *NetLog
	hub       *DebugHub
	reload    *ReloadHub
	logger    *zap.Logger
}

// NewProxy builds the front proxy. runtimeAddr is the in-process app
// listener ("127.0.0.1:49512").
func NewProxy(runtimeAddr, assetsDir string, netlog *NetLog, hub *DebugHub, reload *ReloadHub, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		runtime:   &url.URL{Scheme: "http", Host: runtimeAddr},
		assetsDir: assetsDir,
		netlog:    netlog,
		hub:       hub,
		reload:    reload,
		logger:    logger,
	}
}

// Handler returns the front mux.
func (p *Proxy) Handler() http.Handler {
	rp := httputil.NewSingleHostReverseProxy(p.runtime)
	rp.ModifyResponse = p.recordAndInject

	mux := http.NewServeMux()
	mux.HandleFunc("/assets/", p.serveAsset)
	mux.Handle("/__vitrin/reload", p.reload)
	mux.HandleFunc("/debug-network", p.serveNetLog)
	mux.Handle("/", p.tagRequests(rp))
	return mux
}

// tagRequests assigns every proxied request an ID the response recorder
// picks back up.
func (p *Proxy) tagRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Set("X-Vitrin-Request-Id", uuid.New().String())
		r.Header.Set("X-Vitrin-Request-Start", strconv.FormatInt(time.Now().UnixNano(), 10))
		next.ServeHTTP(w, r)
	})
}

// recordAndInject captures the response into the debug-network log and
// rewrites HTML bodies to carry the reload client.
func (p *Proxy) recordAndInject(resp *http.Response) error {
	req := resp.Request

	start := time.Now()
	if v := req.Header.Get("X-Vitrin-Request-Start"); v != "" {
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			start = time.Unix(0, ns)
		}
	}

	rec := RequestRecord{
		ID:       req.Header.Get("X-Vitrin-Request-Id"),
		Method:   req.Method,
		URL:      req.URL.String(),
		Status:   resp.StatusCode,
		Duration: time.Since(start),
		Size:     resp.ContentLength,
		At:       start,
	}

	isHTML := strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html")
	if isHTML {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}
		injected := InjectReloadScript(body)
		resp.Body = io.NopCloser(bytes.NewReader(injected))
		resp.ContentLength = int64(len(injected))
		resp.Header.Set("Content-Length", strconv.Itoa(len(injected)))
		rec.Size = int64(len(injected))
	}

	p.netlog.Add(rec)
	p.hub.Request(rec)
	return nil
}

// serveAsset serves the ASSETS binding straight from the project tree,
// bypassing the runtime, with reload injection for HTML files.
func (p *Proxy) serveAsset(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/assets/")
	if rel == "" || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(p.assetsDir, filepath.FromSlash(rel))
	if strings.HasSuffix(path, ".html") {
		data, err := os.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(InjectReloadScript(data))
		return
	}
	http.ServeFile(w, r, path)
}

// serveNetLog dumps the debug-network ring buffer as JSON.
func (p *Proxy) serveNetLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.netlog.Snapshot()); err != nil {
		p.logger.Warn("failed to encode debug-network log", zap.Error(err))
	}
}
