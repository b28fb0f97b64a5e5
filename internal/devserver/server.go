package devserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures the dev harness.
type Options struct {
	// Port is the front proxy listener port.
	Port int
	// InspectorPort is the debugger discovery/bridge port.
	InspectorPort int
	// ProjectDir is the storefront project root being served.
	ProjectDir string
	// AssetsDir is the project's static assets directory.
	AssetsDir string
	// SourceMap is the path to the built index.js.map.
	SourceMap string
	// Rebuild is invoked after a debounced file change, before the
	// reload broadcast. Nil means reload without rebuilding.
	Rebuild func(ctx context.Context, changed string) error
	// Hub, when set, is shared with the caller so the runtime's logger
	// can be teed into it (see ConsoleHook). Nil creates a fresh hub.
	Hub *DebugHub
}

// Server is the local worker-runtime simulator: the storefront app
// hosted in-process, fronted by the recording proxy, with the file
// watcher and the inspector bridge alongside.
type Server struct {
	app    *fiber.App
	opts   Options
	logger *zap.Logger

	NetLog *NetLog
	Hub    *DebugHub
	Reload *ReloadHub
}

// New assembles a dev server around an already-built storefront app.
func New(app *fiber.App, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewDebugHub(logger)
	}
	return &Server{
		app:    app,
		opts:   opts,
		logger: logger,
		NetLog: NewNetLog(512),
		Hub:    hub,
		Reload: NewReloadHub(logger),
	}
}

// Run serves until ctx is cancelled. The runtime app listens on an
// ephemeral localhost port; only the proxy and inspector ports are
// user-visible.
func (s *Server) Run(ctx context.Context) error {
	runtimeLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to open runtime listener: %w", err)
	}
	runtimeAddr := runtimeLn.Addr().String()

	proxy := NewProxy(runtimeAddr, s.opts.AssetsDir, s.NetLog, s.Hub, s.Reload, s.logger)
	proxySrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.opts.Port),
		Handler: proxy.Handler(),
	}

	inspectorHost := fmt.Sprintf("127.0.0.1:%d", s.opts.InspectorPort)
	inspector := NewInspector(s.Hub, inspectorHost, s.opts.SourceMap, s.logger)
	inspectorSrv := &http.Server{
		Addr:    inspectorHost,
		Handler: inspector.Handler(),
	}

	watcher, err := NewWatcher(s.opts.ProjectDir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.app.Listener(runtimeLn); err != nil {
			return fmt.Errorf("runtime failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info("dev server listening",
			zap.Int("port", s.opts.Port),
			zap.String("inspector", "ws://"+inspectorHost+"/ws"))
		if err := proxySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("proxy failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := inspectorSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("inspector failed: %w", err)
		}
		return nil
	})

	if err := watcher.Start(gctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case changed := <-watcher.Events():
				s.onChange(gctx, changed)
			}
		}
	})

	// Shutdown fan-out once the context ends.
	g.Go(func() error {
		<-gctx.Done()
		watcher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		proxySrv.Shutdown(shutdownCtx)
		inspectorSrv.Shutdown(shutdownCtx)
		s.app.Shutdown()
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) onChange(ctx context.Context, changed string) {
	rel := changed
	if r, err := filepath.Rel(s.opts.ProjectDir, changed); err == nil {
		rel = r
	}
	s.logger.Info("file changed", zap.String("path", rel))
	s.Hub.Console("info", "file changed: "+rel)

	if s.opts.Rebuild != nil {
		if err := s.opts.Rebuild(ctx, changed); err != nil {
			s.logger.Error("rebuild failed", zap.Error(err))
			s.Hub.Console("error", "rebuild failed: "+err.Error())
			return
		}
	}
	s.Reload.Broadcast()
}
