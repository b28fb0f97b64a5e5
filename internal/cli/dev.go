package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/build"
	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/devserver"
	"github.com/vitrin/vitrin/internal/logging"
)

func newDevCmd() *cobra.Command {
	var (
		path          string
		port          int
		inspectorPort int
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the local dev server",
		Long: "Serve the storefront locally inside the simulated worker runtime, with file\n" +
			"watching, live reload, the debug-network log and the inspector bridge.",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := config.LoadProject(path)
			if err != nil {
				if errors.Is(err, config.ErrNoProject) {
					return fmt.Errorf("%s has no %s, run `vitrin init` first", path, config.ProjectFileName)
				}
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}
			if inspectorPort != 0 {
				cfg.InspectorPort = inspectorPort
			}
			if cfg.PublicURL == "" {
				cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
			}
			if err := requireStoreConfig(cfg); err != nil {
				return err
			}

			logger, err := logging.New(verbose)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			if cfg.GeneratedSecret() {
				logger.Warn("VITRIN_SESSION_SECRET is unset; sessions reset on restart")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// The runtime's own log stream feeds the inspector's
			// console alongside network and file-change events.
			hub := devserver.NewDebugHub(logger)
			appLogger := logger.WithOptions(devserver.ConsoleHook(hub))

			app, cleanup, err := buildApp(ctx, cfg, project.Routes, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()

			// Initial build so the inspector has a source map to serve.
			if _, err := build.Build(cmd.Context(), path, project, logger); err != nil {
				return fmt.Errorf("initial build failed: %w", err)
			}

			server := devserver.New(app, devserver.Options{
				Port:          cfg.Port,
				InspectorPort: cfg.InspectorPort,
				ProjectDir:    path,
				AssetsDir:     filepath.Join(path, project.AssetsDir),
				SourceMap:     filepath.Join(path, project.DistDir, build.SourceMapName),
				Rebuild: func(ctx context.Context, changed string) error {
					_, err := build.Build(ctx, path, project, logger)
					return err
				},
				Hub: hub,
			}, logger)

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://localhost:%d\n", project.Name, cfg.Port)
			fmt.Fprintf(cmd.OutOrStdout(), "Inspector at ws://127.0.0.1:%d/ws\n", cfg.InspectorPort)

			if err := server.Run(ctx); err != nil {
				return err
			}
			logger.Info("dev server stopped", zap.String("project", project.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project directory")
	cmd.Flags().IntVar(&port, "port", 0, "Port for the dev server (default from VITRIN_PORT)")
	cmd.Flags().IntVar(&inspectorPort, "inspector-port", 0, "Port for the inspector bridge")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}
