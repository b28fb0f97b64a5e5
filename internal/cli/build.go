package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrin/vitrin/internal/build"
	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/logging"
)

func newBuildCmd() *cobra.Command {
	var (
		path string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project for deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := config.LoadProject(path)
			if err != nil {
				if errors.Is(err, config.ErrNoProject) {
					return fmt.Errorf("%s has no %s, run `vitrin init` first", path, config.ProjectFileName)
				}
				return err
			}
			if out != "" {
				project.DistDir = out
			}

			logger, err := logging.New(false)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			result, err := build.Build(cmd.Context(), path, project, logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Built %d assets (%d bytes) into %s in %s\n",
				result.Files, result.TotalBytes, project.DistDir, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project directory")
	cmd.Flags().StringVar(&out, "out", "", "Output directory (default from vitrin.yml)")

	return cmd
}
