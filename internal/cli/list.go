package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/deploy"
	"github.com/vitrin/vitrin/internal/logging"
)

func newListCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := requireStoreConfig(cfg); err != nil {
				return err
			}
			tok, err := deployToken(token)
			if err != nil {
				return err
			}

			logger, err := logging.New(false)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			client := deploy.NewClient(deployEndpoint(cfg.StoreDomain), tok, logger)
			deployments, err := client.List(cmd.Context())
			if err != nil {
				return err
			}

			styled := isatty.IsTerminal(os.Stdout.Fd())
			fmt.Fprint(cmd.OutOrStdout(), deploy.FormatDeploymentList(deployments, styled))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Deploy token (default from VITRIN_DEPLOY_TOKEN)")

	return cmd
}
