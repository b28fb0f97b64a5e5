package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/deploy"
	"github.com/vitrin/vitrin/internal/logging"
	"github.com/vitrin/vitrin/pkg/events"
)

// deployEndpoint resolves the platform deployment API root for a store.
func deployEndpoint(storeDomain string) string {
	return fmt.Sprintf("https://%s/api/hosting", storeDomain)
}

func deployToken(flagToken string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	v := viper.New()
	v.AutomaticEnv()
	if t := v.GetString("VITRIN_DEPLOY_TOKEN"); t != "" {
		return t, nil
	}
	return "", errors.New("no deploy token: pass --token or set VITRIN_DEPLOY_TOKEN")
}

func newDeployCmd() *cobra.Command {
	var (
		path    string
		token   string
		env     string
		message string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the built project to the hosting platform",
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
			dep, err := client.Deploy(cmd.Context(), filepath.Join(path, project.DistDir), deploy.Options{
				Environment: env,
				Message:     message,
			})
			if err != nil {
				return err
			}

			if cfg.EventsURL != "" {
				if ec, eerr := events.NewClient(cfg.EventsURL, logger); eerr == nil {
					defer ec.Close()
					ec.Publish(events.New(events.TypeDeploymentCompleted, map[string]any{
						"deployment_id": dep.ID,
						"url":           dep.URL,
						"environment":   dep.Environment,
					}))
				}
			}

			styled := isatty.IsTerminal(os.Stdout.Fd())
			fmt.Fprint(cmd.OutOrStdout(), deploy.FormatDeployment(*dep, styled))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project directory")
	cmd.Flags().StringVar(&token, "token", "", "Deploy token (default from VITRIN_DEPLOY_TOKEN)")
	cmd.Flags().StringVar(&env, "env", "production", "Target environment")
	cmd.Flags().StringVar(&message, "message", "", "Deployment message")

	return cmd
}
