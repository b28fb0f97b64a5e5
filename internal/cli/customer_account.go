package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vitrin/vitrin/internal/config"
	"github.com/vitrin/vitrin/internal/customer"
)

func newCustomerAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer-account",
		Short: "Manage Customer Account API settings",
	}
	cmd.AddCommand(newCustomerAccountPushCmd())
	return cmd
}

func newCustomerAccountPushCmd() *cobra.Command {
	var devOrigin string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the OAuth callback and logout URLs to the platform",
		Long: "Register this storefront's OAuth redirect configuration with the Customer\n" +
			"Account API so logins work against the given origin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := requireStoreConfig(cfg); err != nil {
				return err
			}

			origin := devOrigin
			if origin == "" {
				origin = cfg.PublicURL
			}
			if origin == "" {
				return fmt.Errorf("no origin: pass --dev-origin or set VITRIN_PUBLIC_URL")
			}

			v := viper.New()
			v.AutomaticEnv()
			adminToken := v.GetString("VITRIN_ADMIN_TOKEN")
			if adminToken == "" {
				return fmt.Errorf("VITRIN_ADMIN_TOKEN is required to push customer-account settings")
			}

			callback := origin + "/account/authorize"
			logout := origin + "/"
			if err := customer.PushConfig(cmd.Context(), cfg.StoreDomain, adminToken, callback, logout); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleSuccess.Render("Customer account settings pushed"))
			fmt.Fprintf(out, "  Callback: %s\n", callback)
			fmt.Fprintf(out, "  Logout:   %s\n", logout)
			return nil
		},
	}

	cmd.Flags().StringVar(&devOrigin, "dev-origin", "", "Origin to register (e.g. http://localhost:3000)")

	return cmd
}
