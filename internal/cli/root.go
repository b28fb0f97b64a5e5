package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vitrin",
		Short: "Build and run commerce storefronts",
		Long: "Vitrin scaffolds, serves, builds and deploys storefronts backed by a hosted\n" +
			"GraphQL commerce API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newDevCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCustomerAccountCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
