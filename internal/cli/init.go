package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vitrin/vitrin/internal/scaffold"
)

var styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)

func newInitCmd() *cobra.Command {
	var (
		name     string
		template string
		language string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Scaffold a new storefront project",
		Long:  "Create a new storefront project from a starter template and write its vitrin.yml.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			project, err := scaffold.Init(scaffold.Options{
				Path:     path,
				Name:     name,
				Template: template,
				Language: language,
				Force:    force,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleSuccess.Render("Created "+project.Name))
			fmt.Fprintf(out, "  Template: %s\n", project.Template)
			fmt.Fprintf(out, "  Language: %s\n", project.Language)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			if path != "." {
				fmt.Fprintf(out, "  cd %s\n", path)
			}
			fmt.Fprintln(out, "  vitrin dev")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (defaults to the directory name)")
	cmd.Flags().StringVar(&template, "template", "minimal", "Starter template")
	cmd.Flags().StringVar(&language, "language", "go", "Project language variant")
	cmd.Flags().BoolVar(&force, "force", false, "Scaffold into a non-empty directory")

	return cmd
}
