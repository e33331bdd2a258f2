package cmd

import (
	"context"

	"commoners/internal/app"
	"commoners/internal/formatting"
	"commoners/internal/project"

	"github.com/spf13/cobra"
)

var configOutputFormat string

// configCmd prints the resolved project configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved project configuration",
	Long: `Loads and validates the project configuration and prints it as resolved
for the selected target and platform: defaults applied, commands selected
for the platform, plugin support evaluated for every target.

Exits with code 2 when the configuration is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatting.ParseFormat(configOutputFormat)
		if err != nil {
			return err
		}
		cfg, err := newAppConfig(cmd)
		if err != nil {
			return err
		}
		return runApplication(cmd, cfg, project.ModeBuild, func(ctx context.Context, a *app.Application) error {
			out := cmd.OutOrStdout()
			if format == formatting.FormatTable {
				targets := make([]string, len(project.Targets))
				for i, t := range project.Targets {
					targets[i] = string(t)
				}
				formatting.ConfigTable(out, a.Resolved(), targets)
				return nil
			}
			return formatting.Encode(out, format, a.Resolved())
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}
