package cmd

import (
	"context"

	"commoners/internal/app"
	"commoners/internal/desktop"
	"commoners/internal/planner"
	"commoners/internal/project"

	"github.com/spf13/cobra"
)

// publishMode normalizes the value of a --publish flag that was given.
func publishMode(value string) string {
	return desktop.PublishMode(value, true)
}

// publishCmd builds and publishes the desktop app.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build the desktop app and publish the release",
	Long: `Equivalent to 'commoners build --target desktop --publish always'.
Publishing credentials are read by the desktop packager from its usual
environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newAppConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Target = string(project.TargetDesktop)
		cfg.Publish = publishMode("")

		return runApplication(cmd, cfg, project.ModeBuild, func(ctx context.Context, a *app.Application) error {
			return a.Build(ctx, newSpinnerObserver())
		})
	},
}

var _ planner.Observer = (*spinnerObserver)(nil)

func init() {
	rootCmd.AddCommand(publishCmd)
}
