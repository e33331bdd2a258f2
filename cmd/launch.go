package cmd

import (
	"context"

	"commoners/internal/app"
	"commoners/internal/project"

	"github.com/spf13/cobra"
)

var launchPort int

// launchCmd runs a previous build.
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run the built app",
	Long: `Runs the output of a previous build. Web and PWA builds are served over
HTTP with the services started; desktop builds are opened in the desktop
shell. Launching mobile builds is not supported yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newAppConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Port = launchPort

		return runApplication(cmd, cfg, project.ModeLaunch, func(ctx context.Context, a *app.Application) error {
			return a.Launch(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().IntVar(&launchPort, "port", 0, "Port to serve web builds on (default is a free port)")
}
