package cmd

import (
	"context"

	"commoners/internal/app"
	"commoners/internal/project"

	"github.com/spf13/cobra"
)

var (
	devMetricsAddr string
	devNoWatch     bool
)

// devCmd starts the services and the frontend dev server.
var devCmd = &cobra.Command{
	Use:     "dev",
	Aliases: []string{"start"},
	Short:   "Start the services and the frontend dev server",
	Long: `Starts every configured service, then the frontend dev server for the
selected target. Service URLs are passed to the frontend through the
COMMONERS_SERVICES environment variable and the generated runtime config.

A service that fails to start is reported and the others keep running.
Services are restarted when their source changes unless --no-watch is set.
Press Ctrl+C to stop everything.`,
	Args: cobra.NoArgs,
	RunE: runDev,
}

func runDev(cmd *cobra.Command, args []string) error {
	cfg, err := newAppConfig(cmd)
	if err != nil {
		return err
	}
	cfg.MetricsAddr = devMetricsAddr
	cfg.Watch = !devNoWatch

	return runApplication(cmd, cfg, project.ModeDev, func(ctx context.Context, a *app.Application) error {
		return a.Dev(ctx)
	})
}

func init() {
	rootCmd.AddCommand(devCmd)

	for _, c := range []*cobra.Command{rootCmd, devCmd} {
		c.Flags().StringVar(&devMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. localhost:9464)")
		c.Flags().BoolVar(&devNoWatch, "no-watch", false, "Do not restart services when their source changes")
	}
}
