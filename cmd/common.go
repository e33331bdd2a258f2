package cmd

import (
	"context"
	"errors"

	"commoners/internal/app"
	"commoners/internal/project"
	"commoners/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newAppConfig builds the application configuration from the persistent
// flags, the settings file and the environment.
func newAppConfig(cmd *cobra.Command) (*app.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg := app.NewConfig(root, viper.GetBool("debug"))
	cfg.LogLevel = viper.GetString("log-level")
	cfg.LogFormat = logging.Format(viper.GetString("log-format"))
	cfg.ConfigPath = viper.GetString("config")
	cfg.OutDir = viper.GetString("out-dir")
	cfg.Target = viper.GetString("target")
	cfg.Platform = viper.GetString("platform")
	cfg.Stdout = cmd.OutOrStdout()
	return cfg, nil
}

// runApplication bootstraps the application and runs fn with a context that
// is cancelled on SIGINT or SIGTERM. Exit hooks run exactly once on the way
// out, whatever the outcome.
func runApplication(cmd *cobra.Command, cfg *app.Config, mode project.Mode, fn func(ctx context.Context, a *app.Application) error) error {
	a, err := app.NewApplication(cfg, mode)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := a.Hooks().NotifyContext(parent)
	defer stop()

	runErr := fn(ctx, a)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	closeErr := a.Close(context.Background())
	if runErr != nil {
		return runErr
	}
	return closeErr
}
