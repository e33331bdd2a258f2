package cmd

import (
	"context"

	"commoners/internal/app"
	"commoners/internal/project"

	"github.com/spf13/cobra"
)

var commitMessage string

// commitCmd commits the build output.
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the build output to git",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newAppConfig(cmd)
		if err != nil {
			return err
		}
		return runApplication(cmd, cfg, project.ModeBuild, func(ctx context.Context, a *app.Application) error {
			return a.Commit(ctx, commitMessage)
		})
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", app.DefaultCommitMessage, "Commit message")
}
