package app

import (
	"context"
	"fmt"
	"path/filepath"

	"commoners/internal/process"
	"commoners/pkg/logging"
)

// DefaultCommitMessage is used when commit is given no message.
const DefaultCommitMessage = "Update build output"

// Commit records the output directory in git. The directory is force added
// because build output is usually ignored.
func (a *Application) Commit(ctx context.Context, message string) error {
	if message == "" {
		message = DefaultCommitMessage
	}
	rel, err := filepath.Rel(a.project.Root, a.resolved.OutDir)
	if err != nil {
		rel = a.resolved.OutDir
	}

	steps := [][]string{
		{"git", "add", "--force", rel},
		{"git", "commit", "-m", message},
	}
	for _, args := range steps {
		c := process.Command{Label: "git " + args[1], Args: args, Dir: a.project.Root}
		if err := a.spawner.Run(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", c.Label, err)
		}
	}
	logging.Info("Release", "Committed %s", rel)
	return nil
}
