package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"commoners/internal/app"
	"commoners/internal/planner"
	"commoners/internal/project"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	buildFrontend bool
	buildServices bool
	buildService  []string
	buildPublish  string
	buildDryRun   bool
	buildQuiet    bool
)

// buildCmd builds the project for a target.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the project for a target",
	Long: `Builds the frontend and the services for the selected target and
platform into the output directory, then packages desktop and mobile apps.

Scope:
  --frontend        build only the frontend
  --services        build only the services
  --service NAME    build only the named services (repeatable)

Use --dry-run to print the build plan without running it.

Examples:
  commoners build --target desktop
  commoners build --target desktop --publish
  commoners build --services --service api`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

// spinnerObserver shows build progress on the terminal.
type spinnerObserver struct {
	s *spinner.Spinner
}

func newSpinnerObserver() *spinnerObserver {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	return &spinnerObserver{s: s}
}

func (o *spinnerObserver) StepStarted(step planner.Step, index, total int) {
	o.s.Suffix = fmt.Sprintf(" [%d/%d] %s", index+1, total, step)
	o.s.Start()
}

func (o *spinnerObserver) StepFinished(step planner.Step, took time.Duration, err error) {
	if err != nil {
		o.s.FinalMSG = text.FgRed.Sprintf("✗ %s failed", step) + "\n"
	} else {
		o.s.FinalMSG = text.FgGreen.Sprintf("✓ %s", step) + text.FgHiBlack.Sprintf(" (%s)", took.Round(time.Millisecond)) + "\n"
	}
	o.s.Stop()
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := newAppConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Scope = planner.ScopeFromFlags(buildFrontend, buildServices, buildService)
	cfg.DryRun = buildDryRun
	if cmd.Flags().Changed("publish") {
		cfg.Publish = publishMode(buildPublish)
	}

	return runApplication(cmd, cfg, project.ModeBuild, func(ctx context.Context, a *app.Application) error {
		var observer planner.Observer = planner.LogObserver{}
		if !buildQuiet && !buildDryRun {
			observer = newSpinnerObserver()
		}
		if err := a.Build(ctx, observer); err != nil {
			return err
		}
		if !buildDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", text.FgGreen.Sprint("Built"), a.Resolved().OutDir)
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildFrontend, "frontend", false, "Build only the frontend")
	buildCmd.Flags().BoolVar(&buildServices, "services", false, "Build only the services")
	buildCmd.Flags().StringArrayVar(&buildService, "service", nil, "Build only this service (repeatable)")
	buildCmd.Flags().StringVar(&buildPublish, "publish", "", "Publish the desktop build (always, onTag, onTagOrDraft, never)")
	buildCmd.Flags().Lookup("publish").NoOptDefVal = "always"
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Print the build plan without running it")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "Log progress instead of showing a spinner")
}
