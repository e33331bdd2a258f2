package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"commoners/internal/config"
	"commoners/internal/lifecycle"
	"commoners/internal/output"
	"commoners/internal/planner"
	"commoners/internal/plugins"
	"commoners/internal/process"
	"commoners/internal/project"
	"commoners/internal/resolve"
	"commoners/internal/services"
	"commoners/internal/toolchain"
	"commoners/pkg/logging"
)

// Application represents one commoners invocation: a resolved project, the
// services it runs and the tools it drives.
//
// The Application follows a two-phase pattern:
//  1. Bootstrap: initialize logging, load and resolve the project config
//  2. Execution: Dev, Build or Launch, followed by Close
//
// Example usage:
//
//	application, err := app.NewApplication(cfg, project.ModeBuild)
//	if err != nil {
//	    return err
//	}
//	defer application.Close(ctx)
//	return application.Build(ctx)
type Application struct {
	config   *Config
	project  project.Context
	resolved *config.ResolvedConfig

	hooks     *lifecycle.Hooks
	services  *services.Manager
	toolchain *toolchain.Toolchain
	output    *output.Dir
	registry  *plugins.Registry
	spawner   process.Spawner
	stdout    io.Writer
}

// NewApplication bootstraps an invocation. Configuration errors are returned
// before any process is spawned.
func NewApplication(cfg *Config, mode project.Mode) (*Application, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.Init(level, logOutput, cfg.LogFormat)

	target, err := project.ParseTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	platform, err := project.ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, err
	}
	pctx, err := project.NewContext(cfg.Root, target, platform, mode, cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	pctx.Publish = cfg.Publish

	raw, err := config.Load(pctx.Root, cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load project configuration")
		return nil, err
	}
	registry := plugins.Default
	resolved, err := resolve.Resolve(pctx, raw, registry)
	if err != nil {
		logging.Error("Bootstrap", err, "Invalid project configuration")
		return nil, err
	}
	logging.Info("Bootstrap", "%s (%s on %s, invocation %s)", resolve.Describe(resolved), pctx.Target, pctx.Platform, pctx.ID)

	spawner := cfg.Spawner
	if spawner == nil {
		spawner = process.Exec{}
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	hooks := lifecycle.New()
	a := &Application{
		config:    cfg,
		project:   pctx,
		resolved:  resolved,
		hooks:     hooks,
		services:  services.NewManager(services.Options{Root: pctx.Root, Spawner: spawner, OnStateChange: logStateChange}),
		toolchain: toolchain.New(pctx.Root, spawner, hooks),
		output:    output.New(resolved.OutDir),
		registry:  registry,
		spawner:   spawner,
		stdout:    stdout,
	}
	hooks.Add("stop services", func(context.Context) error {
		return a.services.StopAll(services.StopOptions{Services: true, Frontend: true})
	})
	return a, nil
}

func logStateChange(name string, oldState, newState services.ServiceState, err error) {
	if err != nil {
		logging.Warn("Services", "Service %s: %s -> %s (%v)", name, oldState, newState, err)
		return
	}
	logging.Debug("Services", "Service %s: %s -> %s", name, oldState, newState)
}

// Project returns the invocation context.
func (a *Application) Project() project.Context {
	return a.project
}

// Resolved returns the resolved project configuration.
func (a *Application) Resolved() *config.ResolvedConfig {
	return a.resolved
}

// Services returns the service manager.
func (a *Application) Services() *services.Manager {
	return a.services
}

// Hooks returns the exit hooks of the invocation.
func (a *Application) Hooks() *lifecycle.Hooks {
	return a.hooks
}

// Plan returns the build plan for the configured target and scope.
func (a *Application) Plan() *planner.Plan {
	return planner.New(a.resolved, a.project.Target, a.project.Platform, a.config.Scope)
}

// Close runs the exit hooks. It is safe to call more than once.
func (a *Application) Close(ctx context.Context) error {
	return a.hooks.Run(ctx)
}
