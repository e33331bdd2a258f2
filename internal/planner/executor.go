package planner

import (
	"context"
	"fmt"
	"time"

	"commoners/internal/config"
	"commoners/internal/desktop"
	"commoners/internal/metrics"
	"commoners/internal/output"
	"commoners/internal/plugins"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"
	"commoners/pkg/logging"
)

// BuildStepError reports the step that aborted a build.
type BuildStepError struct {
	Step Step
	Err  error
}

func (e *BuildStepError) Error() string {
	return fmt.Sprintf("build step %s failed: %v", e.Step, e.Err)
}

func (e *BuildStepError) Unwrap() error {
	return e.Err
}

// Toolchain is the set of external tools the executor drives.
type Toolchain interface {
	BundleFrontend(ctx context.Context, cfg *config.ResolvedConfig, target project.Target, platform project.Platform, services map[string]runtimecfg.Service) error
	PackageDesktop(ctx context.Context, ic desktop.InstallerConfig, platform project.Platform) error
	MobilePrebuild(ctx context.Context, cfg *config.ResolvedConfig, platform project.Platform) error
	MobileInit(ctx context.Context, cfg *config.ResolvedConfig, platform project.Platform) error
	MobileOpen(ctx context.Context, platform project.Platform) error
}

// ServiceBuilder builds one service for a platform.
type ServiceBuilder interface {
	Build(ctx context.Context, svc *config.ResolvedService, platform string) error
}

// Observer is told about step progress.
type Observer interface {
	StepStarted(step Step, index, total int)
	StepFinished(step Step, took time.Duration, err error)
}

// LogObserver reports progress through the logger.
type LogObserver struct{}

func (LogObserver) StepStarted(step Step, index, total int) {
	logging.Info("Planner", "[%d/%d] %s", index+1, total, step)
}

func (LogObserver) StepFinished(step Step, took time.Duration, err error) {
	if err != nil {
		logging.Error("Planner", err, "Step %s failed after %s", step, took.Round(time.Millisecond))
		return
	}
	logging.Debug("Planner", "Step %s finished in %s", step, took.Round(time.Millisecond))
}

// Executor runs plans for one resolved project.
type Executor struct {
	Config    *config.ResolvedConfig
	Output    *output.Dir
	Toolchain Toolchain
	Services  ServiceBuilder
	// Registry sanitizes plugins for the runtime payload. Defaults to
	// plugins.Default.
	Registry *plugins.Registry
	// Observer defaults to LogObserver.
	Observer Observer
	// Publish is forwarded to the desktop packager.
	Publish string
}

// Execute runs the plan's steps in order. The first failure aborts the
// remaining steps and is returned as a *BuildStepError.
func (e *Executor) Execute(ctx context.Context, plan *Plan) error {
	obs := e.Observer
	if obs == nil {
		obs = LogObserver{}
	}
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return &BuildStepError{Step: step, Err: err}
		}
		obs.StepStarted(step, i, len(plan.Steps))
		start := time.Now()
		err := e.run(ctx, plan, step)
		took := time.Since(start)
		obs.StepFinished(step, took, err)
		metrics.RecordStep(string(step.Kind), string(plan.Target), took, err)
		if err != nil {
			return &BuildStepError{Step: step, Err: err}
		}
	}
	return nil
}

func (e *Executor) registry() *plugins.Registry {
	if e.Registry != nil {
		return e.Registry
	}
	return plugins.Default
}

// Payload is the runtime configuration written for a target. Build time
// service URLs come from configured ports only.
func (e *Executor) Payload(target project.Target, platform project.Platform) runtimecfg.Config {
	cfg := e.Config
	return runtimecfg.New(cfg, string(target), string(platform),
		runtimecfg.Services(cfg, nil),
		e.registry().SanitizeAll(cfg.Plugins, target))
}

func (e *Executor) run(ctx context.Context, plan *Plan, step Step) error {
	cfg := e.Config
	switch step.Kind {
	case StepClearOutput:
		return e.Output.Clear()
	case StepMobilePrebuild:
		return e.Toolchain.MobilePrebuild(ctx, cfg, plan.Platform)
	case StepBundleFrontend:
		unlock := e.Output.Lock()
		defer unlock()
		return e.Toolchain.BundleFrontend(ctx, cfg, plan.Target, plan.Platform, runtimecfg.Services(cfg, nil))
	case StepBuildService:
		svc, ok := cfg.Services[step.Service]
		if !ok {
			return fmt.Errorf("unknown service %q", step.Service)
		}
		return e.Services.Build(ctx, svc, string(plan.Platform))
	case StepPopulateOutput:
		_, err := e.Output.Populate(cfg, plan.Target, e.Payload(plan.Target, plan.Platform))
		return err
	case StepPackageDesktop:
		ic := desktop.Derive(cfg, desktop.Options{Publish: e.Publish})
		return e.Toolchain.PackageDesktop(ctx, ic, plan.Platform)
	case StepMobileInit:
		return e.Toolchain.MobileInit(ctx, cfg, plan.Platform)
	case StepMobileOpen:
		return e.Toolchain.MobileOpen(ctx, plan.Platform)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}
