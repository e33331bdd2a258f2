package app

import (
	"context"
	"errors"
	"fmt"

	"commoners/internal/config"
	"commoners/internal/formatting"
	"commoners/internal/metrics"
	"commoners/internal/planner"
	"commoners/internal/process"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"
	"commoners/pkg/logging"
)

// ErrLaunchUnsupported is returned when launching a target that has no
// local runner.
var ErrLaunchUnsupported = errors.New("cannot launch for mobile yet")

// serviceList returns the resolved services in name order.
func (a *Application) serviceList() []*config.ResolvedService {
	names := a.resolved.ServiceNames()
	list := make([]*config.ResolvedService, 0, len(names))
	for _, name := range names {
		list = append(list, a.resolved.Services[name])
	}
	return list
}

// startServices starts every service and writes the runtime config with the
// assigned ports. Failed services are logged; the others keep running.
func (a *Application) startServices(ctx context.Context) map[string]runtimecfg.Service {
	report := a.services.StartAll(ctx, a.serviceList())
	if !report.OK() {
		logging.Warn("Dev", "Services failed to start: %v", report.FailedNames())
	}
	return runtimecfg.Services(a.resolved, a.services.Ports())
}

func (a *Application) writeRuntimeConfig(svcs map[string]runtimecfg.Service) error {
	target := a.project.Target
	payload := runtimecfg.New(a.resolved, string(target), string(a.project.Platform), svcs,
		a.registry.SanitizeAll(a.resolved.Plugins, target))
	_, err := a.output.Populate(a.resolved, target, payload)
	return err
}

// frontendCloser stops a process when the service manager shuts the
// frontend down.
type frontendCloser struct {
	p *process.Process
}

func (f frontendCloser) Close() error {
	return f.p.Stop()
}

// Dev runs the development loop: every service is started, then the
// frontend dev server. It blocks until ctx is cancelled or the dev server
// exits. Services keep running when one of them fails.
func (a *Application) Dev(ctx context.Context) error {
	if a.config.MetricsAddr != "" {
		if _, err := metrics.Serve(ctx, a.config.MetricsAddr); err != nil {
			return fmt.Errorf("starting metrics endpoint: %w", err)
		}
	}

	svcs := a.startServices(ctx)
	if err := a.writeRuntimeConfig(svcs); err != nil {
		return err
	}

	if a.config.Watch {
		w := NewServiceWatcher(a.services, a.resolved, 0)
		if err := w.Start(ctx); err != nil {
			logging.Warn("Dev", "Not watching services for changes: %v", err)
		} else {
			a.hooks.Add("stop watcher", func(context.Context) error { return w.Stop() })
		}
	}

	if a.project.Target == project.TargetMobile {
		plan := planner.New(a.resolved, a.project.Target, a.project.Platform, planner.Scope{Frontend: true})
		if err := a.executor().Execute(ctx, plan); err != nil {
			return err
		}
		logging.Info("Dev", "Native project opened. Press Ctrl+C to stop services.")
		<-ctx.Done()
		return nil
	}

	dev, err := a.toolchain.StartDevServer(ctx, a.project.Target, a.project.Platform, svcs, 0)
	if err != nil {
		return err
	}
	a.services.AttachFrontend(frontendCloser{p: dev})
	logging.Info("Dev", "Dev server started. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		return nil
	case <-dev.Done():
		if err := dev.Wait(); err != nil && !dev.Stopping() {
			return fmt.Errorf("dev server: %w", err)
		}
		return nil
	}
}

func (a *Application) executor() *planner.Executor {
	return &planner.Executor{
		Config:    a.resolved,
		Output:    a.output,
		Toolchain: a.toolchain,
		Services:  a.services,
		Registry:  a.registry,
		Publish:   a.project.Publish,
	}
}

// Build plans and runs a build for the configured target and scope. With
// DryRun the plan is printed instead.
func (a *Application) Build(ctx context.Context, observer planner.Observer) error {
	plan := a.Plan()
	if a.config.DryRun {
		formatting.PlanTable(a.stdout, plan)
		return nil
	}
	e := a.executor()
	e.Observer = observer
	return e.Execute(ctx, plan)
}

// Launch runs the built output. Web targets are served over HTTP with the
// services started; desktop runs the shell on the output directory.
func (a *Application) Launch(ctx context.Context) error {
	switch a.project.Target {
	case project.TargetMobile:
		return ErrLaunchUnsupported
	case project.TargetDesktop:
		p, err := a.toolchain.LaunchDesktop(ctx, a.resolved)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return p.Stop()
		case <-p.Done():
			return p.Wait()
		}
	}

	svcs := a.startServices(ctx)
	if err := a.writeRuntimeConfig(svcs); err != nil {
		return err
	}
	srv, err := NewStaticServer(a.resolved.OutDir, a.config.Port)
	if err != nil {
		return err
	}
	logging.Info("Launch", "Serving %s at %s", a.resolved.OutDir, srv.URL())
	return srv.Serve(ctx)
}
