// Package planner turns a resolved project, a target and the CLI scope
// flags into an ordered list of build steps, and executes them.
//
// Planning is pure: New only inspects the configuration. The Executor does
// the work, stopping at the first failing step:
//
//	plan := planner.New(cfg, project.TargetDesktop, project.PlatformMac, planner.ScopeFromFlags(false, false, nil))
//	err := (&planner.Executor{...}).Execute(ctx, plan)
//
// A failed step is reported as a *BuildStepError.
package planner
