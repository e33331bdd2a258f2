package planner

import (
	"fmt"
	"slices"

	"commoners/internal/config"
	"commoners/internal/project"
)

// Scope selects which halves of the project a build covers.
type Scope struct {
	Frontend bool
	Services bool
	// Names restricts services to the listed names. Empty means all.
	Names []string
}

// ScopeFromFlags derives the scope from --frontend, --services and
// --service. With no flags both halves are built.
func ScopeFromFlags(frontend, services bool, names []string) Scope {
	named := len(names) > 0
	return Scope{
		Frontend: frontend || (!services && !named),
		Services: services || named || !frontend,
		Names:    names,
	}
}

// IncludesService reports whether a service is in scope.
func (s Scope) IncludesService(name string) bool {
	if !s.Services {
		return false
	}
	return len(s.Names) == 0 || slices.Contains(s.Names, name)
}

// StepKind identifies what a step does.
type StepKind string

const (
	StepClearOutput    StepKind = "clear-output"
	StepMobilePrebuild StepKind = "mobile-prebuild"
	StepBundleFrontend StepKind = "bundle-frontend"
	StepBuildService   StepKind = "build-service"
	StepPopulateOutput StepKind = "populate-output"
	StepPackageDesktop StepKind = "package-desktop"
	StepMobileInit     StepKind = "mobile-init"
	StepMobileOpen     StepKind = "mobile-open"
)

// Step is one unit of build work.
type Step struct {
	Kind StepKind
	// Service is set for build-service steps.
	Service string
	// Command is the build command of a build-service step, for display.
	Command string
}

func (s Step) String() string {
	if s.Service != "" {
		return fmt.Sprintf("%s[%s]", s.Kind, s.Service)
	}
	return string(s.Kind)
}

// Plan is an ordered build.
type Plan struct {
	Target   project.Target
	Platform project.Platform
	Scope    Scope
	Steps    []Step
}

// Kinds lists the step kinds in order.
func (p *Plan) Kinds() []StepKind {
	kinds := make([]StepKind, len(p.Steps))
	for i, s := range p.Steps {
		kinds[i] = s.Kind
	}
	return kinds
}

// New plans a build of cfg for a target and platform.
func New(cfg *config.ResolvedConfig, target project.Target, platform project.Platform, scope Scope) *Plan {
	p := &Plan{Target: target, Platform: platform, Scope: scope}
	add := func(s Step) { p.Steps = append(p.Steps, s) }

	if scope.Frontend && scope.Services {
		add(Step{Kind: StepClearOutput})
	}
	if target == project.TargetMobile && scope.Frontend {
		add(Step{Kind: StepMobilePrebuild})
	}
	if scope.Frontend {
		add(Step{Kind: StepBundleFrontend})
	}
	for _, name := range cfg.ServiceNames() {
		if !scope.IncludesService(name) {
			continue
		}
		cmd := cfg.Services[name].Build.Select(string(platform))
		if cmd == "" {
			continue
		}
		add(Step{Kind: StepBuildService, Service: name, Command: cmd})
	}
	add(Step{Kind: StepPopulateOutput})

	switch target {
	case project.TargetDesktop:
		add(Step{Kind: StepPackageDesktop})
	case project.TargetMobile:
		add(Step{Kind: StepMobileInit})
		add(Step{Kind: StepMobileOpen})
	}
	return p
}
