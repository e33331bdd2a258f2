package plugins

import (
	"fmt"

	"commoners/internal/config"
	"commoners/internal/metrics"
	"commoners/internal/project"
	"commoners/internal/runtimecfg"
	"commoners/pkg/logging"
)

// Evaluate resolves a plugin's support for one target. An absent entry means
// supported, a literal is used as is, an object value counts as supported and
// a handler name is looked up and called. The returned error is an
// *EvaluationError and the verdict is false whenever it is non-nil.
func (r *Registry) Evaluate(desc *config.PluginDescriptor, target project.Target) (supported bool, err error) {
	if desc == nil {
		return false, nil
	}
	v, ok := desc.IsSupported.For(string(target))
	switch {
	case !ok:
		return true, nil
	case v.Bool != nil:
		return *v.Bool, nil
	case v.Object != nil:
		return true, nil
	}

	h, found := r.Get(v.Handler)
	if !found {
		return false, &EvaluationError{Plugin: desc.Name, Target: target, Handler: v.Handler, Err: ErrHandlerNotFound}
	}
	checker, isChecker := h.(SupportChecker)
	if !isChecker {
		return false, &EvaluationError{Plugin: desc.Name, Target: target, Handler: v.Handler, Err: fmt.Errorf("handler does not implement support checks")}
	}

	defer func() {
		if rec := recover(); rec != nil {
			supported = false
			err = &EvaluationError{Plugin: desc.Name, Target: target, Handler: v.Handler, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	supported, err = checker.Supported(target)
	if err != nil {
		return false, &EvaluationError{Plugin: desc.Name, Target: target, Handler: v.Handler, Err: err}
	}
	return supported, nil
}

// IsActive reports whether the plugin is active for the target. Evaluation
// failures are logged and count as inactive.
func (r *Registry) IsActive(desc *config.PluginDescriptor, target project.Target) bool {
	ok, err := r.Evaluate(desc, target)
	if err != nil {
		logging.Warn("Plugins", "%v; treating plugin as unsupported", err)
		metrics.RecordPluginEvaluationFailure(desc.Name)
		return false
	}
	return ok
}

// SupportMatrix evaluates the plugin for every target.
func (r *Registry) SupportMatrix(desc *config.PluginDescriptor) map[string]bool {
	out := make(map[string]bool, len(project.Targets))
	for _, t := range project.Targets {
		out[string(t)] = r.IsActive(desc, t)
	}
	return out
}

// IsActive uses the Default registry.
func IsActive(desc *config.PluginDescriptor, target project.Target) bool {
	return Default.IsActive(desc, target)
}

// Sanitize returns what of a resolved plugin may reach the runtime of the
// given target. ok is false when the plugin is inactive there, in which case
// nothing of it may be emitted.
func (r *Registry) Sanitize(p *config.ResolvedPlugin, target project.Target) (out runtimecfg.Plugin, ok bool) {
	if p == nil || !p.SupportedOn(string(target)) {
		return runtimecfg.Plugin{}, false
	}

	out = runtimecfg.Plugin{Name: p.Name, Options: p.Options}

	frags := Fragments{Preload: p.Preload, Render: p.Render}
	if h, found := r.Get(p.Name); found {
		if fp, isProvider := h.(FragmentProvider); isProvider {
			provided, err := safeFragments(fp, target)
			if err != nil {
				logging.Warn("Plugins", "%v; dropping fragments", &EvaluationError{Plugin: p.Name, Target: target, Handler: h.Name(), Err: err})
				provided = Fragments{}
			}
			frags = provided
		}
	}

	if target.IsShell() || optedOutOfElectronOnly(p.ElectronOnly) {
		out.Preload = frags.Preload
		out.Render = frags.Render
	}
	return out, true
}

// Sanitize uses the Default registry.
func Sanitize(p *config.ResolvedPlugin, target project.Target) (runtimecfg.Plugin, bool) {
	return Default.Sanitize(p, target)
}

// SanitizeAll sanitizes every plugin for a target, keeping declaration order
// and dropping inactive ones.
func (r *Registry) SanitizeAll(list []*config.ResolvedPlugin, target project.Target) []runtimecfg.Plugin {
	out := make([]runtimecfg.Plugin, 0, len(list))
	for _, p := range list {
		if s, ok := r.Sanitize(p, target); ok {
			out = append(out, s)
		}
	}
	return out
}

func optedOutOfElectronOnly(electronOnly *bool) bool {
	return electronOnly != nil && !*electronOnly
}

func safeFragments(fp FragmentProvider, target project.Target) (f Fragments, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fp.Fragments(target)
}

// ApplyBridgeAvailability forces mobile support off for plugins bound to a
// native bridge package that the project does not declare as a dependency.
// It returns the names of the plugins it disabled.
func ApplyBridgeAvailability(list []*config.ResolvedPlugin, pkg config.PackageManifest) []string {
	var disabled []string
	mobile := string(project.TargetMobile)
	for _, p := range list {
		b := p.Bridge()
		if b == nil || pkg.HasDependency(b.Plugin) {
			continue
		}
		if p.Support == nil {
			p.Support = map[string]bool{}
		}
		if p.Support[mobile] {
			logging.Warn("Plugins", "Plugin %s needs %s for mobile builds but it is not installed; disabling it on mobile", p.Name, b.Plugin)
			disabled = append(disabled, p.Name)
		}
		p.Support[mobile] = false
	}
	return disabled
}
