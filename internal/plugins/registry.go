package plugins

import (
	"fmt"
	"sort"
	"sync"

	"commoners/internal/project"
)

// Handler is a named piece of plugin behaviour compiled into commoners.
type Handler interface {
	Name() string
}

// SupportChecker decides whether a plugin supports a target.
type SupportChecker interface {
	Handler
	Supported(target project.Target) (bool, error)
}

// Fragments are the runtime code references a plugin contributes.
type Fragments struct {
	Preload string
	Render  string
}

// FragmentProvider supplies preload and render references for a target,
// overriding the ones written in the configuration.
type FragmentProvider interface {
	Handler
	Fragments(target project.Target) (Fragments, error)
}

// Registry maps handler names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Names must be unique.
func (r *Registry) Register(h Handler) error {
	if h == nil || h.Name() == "" {
		return fmt.Errorf("plugins: handler must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[h.Name()]; exists {
		return fmt.Errorf("plugins: handler %q already registered", h.Name())
	}
	r.handlers[h.Name()] = h
	return nil
}

// MustRegister is Register for init functions; it panics on duplicates.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Get returns a handler by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process wide registry populated by init functions.
var Default = NewRegistry()

// Register adds h to the Default registry and panics on duplicates.
func Register(h Handler) {
	Default.MustRegister(h)
}

// SupportFunc adapts a function to a SupportChecker.
type SupportFunc struct {
	name string
	fn   func(project.Target) (bool, error)
}

// NewSupportFunc returns a named SupportChecker calling fn.
func NewSupportFunc(name string, fn func(project.Target) (bool, error)) *SupportFunc {
	return &SupportFunc{name: name, fn: fn}
}

func (s *SupportFunc) Name() string { return s.name }

func (s *SupportFunc) Supported(target project.Target) (bool, error) {
	return s.fn(target)
}

// targetSet is a SupportChecker true for a fixed set of targets.
func targetSet(name string, targets ...project.Target) *SupportFunc {
	return NewSupportFunc(name, func(t project.Target) (bool, error) {
		for _, allowed := range targets {
			if t == allowed {
				return true, nil
			}
		}
		return false, nil
	})
}

func init() {
	Register(targetSet("desktopOnly", project.TargetDesktop))
	Register(targetSet("mobileOnly", project.TargetMobile))
	Register(targetSet("nativeOnly", project.TargetDesktop, project.TargetMobile))
	Register(targetSet("browserOnly", project.TargetWeb, project.TargetPWA))
}
