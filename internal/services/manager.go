package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"commoners/internal/config"
	"commoners/internal/metrics"
	"commoners/internal/ports"
	"commoners/internal/process"
	"commoners/internal/template"
	"commoners/pkg/logging"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// Options configure a Manager.
type Options struct {
	// Root is the project directory commands run in and .env is read from.
	Root string
	// Spawner defaults to process.Exec{}.
	Spawner process.Spawner
	// Ports defaults to a fresh allocator.
	Ports *ports.Allocator
	// OnStateChange is called for every state transition of every service.
	OnStateChange StateChangeCallback
	// Output returns the writers for a service's stdout and stderr. By
	// default lines are forwarded to the logger tagged with the service name.
	Output func(service string) (stdout, stderr io.Writer)
}

// Manager owns the service processes of one invocation. At most one process
// exists per service name.
type Manager struct {
	opts     Options
	registry *registry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	frontendMu sync.Mutex
	frontend   io.Closer

	dotenvOnce sync.Once
	dotenv     map[string]string
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	if opts.Spawner == nil {
		opts.Spawner = process.Exec{}
	}
	if opts.Ports == nil {
		opts.Ports = ports.NewAllocator()
	}
	if opts.Output == nil {
		opts.Output = logOutput
	}
	return &Manager{
		opts:     opts,
		registry: newRegistry(),
		locks:    make(map[string]*sync.Mutex),
	}
}

func logOutput(service string) (io.Writer, io.Writer) {
	attr := slog.String("service", service)
	return logging.NewLineWriter("Service", logging.LevelInfo, attr),
		logging.NewLineWriter("Service", logging.LevelWarn, attr)
}

// lock serializes operations on one service name.
func (m *Manager) lock(name string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.locksMu.Unlock()
	l.Lock()
	return l.Unlock
}

// environment returns .env values from the project root, read once.
func (m *Manager) environment() map[string]string {
	m.dotenvOnce.Do(func() {
		path := filepath.Join(m.opts.Root, ".env")
		env, err := godotenv.Read(path)
		switch {
		case err == nil:
			m.dotenv = env
			logging.Debug("ServiceManager", "Loaded %d variables from %s", len(env), path)
		case errors.Is(err, os.ErrNotExist):
		default:
			logging.Warn("ServiceManager", "Ignoring %s: %v", path, err)
		}
	})
	return m.dotenv
}

func (m *Manager) commandEnv(svc *config.ResolvedService, port int) map[string]string {
	env := make(map[string]string, len(m.environment())+len(svc.Env)+1)
	for k, v := range m.environment() {
		env[k] = v
	}
	for k, v := range svc.Env {
		env[k] = v
	}
	if port > 0 {
		env["PORT"] = strconv.Itoa(port)
	}
	return env
}

// templateData is available to service commands as {{ .Port }} and friends.
type templateData struct {
	Name string
	Port int
	Src  string
	Root string
}

// Start launches svc. A running instance of the same name is stopped first.
// The service is running once the OS has started the process; readiness is
// left to the caller. Failures are returned as *ServiceSpawnError and leave
// the service in the failed state.
func (m *Manager) Start(ctx context.Context, svc *config.ResolvedService) (*ServiceProcess, error) {
	unlock := m.lock(svc.Name)
	defer unlock()

	if prev, ok := m.registry.get(svc.Name); ok {
		logging.Info("ServiceManager", "Restarting service %s", svc.Name)
		m.stopProcess(prev)
	}

	sp := &ServiceProcess{BaseService: NewBaseService(svc.Name), Service: svc}
	sp.SetStateChangeCallback(m.opts.OnStateChange)
	m.registry.put(sp)
	sp.UpdateState(StateStarting, nil)

	fail := func(err error) (*ServiceProcess, error) {
		spawnErr := &ServiceSpawnError{Service: svc.Name, Err: err}
		sp.UpdateState(StateFailed, spawnErr)
		metrics.RecordServiceStart(svc.Name, spawnErr)
		return sp, spawnErr
	}

	if svc.Launch == "" {
		return fail(ErrNoLaunchCommand)
	}

	port, err := m.opts.Ports.Assign(svc.Name, svc.Port)
	if err != nil {
		return fail(err)
	}
	sp.Port = port

	line, err := template.Render("service "+svc.Name, svc.Launch, templateData{
		Name: svc.Name,
		Port: port,
		Src:  svc.Src,
		Root: m.opts.Root,
	})
	if err != nil {
		return fail(err)
	}
	sp.Command = line

	stdout, stderr := m.opts.Output(svc.Name)
	proc, err := m.opts.Spawner.Start(ctx, process.Command{
		Label:  "service " + svc.Name,
		Line:   line,
		Dir:    m.opts.Root,
		Env:    m.commandEnv(svc, port),
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		return fail(err)
	}
	sp.proc = proc
	sp.UpdateState(StateRunning, nil)
	metrics.RecordServiceStart(svc.Name, nil)
	logging.Info("ServiceManager", "Service %s running on port %d (pid %d)", svc.Name, port, proc.Pid())

	go m.watch(sp, stdout, stderr)
	return sp, nil
}

// watch marks the service failed when it exits without being stopped.
func (m *Manager) watch(sp *ServiceProcess, writers ...io.Writer) {
	<-sp.proc.Done()
	closeWriters(writers...)

	err := sp.proc.Wait()
	if sp.proc.Stopping() {
		metrics.RecordServiceExit(sp.GetName(), false)
		return
	}
	if err == nil {
		err = fmt.Errorf("exited")
	}
	metrics.RecordServiceExit(sp.GetName(), true)
	if sp.transition(StateFailed, err, StateRunning) {
		logging.Error("ServiceManager", err, "Service %s exited unexpectedly", sp.GetName())
	}
}

// StartReport is the outcome of StartAll, per service.
type StartReport struct {
	Started map[string]*ServiceProcess
	Failed  map[string]error
}

// OK reports whether every service started.
func (r StartReport) OK() bool {
	return len(r.Failed) == 0
}

// FailedNames returns the names of services that failed, sorted.
func (r StartReport) FailedNames() []string {
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every service in parallel. One service failing does not
// affect the others; failures are reported per service.
func (m *Manager) StartAll(ctx context.Context, svcs []*config.ResolvedService) StartReport {
	report := StartReport{
		Started: make(map[string]*ServiceProcess, len(svcs)),
		Failed:  make(map[string]error),
	}
	var mu sync.Mutex
	var g errgroup.Group

	for _, svc := range svcs {
		g.Go(func() error {
			sp, err := m.Start(ctx, svc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[svc.Name] = err
				logging.Warn("ServiceManager", "%v; continuing without it", err)
				return nil
			}
			report.Started[svc.Name] = sp
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// Get returns the current process for name.
func (m *Manager) Get(name string) (*ServiceProcess, bool) {
	return m.registry.get(name)
}

// List returns all known service processes sorted by name.
func (m *Manager) List() []*ServiceProcess {
	return m.registry.all()
}

// Ports returns the ports of running services.
func (m *Manager) Ports() map[string]int {
	out := map[string]int{}
	for _, sp := range m.registry.all() {
		if sp.GetState() == StateRunning {
			out[sp.GetName()] = sp.Port
		}
	}
	return out
}

// Stop stops the named service. Unknown or already stopped services are a
// no-op.
func (m *Manager) Stop(name string) error {
	unlock := m.lock(name)
	defer unlock()

	sp, ok := m.registry.get(name)
	if !ok {
		return nil
	}
	err := m.stopProcess(sp)
	m.registry.remove(name, sp)
	return err
}

func (m *Manager) stopProcess(sp *ServiceProcess) error {
	if sp.proc == nil {
		sp.transition(StateStopped, nil, StateFailed, StateStarting)
		return nil
	}
	if !sp.transition(StateStopping, nil, StateRunning, StateFailed) {
		return nil
	}
	err := sp.proc.Stop()
	sp.UpdateState(StateStopped, err)
	if err != nil {
		logging.Error("ServiceManager", err, "Stopping service %s", sp.GetName())
		return err
	}
	logging.Info("ServiceManager", "Stopped service %s", sp.GetName())
	return nil
}

// AttachFrontend registers the dev server so StopAll can close it.
func (m *Manager) AttachFrontend(c io.Closer) {
	m.frontendMu.Lock()
	defer m.frontendMu.Unlock()
	m.frontend = c
}

// StopOptions select what StopAll stops.
type StopOptions struct {
	Services bool
	Frontend bool
}

// StopAll stops the selected parts. It is idempotent and never fails on
// services that were not started; errors from stopping processes are joined.
func (m *Manager) StopAll(opts StopOptions) error {
	var errs []error
	if opts.Services {
		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, sp := range m.registry.all() {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				if err := m.Stop(name); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(sp.GetName())
		}
		wg.Wait()
	}
	if opts.Frontend {
		m.frontendMu.Lock()
		fe := m.frontend
		m.frontend = nil
		m.frontendMu.Unlock()
		if fe != nil {
			if err := fe.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing frontend: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// Build runs the build command of svc for platform, falling back to the
// shared command. Services without one are skipped. Build blocks until the
// command finishes.
func (m *Manager) Build(ctx context.Context, svc *config.ResolvedService, platform string) error {
	line := svc.Build.Select(platform)
	if line == "" {
		logging.Debug("ServiceManager", "Service %s has no build command for %s", svc.Name, platform)
		return nil
	}

	logging.Info("ServiceManager", "Building service %s for %s", svc.Name, platform)
	rendered, err := template.Render("build "+svc.Name, line, templateData{
		Name: svc.Name,
		Port: svc.Port,
		Src:  svc.Src,
		Root: m.opts.Root,
	})
	if err != nil {
		return &BuildError{Service: svc.Name, Platform: platform, Command: line, Err: err}
	}

	stdout, stderr := m.opts.Output(svc.Name)
	defer closeWriters(stdout, stderr)

	err = m.opts.Spawner.Run(ctx, process.Command{
		Label:  "build " + svc.Name,
		Line:   rendered,
		Dir:    m.opts.Root,
		Env:    m.commandEnv(svc, svc.Port),
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		return &BuildError{Service: svc.Name, Platform: platform, Command: rendered, Err: err}
	}
	return nil
}

// BuildAll builds services one at a time in name order and stops at the
// first failure.
func (m *Manager) BuildAll(ctx context.Context, svcs []*config.ResolvedService, platform string) error {
	sorted := append([]*config.ResolvedService(nil), svcs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, svc := range sorted {
		if err := m.Build(ctx, svc, platform); err != nil {
			return err
		}
	}
	return nil
}

func closeWriters(ws ...io.Writer) {
	for _, w := range ws {
		if c, ok := w.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
