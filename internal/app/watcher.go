package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"commoners/internal/config"
	"commoners/internal/services"
	"commoners/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further changes before
// restarting a service.
const DefaultDebounce = 500 * time.Millisecond

// Restarter restarts one service.
type Restarter interface {
	Start(ctx context.Context, svc *config.ResolvedService) (*services.ServiceProcess, error)
}

// ServiceWatcher restarts a service when its source changes.
type ServiceWatcher struct {
	mu sync.Mutex

	manager  Restarter
	cfg      *config.ResolvedConfig
	debounce time.Duration

	watcher *fsnotify.Watcher
	// paths maps a watched file or directory to the services it belongs to.
	paths   map[string][]string
	pending map[string]*time.Timer
	stopCh  chan struct{}
	running bool
}

// NewServiceWatcher creates a watcher for every service with a local source.
func NewServiceWatcher(manager Restarter, cfg *config.ResolvedConfig, debounce time.Duration) *ServiceWatcher {
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	return &ServiceWatcher{
		manager:  manager,
		cfg:      cfg,
		debounce: debounce,
		paths:    make(map[string][]string),
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching. Services whose source is missing are skipped.
func (w *ServiceWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, name := range w.cfg.ServiceNames() {
		src := w.cfg.Services[name].Src
		if src == "" {
			continue
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(w.cfg.Root, src)
		}
		info, err := os.Stat(src)
		if err != nil {
			logging.Debug("Watcher", "Not watching %s: %v", name, err)
			continue
		}
		// Files are watched through their directory so editors that
		// replace files on save are still seen.
		dir := src
		if !info.IsDir() {
			dir = filepath.Dir(src)
		}
		if err := watcher.Add(dir); err != nil {
			logging.Warn("Watcher", "Failed to watch %s for service %s: %v", dir, name, err)
			continue
		}
		w.paths[src] = append(w.paths[src], name)
		logging.Debug("Watcher", "Watching %s for service %s", src, name)
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true
	go w.processEvents(ctx)
	return nil
}

func (w *ServiceWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.cleanupPending()
			return
		case <-w.stopCh:
			w.cleanupPending()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			for _, name := range w.servicesFor(event.Name) {
				w.schedule(ctx, name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher", err, "Filesystem watcher error")
		}
	}
}

// servicesFor returns the services affected by a change to path.
func (w *ServiceWatcher) servicesFor(path string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for src, names := range w.paths {
		if path == src || filepath.Dir(path) == src {
			out = append(out, names...)
		}
	}
	return out
}

// schedule restarts a service once no change has been seen for the
// debounce interval.
func (w *ServiceWatcher) schedule(ctx context.Context, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[name]; ok {
		t.Stop()
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()

		svc, ok := w.cfg.Services[name]
		if !ok || ctx.Err() != nil {
			return
		}
		logging.Info("Watcher", "Source of %s changed, restarting", name)
		if _, err := w.manager.Start(ctx, svc); err != nil {
			logging.Error("Watcher", err, "Failed to restart service %s", name)
		}
	})
}

func (w *ServiceWatcher) cleanupPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = make(map[string]*time.Timer)
}

// Stop ends watching. Pending restarts are dropped.
func (w *ServiceWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	return w.watcher.Close()
}
