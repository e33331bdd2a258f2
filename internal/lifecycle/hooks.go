// Package lifecycle runs cleanup work exactly once when an invocation ends,
// whether it returns normally, fails, or is interrupted by a signal.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"commoners/pkg/logging"
)

// HookFunc is a cleanup action.
type HookFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   HookFunc
}

// Hooks is an ordered set of exit hooks. Hooks run in reverse registration
// order so later resources are released first.
type Hooks struct {
	mu    sync.Mutex
	hooks []hook
	once  sync.Once
	err   error
	ran   bool
}

// New returns an empty hook set.
func New() *Hooks {
	return &Hooks{}
}

// Add registers a hook. Hooks added after Run has completed are ignored.
func (h *Hooks) Add(name string, fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ran {
		logging.Debug("Lifecycle", "Ignoring exit hook %s registered after shutdown", name)
		return
	}
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Len reports the number of registered hooks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// Run executes every hook once. Later calls return the first result.
// A failing or panicking hook does not prevent the others from running.
func (h *Hooks) Run(ctx context.Context) error {
	h.once.Do(func() {
		h.mu.Lock()
		hooks := h.hooks
		h.ran = true
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := runHook(ctx, hooks[i]); err != nil {
				logging.Error("Lifecycle", err, "Exit hook %s failed", hooks[i].name)
				errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			}
		}
		h.err = errors.Join(errs...)
	})
	return h.err
}

func runHook(ctx context.Context, hk hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	logging.Debug("Lifecycle", "Running exit hook %s", hk.name)
	return hk.fn(ctx)
}

// Signals are the signals that end an invocation.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ErrSignal is the cancellation cause when SIGINT or SIGTERM ends an
// invocation. Check it with context.Cause.
var ErrSignal = errors.New("received shutdown signal")

// NotifyContext returns a context cancelled on SIGINT or SIGTERM. The
// returned stop func cancels it too, without reporting a signal. Callers
// defer Run so the hooks execute on the way out.
func (h *Hooks) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, Signals...)

	go func() {
		select {
		case sig := <-sigs:
			logging.Info("Lifecycle", "Received %s, cleaning up", sig)
			cancel(fmt.Errorf("%w: %s", ErrSignal, sig))
		case <-ctx.Done():
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigs)
			cancel(nil)
		})
	}
}
