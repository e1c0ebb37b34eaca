package process

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/multierr"
)

// Hook is a callback run once at process exit.
type Hook func() error

type namedHook struct {
	name string
	fn   Hook
}

// Hooks is an ordered registry of exit hooks.
type Hooks struct {
	mu    sync.Mutex
	hooks []namedHook
	once  sync.Once
	ran   bool
	err   error
	exit  func(code int)
}

// Option configures a Hooks registry.
type Option func(*Hooks)

// WithExitFunc replaces os.Exit, mainly for tests.
func WithExitFunc(fn func(code int)) Option {
	return func(h *Hooks) { h.exit = fn }
}

// NewHooks creates an empty registry.
func NewHooks(opts ...Option) *Hooks {
	h := &Hooks{exit: os.Exit}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a named hook. Hooks registered after Run has started never run.
func (h *Hooks) Register(name string, fn Hook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ran {
		return
	}
	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
}

// Len returns the number of registered hooks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// Ran reports whether Run has been triggered.
func (h *Hooks) Ran() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ran
}

// Run executes every hook once, last registered first, and returns the
// combined error. Later calls return the result of the first.
func (h *Hooks) Run() error {
	h.once.Do(func() {
		h.mu.Lock()
		h.ran = true
		hooks := make([]namedHook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs error
		for i := len(hooks) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, runHook(hooks[i]))
		}
		h.err = errs
	})
	return h.err
}

// Exit runs the hooks and terminates the process with the given status code.
func (h *Hooks) Exit(code int) {
	_ = h.Run()
	h.exit(code)
}

// NotifySignals runs the hooks and exits with status 128+signal when one of
// sigs (SIGINT and SIGTERM by default) arrives. The returned function stops
// listening; canceling ctx does the same.
func (h *Hooks) NotifySignals(ctx context.Context, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			h.Exit(SignalExitCode(sig))
		case <-ctx.Done():
		}
	}()
	return cancel
}

// SignalExitCode returns the conventional shell status for a process killed by sig.
func SignalExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

func runHook(h namedHook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exit hook %q panicked: %v", h.name, r)
		}
	}()
	if err := h.fn(); err != nil {
		return fmt.Errorf("exit hook %q: %w", h.name, err)
	}
	return nil
}

// --- Process-wide registry ---

var defaultHooks = NewHooks()

// Default returns the process-wide registry.
func Default() *Hooks { return defaultHooks }

// OnExit registers a hook with the process-wide registry.
func OnExit(name string, fn Hook) { defaultHooks.Register(name, fn) }

// RunExitHooks runs the process-wide hooks. Defer it at the top of main.
func RunExitHooks() error { return defaultHooks.Run() }

// Exit runs the process-wide hooks, then calls os.Exit.
func Exit(code int) { defaultHooks.Exit(code) }
