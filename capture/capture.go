package capture

import (
	"reflect"
	"runtime"
	"sync"

	"github.com/kbukum/redkit/logger"
	"github.com/kbukum/redkit/process"
)

// HookName is the name of the termination hook.
const HookName = "redlog.capture"

// Capture feeds faults of the host process into a logger.
type Capture struct {
	log   *logger.Logger
	hooks *process.Hooks
	once  sync.Once

	mu   sync.Mutex
	last *Fault
}

// Option configures a Capture.
type Option func(*Capture)

// WithExitHooks registers the termination hook with h instead of the
// process-wide registry. It should be the registry the logger flushes on.
func WithExitHooks(h *process.Hooks) Option {
	return func(c *Capture) { c.hooks = h }
}

// New creates a Capture without installing it.
func New(l *logger.Logger, opts ...Option) *Capture {
	c := &Capture{log: l, hooks: process.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Install creates a Capture and installs its termination hook.
func Install(l *logger.Logger, opts ...Option) *Capture {
	return New(l, opts...).Install()
}

// Install registers the termination hook. Calling it again has no effect.
func (c *Capture) Install() *Capture {
	c.once.Do(func() {
		c.hooks.Register(HookName, c.terminate)
	})
	return c
}

// Recover logs a panic in progress with the location that raised it, flushes
// the logger and panics again with the same value. Defer it directly:
//
//	defer c.Recover()
func (c *Capture) Recover() {
	r := recover()
	if r == nil {
		return
	}
	file, line := panicSite()
	c.record(FaultFromPanic(r, file, line))
	_ = c.log.Flush()
	panic(r)
}

// Handle logs err as a fault raised by the caller. A nil err is ignored.
func (c *Capture) Handle(err error) {
	if err == nil {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	c.record(FaultFromError(err, file, line))
}

// Go runs fn in a new goroutine. A returned error is logged at fn's
// location; a panic is logged and re-raised. The channel is closed when fn
// returns.
func (c *Capture) Go(fn func() error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer c.Recover()
		if err := fn(); err != nil {
			file, line := funcLocation(fn)
			c.record(FaultFromError(err, file, line))
		}
	}()
	return done
}

// Fatal records err as the fatal fault and exits with status 1 through the
// exit hooks, which log it and flush the logger. When the hooks have already
// run, the fault is logged and flushed directly before exiting.
func (c *Capture) Fatal(err error) {
	_, file, line, _ := runtime.Caller(1)
	f := FaultFromError(err, file, line)
	if c.hooks.Ran() {
		// The termination hook will not run again.
		c.record(f)
		_ = c.log.Flush()
		c.hooks.Exit(1)
		return
	}
	c.mu.Lock()
	c.last = &f
	c.mu.Unlock()
	c.hooks.Exit(1)
}

// Last returns the fatal fault recorded by Fatal, if any.
func (c *Capture) Last() (Fault, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Fault{}, false
	}
	return *c.last, true
}

// terminate runs at exit: it logs the recorded fatal fault and flushes.
func (c *Capture) terminate() error {
	c.mu.Lock()
	f := c.last
	c.last = nil
	c.mu.Unlock()
	if f == nil {
		return nil
	}
	c.record(*f)
	return c.log.Flush()
}

func (c *Capture) record(f Fault) {
	c.log.Error(f.Body(), f.Fields())
}

func funcLocation(fn any) (string, int) {
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "", 0
	}
	return rf.FileLine(rf.Entry())
}
