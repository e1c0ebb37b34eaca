package logger

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/kbukum/redkit/errors"
	"github.com/kbukum/redkit/observability"
	"github.com/kbukum/redkit/process"
)

// ExitHookName is the name of the flush hook registered with process hooks.
const ExitHookName = "redlog.flush"

// Flush appends every buffered entry to the log file in one write and empties
// the buffer. An empty buffer is a no-op. The buffer is emptied even when the
// write fails; the failure is reported and returned, and callers may ignore it.
func (l *Logger) Flush() error {
	return l.FlushContext(context.Background())
}

// FlushContext is Flush with a context for tracing.
func (l *Logger) FlushContext(ctx context.Context) error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	if len(l.buffer) == 0 {
		l.mu.Unlock()
		return nil
	}
	entries := l.buffer
	l.buffer = nil
	if l.hooks != nil {
		registry.clear(l.hooks, l)
	}
	path := l.pathLocked()
	l.mu.Unlock()

	ctx, span := l.tracer.Start(ctx, observability.SpanLogFlush, trace.WithAttributes(
		attribute.String(observability.AttrLogPath, path),
		attribute.Int(observability.AttrLogEntries, len(entries)),
	))
	defer span.End()

	start := time.Now()
	var errs error

	if err := ensureDir(path); err != nil {
		errs = multierr.Append(errs, err)
		l.flushFailed(ctx, "dir", err)
	}
	if err := appendEntries(path, entries); err != nil {
		errs = multierr.Append(errs, err)
		l.flushFailed(ctx, "write", err)
	}

	status := observability.StatusOK
	if errs != nil {
		status = observability.StatusError
		observability.SetSpanError(span, errs)
	}
	if l.metrics != nil {
		l.metrics.RecordFlush(ctx, len(entries), status, time.Since(start))
	}

	l.mu.Lock()
	l.lastErr = errs
	l.mu.Unlock()
	return errs
}

func (l *Logger) flushFailed(ctx context.Context, stage string, err error) {
	l.diag.Warn().Err(err).Str("stage", stage).Msg("log flush failed")
	if l.metrics != nil {
		l.metrics.RecordFlushFailure(ctx, stage)
	}
	if l.onError != nil {
		l.onError(err)
	}
}

func logPath(s Settings) string {
	return filepath.Join(s.Dir, s.Filename)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.LogDir(dir, err)
	}
	return nil
}

// appendEntries writes one line per entry with a single append.
func appendEntries(path string, entries []Entry) (err error) {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Format())
		b.WriteByte('\n')
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.LogWrite(path, len(entries), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.LogWrite(path, len(entries), cerr)
		}
	}()

	if _, err := f.WriteString(b.String()); err != nil {
		return errors.LogWrite(path, len(entries), err)
	}
	return nil
}

var _ observability.HealthChecker = (*Logger)(nil)

// CheckHealth reports whether the log directory is usable and whether the
// last flush succeeded. Only file mode touches the filesystem.
func (l *Logger) CheckHealth(_ context.Context) observability.Health {
	l.mu.Lock()
	h := observability.Health{
		Component:   SettingsGroup,
		Status:      observability.HealthStatusUp,
		Environment: l.env,
		Path:        l.pathLocked(),
		Mode:        l.toggles.mode(),
		Buffered:    len(l.buffer),
	}
	lastErr := l.lastErr
	l.mu.Unlock()

	if h.Mode != ModeFile {
		return h
	}
	if err := ensureDir(h.Path); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	if lastErr != nil {
		h.Status = observability.HealthStatusDegraded
		h.Message = "last flush failed"
		h.LastFlushErr = lastErr.Error()
	}
	return h
}

// flushRegistry registers one flush hook per exit-hook registry and tracks
// the loggers that hold unflushed entries. A logger joins on its first
// buffered entry and leaves when its buffer is emptied, so idle loggers are
// never referenced and can be collected.
type flushRegistry struct {
	mu      sync.Mutex
	hooked  map[*process.Hooks]bool
	pending map[*process.Hooks]map[*Logger]struct{}
}

var registry = &flushRegistry{
	hooked:  make(map[*process.Hooks]bool),
	pending: make(map[*process.Hooks]map[*Logger]struct{}),
}

// register adds the flush hook to h the first time h is seen.
func (r *flushRegistry) register(h *process.Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooked[h] {
		return
	}
	r.hooked[h] = true
	h.Register(ExitHookName, func() error { return r.flushAll(h) })
}

// mark records that l has entries to flush. Callers hold l.mu.
func (r *flushRegistry) mark(h *process.Hooks, l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.pending[h]
	if !ok {
		set = make(map[*Logger]struct{})
		r.pending[h] = set
	}
	set[l] = struct{}{}
}

// clear forgets l. Callers hold l.mu.
func (r *flushRegistry) clear(h *process.Hooks, l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.pending[h]
	delete(set, l)
	if len(set) == 0 {
		delete(r.pending, h)
	}
}

// live returns the loggers registered with h that hold unflushed entries.
func (r *flushRegistry) live(h *process.Hooks) []*Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Collect(maps.Keys(r.pending[h]))
}

func (r *flushRegistry) flushAll(h *process.Hooks) error {
	var errs error
	for _, l := range r.live(h) {
		errs = multierr.Append(errs, l.Flush())
	}
	return errs
}
