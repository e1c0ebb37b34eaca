package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/redkit/observability"
	"github.com/kbukum/redkit/process"
)

// Option configures a Logger.
type Option func(*options)

type options struct {
	settings Settings
	toggles  *Toggles
	env      string
	now      func() time.Time
	stdout   io.Writer
	onError  func(error)
	diag     zerolog.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
	hooks    *process.Hooks
}

// WithSettings overrides the settings read from the config store.
func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = o.settings.Merge(s) }
}

// WithToggles replaces the RED_LOG_* environment toggles.
func WithToggles(t Toggles) Option {
	return func(o *options) { o.toggles = &t }
}

// WithEnvironment fixes the environment name instead of taking the store's.
func WithEnvironment(name string) Option {
	return func(o *options) { o.env = name }
}

// WithClock sets the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStdout sets the writer used in stdout mode (os.Stdout by default).
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithErrorHandler receives I/O failures that logging calls swallow.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithDiagnostics routes the logger's own warnings to l.
func WithDiagnostics(l zerolog.Logger) Option {
	return func(o *options) { o.diag = l }
}

// WithMetrics records entry and flush metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer traces flushes with t instead of the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithExitHooks registers the exit flush with h instead of the process-wide
// registry.
func WithExitHooks(h *process.Hooks) Option {
	return func(o *options) { o.hooks = h }
}
