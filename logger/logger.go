package logger

import (
	"context"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/observability"
	"github.com/kbukum/redkit/process"
)

// Logger buffers entries in memory and appends them to its log file on flush.
// In stdout mode entries are written immediately and never buffered.
type Logger struct {
	mu       sync.Mutex
	settings Settings
	toggles  Toggles
	env      string
	buffer   []Entry
	timers   map[string]time.Time
	last     time.Time
	lastErr  error
	closed   bool

	// flushMu keeps concurrent flushes in buffer order.
	flushMu sync.Mutex

	now     func() time.Time
	stdout  writer
	onError func(error)
	diag    zerolog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	hooks   *process.Hooks
}

// New creates a logger. Settings are the built-in defaults, then the redlog
// group of src (may be nil), then WithSettings. The first logger created for
// an exit-hook registry registers the flush hook with it.
func New(src *config.Store, opts ...Option) *Logger {
	o := options{
		diag:  zerolog.Nop(),
		now:   time.Now,
		hooks: process.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	settings := DefaultSettings()
	if src != nil {
		fromStore, err := SettingsFrom(src)
		if err != nil {
			o.diag.Warn().Err(err).Msg("ignoring invalid logger settings")
		} else {
			settings = settings.Merge(fromStore)
		}
	}
	settings = settings.Merge(o.settings)
	settings.Label = NormalizeLabel(settings.Label)

	envName := o.env
	if envName == "" {
		if src != nil {
			envName = src.Environment()
		} else {
			envName = config.ResolveEnvironment()
		}
	}

	toggles := TogglesFromEnv()
	if o.toggles != nil {
		toggles = *o.toggles
	}

	l := &Logger{
		settings: settings,
		toggles:  toggles,
		env:      envName,
		timers:   make(map[string]time.Time),
		now:      o.now,
		stdout:   newWriter(o.stdout),
		onError:  o.onError,
		diag:     o.diag,
		metrics:  o.metrics,
		tracer:   o.tracer,
		hooks:    o.hooks,
	}
	if l.tracer == nil {
		l.tracer = observability.Tracer(observability.TracerName)
	}
	if l.hooks != nil {
		registry.register(l.hooks)
	}
	return l
}

// Info records an Info entry. msg may be any value; non-strings are JSON
// encoded. A "label" string in fields overrides the entry label.
func (l *Logger) Info(msg any, fields ...map[string]any) {
	l.log(LevelInfo, serialize(msg), mergeFields(fields))
}

// Debug records a Debug entry. In production it is dropped unless
// RED_LOG_DEBUG is set.
func (l *Logger) Debug(msg any, fields ...map[string]any) {
	l.log(LevelDebug, serialize(msg), mergeFields(fields))
}

// Warn records a Warn entry.
func (l *Logger) Warn(msg any, fields ...map[string]any) {
	l.log(LevelWarn, serialize(msg), mergeFields(fields))
}

// Error records an Error entry.
func (l *Logger) Error(msg any, fields ...map[string]any) {
	l.log(LevelError, serialize(msg), mergeFields(fields))
}

// Log records an entry at level.
func (l *Logger) Log(level Level, msg any, fields ...map[string]any) {
	l.log(level, serialize(msg), mergeFields(fields))
}

// Start records the current time under tag and logs "text [tag/0ms]".
// Starting a running tag restarts it.
func (l *Logger) Start(tag, text string, fields ...map[string]any) {
	l.mu.Lock()
	l.timers[tag] = l.now()
	err := l.record(LevelInfo, timerBody(text, tag, 0), mergeFields(fields))
	l.mu.Unlock()
	l.report(err)
}

// End stops the timer for tag and logs "text [tag/<n>ms]". An unknown tag
// logs 0ms.
func (l *Logger) End(tag, text string, fields ...map[string]any) {
	l.mu.Lock()
	var ms int64
	if started, ok := l.timers[tag]; ok {
		delete(l.timers, tag)
		ms = millis(l.now().Sub(started))
	}
	err := l.record(LevelInfo, timerBody(text, tag, ms), mergeFields(fields))
	l.mu.Unlock()
	l.report(err)
}

func timerBody(text, tag string, ms int64) string {
	marker := "[" + tag + "/" + strconv.FormatInt(ms, 10) + "ms]"
	if text == "" {
		return marker
	}
	return text + " " + marker
}

func (l *Logger) log(level Level, body string, extra map[string]any) {
	l.mu.Lock()
	err := l.record(level, body, extra)
	l.mu.Unlock()
	l.report(err)
}

// record builds and stores one entry. Callers hold l.mu.
func (l *Logger) record(level Level, body string, extra map[string]any) error {
	if l.toggles.Disabled {
		return nil
	}
	if level == LevelDebug && l.env == Production && !l.toggles.Debug {
		return nil
	}

	now := l.now()
	var elapsed int64
	if !l.last.IsZero() {
		elapsed = millis(now.Sub(l.last))
	}
	l.last = now

	label := l.settings.Label
	if s, ok := extra[FieldLabel].(string); ok && s != "" {
		label = NormalizeLabel(s)
	}

	e := Entry{
		Label:   label,
		Time:    now,
		Level:   level,
		Body:    body,
		Elapsed: elapsed,
		Extra:   serializeExtra(extra),
	}

	if l.toggles.Stdout {
		if l.metrics != nil {
			l.metrics.RecordEntry(context.Background(), level.String(), label, false)
		}
		return l.stdout.writeLine(e.Format())
	}

	l.buffer = append(l.buffer, e)
	if len(l.buffer) == 1 && l.hooks != nil && !l.closed {
		registry.mark(l.hooks, l)
	}
	if l.metrics != nil {
		l.metrics.RecordEntry(context.Background(), level.String(), label, true)
	}
	return nil
}

// millis rounds d to whole milliseconds, never below zero.
func millis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Round(float64(d) / float64(time.Millisecond)))
}

// SetLabel sets the label of later entries that carry no override.
func (l *Logger) SetLabel(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.Label = NormalizeLabel(label)
}

// Config returns the current settings.
func (l *Logger) Config() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// Configure merges the non-empty fields of s into the current settings.
func (l *Logger) Configure(s Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = l.settings.Merge(s)
	l.settings.Label = NormalizeLabel(l.settings.Label)
}

// Environment returns the environment the logger gates Debug entries on.
func (l *Logger) Environment() string {
	return l.env
}

// Toggles returns the toggles fixed at construction.
func (l *Logger) Toggles() Toggles {
	return l.toggles
}

// Mode returns where entries go: ModeFile, ModeStdout or ModeDisabled.
func (l *Logger) Mode() string {
	return l.toggles.mode()
}

// Path returns the log file path, creating its directory if needed.
func (l *Logger) Path() string {
	l.mu.Lock()
	path := l.pathLocked()
	l.mu.Unlock()
	if err := ensureDir(path); err != nil {
		l.report(err)
	}
	return path
}

func (l *Logger) pathLocked() string {
	return logPath(l.settings)
}

// Entries returns a copy of the buffered entries in flush order.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.buffer)
}

// Len returns the number of buffered entries.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Close flushes the buffer and stops the exit hook from flushing l.
func (l *Logger) Close() error {
	err := l.Flush()
	l.mu.Lock()
	l.closed = true
	if l.hooks != nil {
		registry.clear(l.hooks, l)
	}
	l.mu.Unlock()
	return err
}

// report hands a swallowed failure to the error handler.
func (l *Logger) report(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
	if l.onError != nil {
		l.onError(err)
	}
}

// writer serializes stdout-mode lines. Loggers writing to os.Stdout share
// one lock.
type writer struct {
	mu  *sync.Mutex
	out io.Writer
}

var stdoutMu sync.Mutex

func newWriter(w io.Writer) writer {
	if w == nil {
		return writer{mu: &stdoutMu, out: os.Stdout}
	}
	return writer{mu: new(sync.Mutex), out: w}
}

func (w writer) writeLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.out.Write([]byte(line + "\n"))
	return err
}
