package bootstrap

import (
	"time"

	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/logger"
	"github.com/kbukum/redkit/process"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	store           *config.Store
	configDirs      []string
	envPrefix       string
	logger          *logger.Logger
	loggerOpts      []logger.Option
	hooks           *process.Hooks
	gracefulTimeout *time.Duration
	noCapture       bool
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithStore uses s instead of the process-wide config store.
func WithStore(s *config.Store) Option {
	return func(o *appOptions) {
		o.store = s
	}
}

// WithConfigDir loads dir into the store on top of what it already holds.
// It may be given more than once.
func WithConfigDir(dir string) Option {
	return func(o *appOptions) {
		o.configDirs = append(o.configDirs, dir)
	}
}

// WithEnvPrefix lets PREFIX_APP_NAME style variables override typed config.
func WithEnvPrefix(prefix string) Option {
	return func(o *appOptions) {
		o.envPrefix = prefix
	}
}

// WithLogger sets a custom logger for the application.
// If not set, a logger is built from the store and the typed config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithLoggerOptions passes extra options to the logger built by NewApp.
func WithLoggerOptions(opts ...logger.Option) Option {
	return func(o *appOptions) {
		o.loggerOpts = append(o.loggerOpts, opts...)
	}
}

// WithExitHooks uses h instead of the process-wide exit-hook registry.
func WithExitHooks(h *process.Hooks) Option {
	return func(o *appOptions) {
		o.hooks = h
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithoutCapture skips installing panic and fatal-error capture.
func WithoutCapture() Option {
	return func(o *appOptions) {
		o.noCapture = true
	}
}
