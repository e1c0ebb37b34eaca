package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kbukum/redkit/capture"
	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/logger"
	"github.com/kbukum/redkit/observability"
	"github.com/kbukum/redkit/process"
)

// DefaultGracefulTimeout bounds OnStop hooks and the final flush.
const DefaultGracefulTimeout = 15 * time.Second

// App represents a generic application with uniform lifecycle management.
// The type parameter C is the config type, which must satisfy the Config interface.
// Any struct embedding ServiceConfig automatically satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*MyConfig]) error {
//	    a.Logger.Info("configured", logger.Fields("workers", a.Cfg.Workers))
//	    return nil
//	})
//	app.Run(context.Background())
type App[C Config] struct {
	Name       string
	Version    string
	InstanceID string
	Cfg        C
	Config     *config.Store
	Logger     *logger.Logger
	Capture    *capture.Capture

	hooks           *process.Hooks
	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	startup         time.Duration

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// The store is loaded, decoded into cfg, defaulted and validated, and the
// logger and fault capture are set up from the result.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	o := resolveOptions(opts)

	store := o.store
	if store == nil {
		store = config.Default()
	}
	for _, dir := range o.configDirs {
		if err := store.Load(dir); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	loadOpts := []config.LoaderOption{config.WithoutValidation()}
	if o.envPrefix != "" {
		loadOpts = append(loadOpts, config.WithEnvPrefix(o.envPrefix))
	}
	if err := store.Unmarshal(cfg, loadOpts...); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	hooks := o.hooks
	if hooks == nil {
		hooks = process.Default()
	}

	app := &App[C]{
		Name:            base.App.Name,
		Version:         base.App.Version,
		InstanceID:      uuid.NewString(),
		Cfg:             cfg,
		Config:          store,
		hooks:           hooks,
		gracefulTimeout: DefaultGracefulTimeout,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise build from the store.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		lopts := append([]logger.Option{
			logger.WithSettings(base.Log),
			logger.WithExitHooks(hooks),
		}, o.loggerOpts...)
		app.Logger = logger.New(store, lopts...)
	}

	if !o.noCapture {
		app.Capture = capture.Install(app.Logger, capture.WithExitHooks(hooks))
	}
	return app, nil
}

// OnConfigure registers a callback to run during the configure phase.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// Hooks returns the exit-hook registry the app flushes on.
func (a *App[C]) Hooks() *process.Hooks {
	return a.hooks
}

// Run executes the full application lifecycle for long-running services:
// OnStart hooks, Configure, OnReady hooks, block on signal, then OnStop
// hooks and the final flush.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.report(err)
		return multierr.Append(err, a.stop())
	}

	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run, it does not block on shutdown signals: it runs task and
// shuts down when the task completes or the context is canceled
// (e.g., via SIGINT/SIGTERM).
//
// A task error is logged as a fault before the final flush. With capture
// installed a task panic is logged and flushed, then re-raised.
//
// Example:
//
//	app, _ := bootstrap.NewApp(&cfg)
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    return processData(ctx)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		a.report(err)
		return multierr.Append(err, a.stop())
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := a.runTask(taskCtx, task)
	a.report(taskErr)

	return multierr.Append(taskErr, a.stop())
}

func (a *App[C]) runTask(ctx context.Context, task func(ctx context.Context) error) error {
	if a.Capture != nil {
		defer a.Capture.Recover()
	}
	return task(ctx)
}

// start performs the common initialization sequence shared by Run and RunTask.
func (a *App[C]) start(ctx context.Context) error {
	begin := time.Now()

	a.Logger.Info("starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"instance", a.InstanceID,
		"environment", a.Config.Environment(),
	))

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.startup = time.Since(begin)
	a.DisplaySummary()
	return nil
}

// configure runs registered configuration callbacks.
func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}
	a.Logger.Start("configure", "running configuration callbacks", logger.Fields("count", len(a.onConfigure)))
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	a.Logger.End("configure", "configuration complete")
	return nil
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// Health reports the config store and the logger.
func (a *App[C]) Health(ctx context.Context) *observability.Report {
	return observability.NewReport(a.Name, a.Version, a.InstanceID).
		Check(ctx, a.Config, a.Logger)
}

// stop runs OnStop hooks and flushes the logger within the graceful timeout.
func (a *App[C]) stop() error {
	a.Logger.Info("shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.ErrorFields("shutdown", err))
		shutdownErr = err
	}

	a.Logger.Info("application shutdown complete")
	return multierr.Append(shutdownErr, a.Logger.FlushContext(ctx))
}

func (a *App[C]) report(err error) {
	if err == nil {
		return
	}
	if a.Capture != nil {
		a.Capture.Handle(err)
		return
	}
	a.Logger.Error(err.Error())
}
