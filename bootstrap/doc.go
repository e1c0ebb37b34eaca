// Package bootstrap wires the config store, the buffered logger and fault
// capture into one application lifecycle.
//
// # Quick Start
//
//	type MyConfig struct {
//	    bootstrap.ServiceConfig `mapstructure:",squash"`
//	}
//
//	app, err := bootstrap.NewApp(&MyConfig{}, bootstrap.WithConfigDir("config"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer process.RunExitHooks()
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    app.Logger.Info("working")
//	    return nil
//	})
//
// NewApp decodes the store into the typed config, builds the logger from the
// redlog group and installs capture on the same exit-hook registry, so a
// fatal fault is logged and the buffer flushed exactly once.
package bootstrap
