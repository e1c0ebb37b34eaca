// Package logger provides buffered application logging with named timers
// and flushing at process exit.
//
// Entries are kept in memory and appended to <dir>/<filename> in one write
// when Flush is called or when the process exits through the process package
// hooks. With RED_LOG_STDOUT set, entries are written to standard output
// immediately instead.
//
// # Configuration
//
//	redlog.dir: "/var/log/myapp"
//	redlog.filename: "app.log"
//	redlog.label: "api"
//
// Environment toggles: RED_LOG_DEBUG enables Debug entries in production,
// RED_LOG_STDOUT switches to stdout mode and RED_LOG_DISABLED turns logging
// off.
//
// # Usage
//
//	log := logger.New(store)
//	defer process.RunExitHooks()
//
//	log.Start("import", "importing users")
//	log.Info("user created", logger.Fields("id", 42))
//	log.End("import", "done")
//
// Output line:
//
//	(API)      2024-01-02 15:04:05 <I> user created "{\"id\":42}" +3ms
package logger
