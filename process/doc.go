// Package process provides atexit-style exit hooks for Go programs.
//
// Go runs no code when main returns or os.Exit is called, so work that must
// happen "at process exit" (flushing buffered log entries, for instance) is
// registered here and triggered explicitly: by deferring RunExitHooks in
// main, by calling Exit instead of os.Exit, or by a signal handler installed
// with NotifySignals.
//
// Hooks run exactly once, in reverse registration order, and a hook that
// fails or panics never prevents the remaining hooks from running.
package process
