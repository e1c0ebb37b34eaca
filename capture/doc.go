// Package capture turns panics, unhandled errors and fatal exits into Error
// entries of a logger.
//
// Nothing is captured until Install is called:
//
//	c := capture.Install(log)
//	defer c.Recover()
//
//	if err := run(); err != nil {
//		c.Fatal(err) // logged, flushed, exit status 1
//	}
//
// Each fault becomes one entry "[code]:message" with the file and line of its
// origin in the extra context.
package capture
