// Package errors provides the structured error type used across redkit.
//
// Every failure the library surfaces (a malformed configuration layer, a log
// directory that cannot be created, an append that did not reach the disk) is
// an *AppError carrying a machine-readable code, a message, optional details
// and the underlying cause.
package errors
