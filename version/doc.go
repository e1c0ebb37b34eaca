// Package version reports the build version of the redkit binary.
//
// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/redkit/version.Version=1.0.0"
//
// When Commit is not set, the VCS stamp embedded by the Go toolchain is used.
package version
