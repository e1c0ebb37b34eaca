package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// RootEnvVar names the variable that overrides the install root.
const RootEnvVar = "REDKIT_ROOT"

var (
	defaultMu    sync.RWMutex
	defaultStore *Store
	defaultOnce  sync.Once
)

// DefaultDir returns <root>/config, where root is $REDKIT_ROOT or the
// working directory.
func DefaultDir() string {
	root := os.Getenv(RootEnvVar)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "config"
		}
		root = wd
	}
	return filepath.Join(root, "config")
}

// Default returns the process-wide store, creating it and loading
// DefaultDir on first use.
func Default() *Store {
	defaultOnce.Do(func() {
		s := New(WithDiagnostics(log.Logger))
		if err := s.Load(DefaultDir()); err != nil {
			log.Warn().Err(err).Msg("config: initial load failed")
		}
		defaultMu.Lock()
		if defaultStore == nil {
			defaultStore = s
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStore
}

// SetDefault replaces the process-wide store.
func SetDefault(s *Store) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = s
}

// Load loads dir into the default store.
func Load(dir string) error {
	return Default().Load(dir)
}

// Get reads key from the default store.
func Get(key string, def Value) Value {
	return Default().Get(key, def)
}

// Has reports whether the default store holds key.
func Has(key string) bool {
	return Default().Has(key)
}

// Set stores value under key in the default store.
func Set(key string, value Value) {
	Default().Set(key, value)
}

// Delete removes key from the default store.
func Delete(key string) {
	Default().Delete(key)
}

// Group returns the prefix group of the default store.
func Group(prefix string) map[string]Value {
	return Default().Group(prefix)
}

// All returns a snapshot of the default store.
func All() map[string]Value {
	return Default().All()
}

// Environment returns the environment of the default store.
func Environment() string {
	return Default().Environment()
}
