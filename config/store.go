package config

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/kbukum/redkit/observability"
)

// DefaultEnvironment is used when ENV is unset or empty.
const DefaultEnvironment = "production"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	LoadEnv(path string) error
	Getwd() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// environmentVars is the process environment consulted at construction.
type environmentVars struct {
	Env string `env:"ENV" envDefault:"production"`
}

// Store is a flat, layered key/value configuration map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Value
	env     string
	dirs    []string
	fs      FileSystem
	diag    zerolog.Logger
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	environment string
	envFile     string
	fs          FileSystem
	diag        zerolog.Logger
}

// WithEnvironment fixes the environment name instead of reading ENV.
func WithEnvironment(name string) Option {
	return func(o *storeOptions) { o.environment = name }
}

// WithEnvFile loads a dotenv file into the process environment before ENV is
// read. Variables already set are not overridden.
func WithEnvFile(path string) Option {
	return func(o *storeOptions) { o.envFile = path }
}

// WithFileSystem sets a custom filesystem for layer discovery and reads.
func WithFileSystem(fs FileSystem) Option {
	return func(o *storeOptions) { o.fs = fs }
}

// WithDiagnostics routes the store's own warnings to l.
func WithDiagnostics(l zerolog.Logger) Option {
	return func(o *storeOptions) { o.diag = l }
}

// New creates an empty store. The environment is fixed here for the
// lifetime of the store.
func New(opts ...Option) *Store {
	o := storeOptions{
		fs:   &RealFileSystem{},
		diag: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if !o.fs.Exists(o.envFile) {
			o.diag.Debug().Str("file", o.envFile).Msg("env file not found")
		} else if err := o.fs.LoadEnv(o.envFile); err != nil {
			o.diag.Warn().Err(err).Str("file", o.envFile).Msg("failed to load env file")
		}
	}

	name := strings.TrimSpace(o.environment)
	if name == "" {
		name = resolveEnvironment(o.diag)
	}

	return &Store{
		entries: make(map[string]Value),
		env:     name,
		fs:      o.fs,
		diag:    o.diag,
	}
}

// ResolveEnvironment reads ENV the way New does, without building a store.
func ResolveEnvironment() string {
	return resolveEnvironment(zerolog.Nop())
}

func resolveEnvironment(diag zerolog.Logger) string {
	vars, err := env.ParseAs[environmentVars]()
	if err != nil {
		diag.Warn().Err(err).Msg("failed to parse environment, using default")
		return DefaultEnvironment
	}
	if name := strings.TrimSpace(vars.Env); name != "" {
		return name
	}
	return DefaultEnvironment
}

// Load merges the layers found in dir into the store: default, then the
// environment layer, then local. A missing directory or layer is skipped.
// A layer that cannot be decoded aborts the load and leaves the store as it
// was.
func (s *Store) Load(dir string) error {
	abs, ok := s.resolveDir(dir)
	if !ok {
		s.diag.Debug().Str("dir", dir).Msg("config directory not found")
		return nil
	}

	merged := make(map[string]Value)
	for _, name := range s.layerNames() {
		layer, path, err := readLayer(s.fs, abs, name)
		if err != nil {
			s.diag.Warn().Err(err).Str("file", path).Msg("failed to load config layer")
			return err
		}
		if layer == nil {
			continue
		}
		maps.Copy(merged, layer)
		s.diag.Debug().Str("file", path).Int("keys", len(layer)).Msg("config layer loaded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.entries, merged)
	s.dirs = append(s.dirs, abs)
	return nil
}

func (s *Store) resolveDir(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	abs := dir
	if !filepath.IsAbs(abs) {
		wd, err := s.fs.Getwd()
		if err != nil {
			return "", false
		}
		abs = filepath.Join(wd, abs)
	}
	abs = filepath.Clean(abs)
	if !s.fs.Exists(abs) {
		return "", false
	}
	return abs, true
}

func (s *Store) layerNames() []string {
	return []string{DefaultLayer, s.env, LocalLayer}
}

// Dirs returns the absolute directories loaded so far, in load order.
func (s *Store) Dirs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.dirs...)
}

var _ observability.HealthChecker = (*Store)(nil)

// CheckHealth reports the environment and key count. The store is degraded
// when a directory it loaded has since disappeared.
func (s *Store) CheckHealth(_ context.Context) observability.Health {
	s.mu.RLock()
	h := observability.Health{
		Component:   "config",
		Status:      observability.HealthStatusUp,
		Environment: s.env,
		Keys:        len(s.entries),
	}
	dirs := slices.Clone(s.dirs)
	s.mu.RUnlock()

	if len(dirs) > 0 {
		h.Path = dirs[len(dirs)-1]
	}
	for _, dir := range dirs {
		if !s.fs.Exists(dir) {
			h.Status = observability.HealthStatusDegraded
			h.Message = "config directory missing: " + dir
			h.Path = dir
			break
		}
	}
	return h
}

// Environment returns the environment name fixed at construction.
func (s *Store) Environment() string {
	return s.env
}

// Get returns the value stored under key, or def if the key is absent.
func (s *Store) Get(key string, def Value) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.entries[key]; ok {
		return v
	}
	return def
}

// Lookup returns the value stored under key and whether it exists.
func (s *Store) Lookup(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Set stores value under key.
func (s *Store) Set(key string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Group returns the entries whose key starts with prefix + ".", with that
// prefix removed. The result is independent of the store.
func (s *Store) Group(prefix string) map[string]Value {
	p := prefix + "."
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Value)
	for k, v := range s.entries {
		if rest, ok := strings.CutPrefix(k, p); ok {
			out[rest] = v
		}
	}
	return out
}

// All returns a snapshot of every entry.
func (s *Store) All() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

// GetString returns key as a string, converting scalars, or def.
func (s *Store) GetString(key, def string) string {
	v, ok := s.Lookup(key)
	if !ok || v.IsNull() {
		return def
	}
	if str, ok := v.AsString(); ok {
		return str
	}
	out, err := cast.ToStringE(v.Interface())
	if err != nil {
		return def
	}
	return out
}

// GetInt returns key as an int, converting numeric strings, or def.
func (s *Store) GetInt(key string, def int) int {
	v, ok := s.Lookup(key)
	if !ok {
		return def
	}
	out, err := cast.ToIntE(v.Interface())
	if err != nil {
		return def
	}
	return out
}

// GetBool returns key as a bool, converting "true"/"1"-style strings, or def.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok := s.Lookup(key)
	if !ok {
		return def
	}
	out, err := cast.ToBoolE(v.Interface())
	if err != nil {
		return def
	}
	return out
}
