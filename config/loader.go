package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/kbukum/redkit/util"
	"github.com/kbukum/redkit/validation"
)

// LoaderConfig holds dependencies and optional overrides for typed views.
type LoaderConfig struct {
	FileSystem     FileSystem
	Environment    string // Fixed environment name (optional)
	EnvFile        string // Dotenv file loaded before ENV is read (optional)
	EnvPrefix      string // Prefix for environment overrides, e.g. "APP"
	SkipValidation bool
	Diagnostics    *zerolog.Logger
}

// LoaderOption is a functional option for Unmarshal and LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithLoaderFileSystem sets a custom filesystem for LoadConfig.
func WithLoaderFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithLoaderEnvironment fixes the environment name for LoadConfig.
func WithLoaderEnvironment(name string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environment = name }
}

// WithLoaderEnvFile sets an explicit .env file path for LoadConfig.
func WithLoaderEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix enables environment overrides: key "db.host" is read from
// PREFIX_DB_HOST.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// WithoutValidation skips struct-tag validation after unmarshalling.
func WithoutValidation() LoaderOption {
	return func(lc *LoaderConfig) { lc.SkipValidation = true }
}

// WithLoaderDiagnostics routes LoadConfig's store warnings to l.
func WithLoaderDiagnostics(l zerolog.Logger) LoaderOption {
	return func(lc *LoaderConfig) { lc.Diagnostics = &l }
}

// LoadConfig loads the layers in dir into a fresh store and unmarshals the
// result into cfg.
func LoadConfig(dir string, cfg any, opts ...LoaderOption) (*Store, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	storeOpts := []Option{WithEnvironment(lc.Environment), WithEnvFile(lc.EnvFile)}
	if lc.FileSystem != nil {
		storeOpts = append(storeOpts, WithFileSystem(lc.FileSystem))
	}
	if lc.Diagnostics != nil {
		storeOpts = append(storeOpts, WithDiagnostics(*lc.Diagnostics))
	}

	s := New(storeOpts...)
	if err := s.Load(dir); err != nil {
		return s, err
	}
	return s, s.Unmarshal(cfg, opts...)
}

// Unmarshal decodes the whole store into cfg. Dotted keys address nested
// fields ("db.host" fills DB.Host via `mapstructure:"db"` / `mapstructure:"host"`),
// environment overrides are applied when a prefix is configured, and the
// result is validated with `validate` struct tags.
func (s *Store) Unmarshal(cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	if err := v.MergeConfigMap(expandKeys(s.All())); err != nil {
		return fmt.Errorf("failed to project config store: %w", err)
	}

	if lc.EnvPrefix != "" {
		v.SetEnvPrefix(lc.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if lc.SkipValidation {
		return nil
	}
	return validation.Validate(cfg)
}

// Decode decodes the group under prefix into out. An empty prefix decodes
// every entry. String values are converted to the field types where possible.
func (s *Store) Decode(prefix string, out any) error {
	var entries map[string]Value
	if prefix == "" {
		entries = s.All()
	} else {
		entries = s.Group(prefix)
	}

	input := make(map[string]any, len(entries))
	for k, v := range entries {
		input[k] = v.Interface()
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode config group %q: %w", prefix, err)
	}
	return nil
}

// expandKeys turns flat dotted keys into nested maps. Keys are applied in
// sorted order, so "db.host" is merged into (or replaces) whatever "db" held.
func expandKeys(entries map[string]Value) map[string]any {
	root := make(map[string]any)
	for _, key := range util.SortedKeys(entries) {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = entries[key].Interface()
	}
	return root
}
