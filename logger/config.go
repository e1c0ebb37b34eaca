package logger

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/util"
)

// Defaults and limits.
const (
	// SettingsGroup is the config group holding logger settings.
	SettingsGroup   = "redlog"
	DefaultFilename = "app.log"
	DefaultLabel    = "DEFAULT"
	// LabelWidth is the maximum label length in runes.
	LabelWidth = 10
	// Production is the environment where Debug entries are dropped by default.
	Production = "production"
)

// Settings contains the file and label configuration of a Logger.
type Settings struct {
	Dir      string `yaml:"dir" json:"dir" mapstructure:"dir"`
	Filename string `yaml:"filename" json:"filename" mapstructure:"filename"`
	Label    string `yaml:"label" json:"label" mapstructure:"label"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{Filename: DefaultFilename, Label: DefaultLabel}
}

// Merge returns s with every non-empty field of o applied on top.
func (s Settings) Merge(o Settings) Settings {
	return Settings{
		Dir:      util.Coalesce(o.Dir, s.Dir),
		Filename: util.Coalesce(o.Filename, s.Filename),
		Label:    util.Coalesce(o.Label, s.Label),
	}
}

// SettingsFrom reads the redlog group of store.
func SettingsFrom(store *config.Store) (Settings, error) {
	var s Settings
	if err := store.Decode(SettingsGroup, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to read %s settings: %w", SettingsGroup, err)
	}
	return s, nil
}

// Toggles are the environment switches read when a Logger is built.
type Toggles struct {
	Debug    bool
	Stdout   bool
	Disabled bool
}

// Output modes.
const (
	ModeFile     = "file"
	ModeStdout   = "stdout"
	ModeDisabled = "disabled"
)

func (t Toggles) mode() string {
	switch {
	case t.Disabled:
		return ModeDisabled
	case t.Stdout:
		return ModeStdout
	}
	return ModeFile
}

type toggleVars struct {
	Debug    string `env:"RED_LOG_DEBUG"`
	Stdout   string `env:"RED_LOG_STDOUT"`
	Disabled string `env:"RED_LOG_DISABLED"`
}

// TogglesFromEnv reads RED_LOG_DEBUG, RED_LOG_STDOUT and RED_LOG_DISABLED.
// A toggle is on when its variable is set to anything but "", "0" or "false".
func TogglesFromEnv() Toggles {
	vars, err := env.ParseAs[toggleVars]()
	if err != nil {
		return Toggles{}
	}
	return Toggles{
		Debug:    util.Truthy(vars.Debug),
		Stdout:   util.Truthy(vars.Stdout),
		Disabled: util.Truthy(vars.Disabled),
	}
}
