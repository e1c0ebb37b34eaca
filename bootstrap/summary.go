package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/redkit/logger"
)

// Summary describes the running application at the end of startup.
type Summary struct {
	Service         string
	Version         string
	InstanceID      string
	Environment     string
	ConfigDirs      []string
	ConfigKeys      int
	LogPath         string
	LogMode         string
	Capture         bool
	StartupDuration time.Duration
}

// Summary collects the current startup summary.
func (a *App[C]) Summary() Summary {
	return Summary{
		Service:         a.Name,
		Version:         a.Version,
		InstanceID:      a.InstanceID,
		Environment:     a.Config.Environment(),
		ConfigDirs:      a.Config.Dirs(),
		ConfigKeys:      len(a.Config.All()),
		LogPath:         a.Logger.Path(),
		LogMode:         a.Logger.Mode(),
		Capture:         a.Capture != nil,
		StartupDuration: a.startup,
	}
}

// DisplaySummary records the startup summary through the application logger.
func (a *App[C]) DisplaySummary() {
	s := a.Summary()
	a.Logger.Info("startup summary", s.Fields())
}

// Fields returns s as log fields.
func (s Summary) Fields() map[string]any {
	return logger.Fields(
		"service", s.Service,
		"version", s.Version,
		"instance", s.InstanceID,
		"environment", s.Environment,
		"config_dirs", s.ConfigDirs,
		"config_keys", s.ConfigKeys,
		"log_path", s.LogPath,
		"log_mode", s.LogMode,
		"capture", s.Capture,
		"startup_ms", s.StartupDuration.Milliseconds(),
	)
}

// String renders s as an aligned, human-readable block.
func (s Summary) String() string {
	var b strings.Builder
	row := func(k string, v any) {
		fmt.Fprintf(&b, "  %-12s %v\n", k, v)
	}
	fmt.Fprintf(&b, "%s %s\n", s.Service, s.Version)
	row("instance", s.InstanceID)
	row("environment", s.Environment)
	row("config", strings.Join(s.ConfigDirs, ", "))
	row("keys", s.ConfigKeys)
	row("log", s.LogPath+" ("+s.LogMode+")")
	row("capture", s.Capture)
	row("startup", s.StartupDuration.Round(time.Millisecond))
	return b.String()
}
