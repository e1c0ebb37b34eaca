package bootstrap

import (
	"github.com/kbukum/redkit/logger"
	"github.com/kbukum/redkit/util"
	"github.com/kbukum/redkit/validation"
)

// Config is the interface constraint for application configuration types.
// Any struct embedding ServiceConfig satisfies it via promoted methods.
//
// Example:
//
//	type MyConfig struct {
//	    bootstrap.ServiceConfig `mapstructure:",squash"`
//	    Workers int `mapstructure:"workers"`
//	}
//
//	app, err := bootstrap.NewApp(&MyConfig{})
type Config interface {
	GetServiceConfig() *ServiceConfig
	ApplyDefaults()
	Validate() error
}

// AppInfo identifies the application ("app.name", "app.version").
type AppInfo struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required"`
	Version string `yaml:"version" mapstructure:"version"`
}

// ServiceConfig holds the settings every application shares.
type ServiceConfig struct {
	App AppInfo         `yaml:"app" mapstructure:"app"`
	Log logger.Settings `yaml:"redlog" mapstructure:"redlog"`
}

// DefaultVersion is used when app.version is not configured.
const DefaultVersion = "0.0.0"

// GetServiceConfig returns c.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults fills unset fields.
func (c *ServiceConfig) ApplyDefaults() {
	c.App.Version = util.Coalesce(c.App.Version, DefaultVersion)
	c.Log = logger.DefaultSettings().Merge(c.Log)
}

// Validate checks the struct tags of c.
func (c *ServiceConfig) Validate() error {
	return validation.Validate(c)
}
