// Package app wires the bot: configuration, storage, services, flows and
// the Telegram runtime.
package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
	"github.com/m3rciful/taskbot/notify"
)

// Config is the full bot configuration: the shared core sections plus the
// database and reminder settings.
type Config struct {
	Core     coreconfig.Config     `yaml:",inline"`
	Database coredatabase.Config   `yaml:"database"`
	Reminder notify.ReminderConfig `yaml:"reminder"`

	path string
}

// LoadConfig reads the YAML file, applies environment overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}

	cfg.path = path
	return &cfg, nil
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}
