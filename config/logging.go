package config

import (
	"fmt"
	"os"
)

// LoggingConfig tunes the zerolog output of the service.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `koanf:"level"`
	// Env selects the output format: "dev" renders the console writer,
	// anything else emits JSON.
	Env string `koanf:"env"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level is known.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

// Apply exports the settings to the environment the logger adapters read.
func (c LoggingConfig) Apply() {
	os.Setenv("LOG_LEVEL", c.Level)
	if c.Env != "" {
		os.Setenv("APP_ENV", c.Env)
	}
}
