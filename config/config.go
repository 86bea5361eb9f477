// Package config loads the service configuration from a file with
// environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fieldops/fieldsched/core/schedule"
	"github.com/fieldops/fieldsched/core/suggest"
	"github.com/fieldops/fieldsched/core/validate"
	"github.com/fieldops/fieldsched/infra/notify"
)

// Config is the root of the service configuration.
type Config struct {
	Engine    schedule.Config `koanf:"engine"`
	Validator validate.Config `koanf:"validator"`
	Suggest   suggest.Config  `koanf:"suggest"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Notify    NotifyConfig    `koanf:"notify"`
	Logging   LoggingConfig   `koanf:"logging"`
	// CommitLogLimit bounds the in-memory commit log.
	CommitLogLimit int `koanf:"commit_log_limit"`
}

// MetricsConfig selects the metrics sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `koanf:"prometheus_enabled"`
	InfluxURL         string `koanf:"influx_url"`
	InfluxToken       string `koanf:"influx_token"`
	InfluxOrg         string `koanf:"influx_org"`
	InfluxBucket      string `koanf:"influx_bucket"`
}

// NotifyConfig enables the assignment publisher.
type NotifyConfig struct {
	Enabled bool          `koanf:"enabled"`
	MQTT    notify.Config `koanf:"mqtt"`
}

// Load reads the configuration file (yaml or json) and applies FS_
// environment overrides. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides: FS_ENGINE__SPEED_MPH=50 maps to
	// engine.speed_mph.
	if err := k.Load(env.Provider("FS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.Validator.SetDefaults()
	cfg.Suggest.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Notify.MQTT.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if cfg.Notify.Enabled && cfg.Notify.MQTT.Broker == "" {
		return nil, fmt.Errorf("config: notify enabled without a broker")
	}
	return &cfg, nil
}
