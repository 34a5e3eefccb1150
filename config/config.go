package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/trackdispatch/core/factory"
	"github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/infra/mqtt"
)

type Config struct {
	Topology factory.ModuleConfig `json:"topology"`
	Snapshot SnapshotConfig       `json:"snapshot"`
	Journal  JournalConfig        `json:"journal"`
	Log      LogConfig            `json:"log"`
	Clock    ClockConfig          `json:"clock"`
	API      APIConfig            `json:"api"`
	MQTT     mqtt.Config          `json:"mqtt"`
	Metrics  metrics.Config       `json:"metrics"`
	Sentry   SentryConfig         `json:"sentry"`
}

// Load reads a YAML or JSON file and applies K_ prefixed environment
// overrides, where a double underscore separates nesting levels
// (K_API__ADDRESS sets api.address).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section's unset fields.
func (c *Config) SetDefaults() {
	if c.Topology.Type == "" {
		c.Topology.Type = "yaml"
	}
	c.Snapshot.SetDefaults()
	c.Journal.SetDefaults()
	c.Log.SetDefaults()
	c.Clock.SetDefaults()
	c.API.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var errs []error
	switch {
	case c.Topology.Type == "yaml" && c.Topology.Conf["path"] == nil:
		errs = append(errs, errors.New("topology: conf.path is required"))
	case c.Topology.Type == "http" && c.Topology.Conf["url"] == nil:
		errs = append(errs, errors.New("topology: conf.url is required"))
	}
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"snapshot", c.Snapshot}, {"journal", c.Journal}, {"log", c.Log}, {"clock", c.Clock}, {"api", c.API},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
