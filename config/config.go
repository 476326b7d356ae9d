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

	"github.com/kilianp07/posched/core/metrics"
	"github.com/kilianp07/posched/internal/validate"
)

type Config struct {
	Solver    SolverConfig    `json:"solver"`
	Horizon   HorizonConfig   `json:"horizon"`
	Objective ObjectiveConfig `json:"objective"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   metrics.Config  `json:"metrics"`
	Output    OutputConfig    `json:"output"`
	Sentry    SentryConfig    `json:"sentry"`
}

// Load reads path, applies K_ environment overrides, defaults and
// validation. An empty path loads defaults and environment only.
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

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Solver.SetDefaults()
	c.Horizon.SetDefaults()
	c.Objective.SetDefaults()
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks struct tags first, then cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Logging.Validate()
}
