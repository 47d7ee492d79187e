package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatNDJSON  = "ndjson"
	FormatConsole = "console"
	FormatHTML    = "html"
)

// Config is the replay configuration. It is read from a YAML file and
// overridden by command line flags.
type Config struct {
	CID                      string   `yaml:"cid"`
	Specs                    []string `yaml:"specs"`
	TagsInTitle              bool     `yaml:"tagsInTitle"`
	FailAmbiguousDefinitions bool     `yaml:"failAmbiguousDefinitions"`
	Format                   string   `yaml:"format"`
	LogLevel                 string   `yaml:"logLevel"`
	NoColor                  bool     `yaml:"noColor"`
	MetricsAddr              string   `yaml:"metricsAddr"`
}

func DefaultConfig() *Config {
	return &Config{
		CID:      "0-0",
		Format:   FormatNDJSON,
		LogLevel: "warn",
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, nil
}

// MergeConfigs combines multiple configs into one.
// Later configs override earlier ones (last wins); zero values never override.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		if cfg.CID != "" {
			result.CID = cfg.CID
		}
		if len(cfg.Specs) > 0 {
			result.Specs = cfg.Specs
		}
		if cfg.TagsInTitle {
			result.TagsInTitle = true
		}
		if cfg.FailAmbiguousDefinitions {
			result.FailAmbiguousDefinitions = true
		}
		if cfg.Format != "" {
			result.Format = cfg.Format
		}
		if cfg.LogLevel != "" {
			result.LogLevel = cfg.LogLevel
		}
		if cfg.NoColor {
			result.NoColor = true
		}
		if cfg.MetricsAddr != "" {
			result.MetricsAddr = cfg.MetricsAddr
		}
	}

	return result
}

// Validate checks the output format and the log level.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatNDJSON, FormatConsole, FormatHTML:
	default:
		return fmt.Errorf("unknown format %q, expected one of %s, %s, %s", c.Format, FormatNDJSON, FormatConsole, FormatHTML)
	}
	_, err := c.Level()
	return err
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
