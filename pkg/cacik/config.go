package cacik

// Config holds runtime settings of a run.
// Settings are merged from every source (last wins); command line flags are
// merged last and therefore always override file config.
type Config struct {
	// FailFast stops the run after the first failed scenario. Remaining
	// scenarios are not reported.
	FailFast bool

	// NoColor disables colored console output.
	NoColor bool

	// DisableLog replaces the logger with one that discards all messages.
	DisableLog bool

	// DisableReporter suppresses the console feature/scenario/step lines and
	// the summary.
	DisableReporter bool

	// Tags is a tag expression (e.g. "@smoke and not @wip") selecting the
	// scenarios to run. Empty selects all.
	Tags string

	// Logger sets a custom logger. If nil, a noop logger is used.
	Logger Logger
}

// MergeConfigs combines multiple configs into one.
// Later configs override earlier ones (last wins).
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		if cfg.FailFast {
			result.FailFast = true
		}
		if cfg.NoColor {
			result.NoColor = true
		}
		if cfg.DisableLog {
			result.DisableLog = true
		}
		if cfg.DisableReporter {
			result.DisableReporter = true
		}
		if cfg.Tags != "" {
			result.Tags = cfg.Tags
		}
		if cfg.Logger != nil {
			result.Logger = cfg.Logger
		}
	}

	return result
}

// EffectiveLogger returns the logger a run should use.
func (c *Config) EffectiveLogger() Logger {
	if c == nil || c.DisableLog || c.Logger == nil {
		return NoopLogger()
	}
	return c.Logger
}
