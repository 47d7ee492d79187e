package reporter

import "github.com/denizgursoy/cacik-reporter/pkg/cacik"

// Option configures a Reporter.
type Option func(*Reporter)

// WithTagsInTitle prefixes suite titles with their joined tag names.
func WithTagsInTitle(enabled bool) Option {
	return func(r *Reporter) {
		r.tagsInTitle = enabled
	}
}

// WithFailAmbiguousDefinitions reports ambiguous steps with the runner's
// own exception message instead of the generic ambiguity message.
func WithFailAmbiguousDefinitions(enabled bool) Option {
	return func(r *Reporter) {
		r.failAmbiguousDefinitions = enabled
	}
}

// WithSpecs sets the spec file paths of the run. The first one is used as
// file for events without a source URI.
func WithSpecs(specs ...string) Option {
	return func(r *Reporter) {
		r.specs = specs
	}
}

func WithLogger(logger cacik.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(r *Reporter) {
		r.metrics = metrics
	}
}
