package gen

import (
	"errors"
	"log/slog"
	"maps"
)

// Option configures a generation run.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated artifact.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithOutDir sets the output directory.
// The directory where generated artifacts will be written. Without it
// the run stays in memory and artifacts are returned on the result.
func WithOutDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("OutDir", nil, "output directory cannot be empty")
		}
		c.OutDir = dir
		return nil
	}
}

// WithWorkers bounds the worker pool of the run.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "worker count cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithTargets selects the targets to generate for, in request order.
// Unknown names are rejected here, before any generation runs.
func WithTargets(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			if _, err := NewTarget(name); err != nil {
				return err
			}
		}
		c.Targets = append(c.Targets, names...)
		return nil
	}
}

// WithKinds selects the artifact kinds to generate, in request order.
func WithKinds(kinds ...ArtifactKind) Option {
	return func(c *Config) error {
		for _, k := range kinds {
			if !ValidKind(string(k)) {
				return NewConfigError("Kinds", k, "unknown artifact kind")
			}
		}
		c.Kinds = append(c.Kinds, kinds...)
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = append(c.Features, features...)
		return nil
	}
}

// WithFeatureNames enables features by their registered names.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		fs, err := Features(names...)
		if err != nil {
			return err
		}
		c.Features = append(c.Features, fs...)
		return nil
	}
}

// WithHooks adds generation hooks.
// Hooks wrap every generator of the run, outermost first.
func WithHooks(hooks ...Hook) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, hooks...)
		return nil
	}
}

// WithAnnotations sets global annotations.
// Annotations are accessible from all templates.
func WithAnnotations(annotations Annotations) Option {
	return func(c *Config) error {
		if c.Annotations == nil {
			c.Annotations = make(Annotations)
		}
		maps.Copy(c.Annotations, annotations)
		return nil
	}
}

// WithLogger sets the logger generation progress is reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
