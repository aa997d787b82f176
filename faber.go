// Package faber generates source artifacts from declarative domain
// configs. A config names the entities, fields, and relationships of a
// business domain; the engine validates it and renders data models,
// API schemas, and UI components for every requested target stack.
//
// The root package is the facade over the compiler packages: Load and
// Parse produce a checked load.DomainConfig, Validate reports its
// structural issues, and Generate runs the full pipeline and returns
// the run manifest together with the rendered artifacts.
package faber

import (
	"context"
	"io"
	"log/slog"

	"github.com/syssam/faber/compiler/gen"
	"github.com/syssam/faber/compiler/load"
)

// Load reads and checks the domain config stored at path.
func Load(path string) (*load.DomainConfig, error) {
	return load.ParseFile(path)
}

// Parse reads one YAML domain config from r.
func Parse(r io.Reader) (*load.DomainConfig, error) {
	return load.Parse(r)
}

// ParseBytes is like Parse but reads from a byte slice.
func ParseBytes(b []byte) (*load.DomainConfig, error) {
	return load.ParseBytes(b)
}

// Validate runs the structural checks over the domain config and
// returns the complete issue report, warnings included. An empty
// report means the config generates cleanly on every target.
func Validate(domain *load.DomainConfig) ([]gen.Issue, error) {
	g, err := gen.NewGraph(&gen.Config{}, domain)
	if err != nil {
		return nil, err
	}
	return gen.Validate(g), nil
}

// ValidateFile is like Validate but loads the domain config from a
// file first.
func ValidateFile(path string) ([]gen.Issue, error) {
	domain, err := load.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(domain)
}

// Generate runs the pipeline over the domain config: graph
// construction, validation, and artifact generation. Blocking issues
// stop the run before any cell starts and come back wrapped in a
// ValidationFailedError; warnings are logged and do not block. When
// cells fail while siblings succeed, Generate returns the result
// together with a PartialFailureError, so the caller keeps the
// manifest and every artifact that did render.
func Generate(ctx context.Context, domain *load.DomainConfig, opts ...gen.Option) (*gen.Result, error) {
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := gen.NewGraph(c, domain)
	if err != nil {
		return nil, err
	}
	issues := gen.Validate(g)
	if gen.HasErrors(issues) {
		return nil, NewValidationFailedError(issues)
	}
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	for _, i := range issues {
		log.Warn("domain config issue",
			"kind", i.Kind,
			"entity", i.Entity,
			"message", i.Message,
		)
	}
	res, err := gen.Generate(ctx, g)
	if err != nil {
		return nil, err
	}
	if failed := res.Manifest.Failed(); len(failed) > 0 {
		return res, NewPartialFailureError(res.Manifest)
	}
	return res, nil
}

// GenerateFile is like Generate but loads the domain config from a
// file first.
func GenerateFile(ctx context.Context, path string, opts ...gen.Option) (*gen.Result, error) {
	domain, err := load.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Generate(ctx, domain, opts...)
}
