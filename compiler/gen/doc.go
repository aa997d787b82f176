// Package gen turns validated domain graphs into generated artifacts.
//
// This package is responsible for validating a loaded domain configuration
// and generating code from it: Django models and serializers, React types
// and forms, Go structs and DTOs, SQL DDL, and GraphQL schemas.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	Domain Definition (domain.yaml)
//	        ↓
//	   load.DomainConfig (parsed + schema-checked)
//	        ↓
//	   Graph (internal representation)
//	        ↓
//	   Validate (cross-entity checks)
//	        ↓
//	   Generate (target × kind × entity cells)
//	        ↓
//	   Result (artifacts + manifest)
//
// # Key Types
//
// The package provides several key types:
//
//   - Graph: Holds all Type definitions with resolved relations
//   - Type: Represents an entity with fields and edges
//   - Field: Field with type info, constraints, defaults
//   - Edge: Relationship with cascade behavior and through tables
//   - Config: Global configuration for generation
//   - Target: An output platform (django, react, golang, sql, graphql)
//   - Manifest: Ordered record of every generation cell and its outcome
//
// # Targets and Artifact Kinds
//
// Each target declares which artifact kinds it supports:
//
//	django   model, schema, ui
//	react    model, schema, ui
//	golang   model, schema
//	sql      model
//	graphql  schema (requires the "graphql" feature)
//
// A generation cell is one (entity, kind, target) triple. Cells are
// independent: a failing cell is recorded in the manifest and the run
// continues with the remaining cells.
//
// # Error Handling
//
// The package uses structured error types for better error handling:
//
//   - ConfigError: Configuration errors
//   - InvalidIdentifierError: Names that cannot be expressed on a target
//   - GenerationError: Per-cell generation errors
//   - Issue: Validation findings with a kind and severity
//
// Example error handling:
//
//	issues := gen.Validate(graph)
//	if gen.HasErrors(issues) {
//	    for _, issue := range issues {
//	        fmt.Println(issue)
//	    }
//	    return
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithOutDir("./out"),
//	    gen.WithTargets("django", "sql"),
//	)
//
// Additional options available:
//
//	config, err := gen.NewConfig(
//	    gen.WithOutDir("./out"),
//	    gen.WithFeatures(gen.FeatureGraphQL),   // Enable GraphQL target
//	    gen.WithHeader("# Custom header"),      // Custom artifact header
//	    gen.WithWorkers(4),                     // Concurrent cells
//	)
//
// # Generators
//
// Template targets (django, react, sql, graphql) render text/template
// files embedded in the binary. The golang target uses the Jennifer
// library instead of templates for:
//
//   - Auto-tracking imports (no manual import lists)
//   - Compile-time safety of the generator itself
//   - goimports-formatted output
//
// # Usage
//
// The recommended way to generate is through the graph:
//
//	graph, err := gen.NewGraph(config, domain)
//	if err != nil {
//	    return err
//	}
//	if issues := gen.Validate(graph); gen.HasErrors(issues) {
//	    return fmt.Errorf("domain is invalid")
//	}
//	result, err := gen.Generate(ctx, graph)
//
// # Code Organization
//
// The package is organized into several files:
//
//   - errors.go: Structured error types
//   - feature.go: Feature flags and definitions
//   - func.go: Template helper functions
//   - generate.go: Orchestration, manifest, worker pool
//   - golang.go: Jennifer-based Go generators
//   - graph.go: Graph type and domain processing
//   - option.go: Functional option pattern for configuration
//   - stats.go: Generation statistics and hooks
//   - target.go: Target registry and identifier checks
//   - template.go: Embedded template registry
//   - type.go: Type, Field, and Edge definitions
//   - validate.go: Cross-entity validation checks
//
// # Generated Output
//
// The generator produces the following structure:
//
//	{out}/
//	├── manifest.json           // With the "manifest" feature
//	├── django/
//	│   ├── model/{entity}.py
//	│   ├── schema/{entity}.py
//	│   └── ui/{entity}.py
//	├── react/
//	│   ├── model/{entity}.ts
//	│   ├── schema/{entity}.ts
//	│   └── ui/{entity}.tsx
//	├── golang/
//	│   ├── model/{entity}.go
//	│   └── schema/{entity}.go
//	├── sql/
//	│   └── model/{entity}.sql
//	└── graphql/
//	    └── schema/{entity}.graphql
//
// # Features
//
// The generator supports optional features that can be enabled:
//
//   - graphql: GraphQL schema generation
//   - manifest: Write manifest.json next to the artifacts
package gen
