package gen

import (
	"log/slog"
	"runtime"

	"github.com/syssam/faber/compiler/load"
)

type (
	// Config holds the global configuration of a generation run.
	// It is shared read-only by every type in the graph.
	Config struct {
		// OutDir is the directory tree artifacts are written into.
		// Empty keeps the run in memory.
		OutDir string
		// Workers bounds the number of generation cells running
		// concurrently. Zero falls back to the number of CPUs.
		Workers int
		// Targets holds the requested target names in request order.
		Targets []string
		// Kinds holds the requested artifact kinds in request order.
		Kinds []ArtifactKind
		// Features toggles optional generation capabilities.
		Features []Feature
		// Hooks wrap every generator, outermost first.
		Hooks []Hook
		// Header overrides the header comment of generated artifacts.
		Header string
		// Annotations are global values accessible from all templates.
		Annotations Annotations
		// Logger reports generation progress. Nil means slog.Default.
		Logger *slog.Logger
	}

	// Annotations are global key/value pairs exposed to the templates.
	Annotations map[string]any

	// Graph holds the types of a loaded domain config with their
	// relationship edges resolved.
	Graph struct {
		*Config
		// Domain holds the domain config the graph was built from.
		Domain *load.DomainConfig
		// Nodes holds the graph types in declaration order. The order
		// is the deterministic generation order.
		Nodes []*Type
	}
)

// log returns the configured logger, or the process default.
func (c *Config) log() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// workers returns the worker pool bound of the run.
func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// FeatureEnabled reports if the given feature was enabled on the config.
func (c *Config) FeatureEnabled(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// NewGraph creates the generation graph for the given domain config.
// Every declared entity becomes a node, in declaration order, and every
// relationship field becomes an edge. The graph keeps the domain as
// declared: duplicate entity names and dangling relationship targets
// survive construction so the validation pass can report all of them.
func NewGraph(c *Config, domain *load.DomainConfig) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if domain == nil {
		return nil, NewConfigError("Domain", nil, "domain config cannot be nil")
	}
	g := &Graph{
		Config: c,
		Domain: domain,
		Nodes:  make([]*Type, 0, len(domain.Entities)),
	}
	for _, entity := range domain.Entities {
		typ, err := NewType(c, entity)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, typ)
	}
	g.resolve()
	return g, nil
}

// resolve binds every relationship edge to its referenced type. Lookup
// is by declared entity name. When entity names collide, the first
// declaration wins, keeping resolution deterministic; the collision
// itself is reported by the validation pass.
func (g *Graph) resolve() {
	byName := make(map[string]*Type, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := byName[n.Name]; !ok {
			byName[n.Name] = n
		}
	}
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			e.Type = byName[e.Field.RelatedEntity]
		}
	}
}
