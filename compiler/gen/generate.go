package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Generator produces the artifact bytes of one entity. Generators are
// pure: equal inputs yield byte-identical output, and no generator
// mutates the graph it renders.
type Generator interface {
	Generate(*Type) ([]byte, error)
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(*Type) ([]byte, error)

// Generate calls f(t).
func (f GenerateFunc) Generate(t *Type) ([]byte, error) { return f(t) }

// Hook wraps a generator with cross-cutting behavior. Hooks run in
// declaration order, the first hook being the outermost wrapper.
type Hook func(Generator) Generator

// Status is the terminal state of one manifest entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Cell is one unit of generation work: one entity rendered as one
// artifact kind on one target.
type Cell struct {
	Entity string       `json:"entity"`
	Kind   ArtifactKind `json:"artifact_kind"`
	Target string       `json:"target"`
}

func (c Cell) String() string {
	return c.Entity + "/" + string(c.Kind) + "/" + c.Target
}

// Entry is the manifest record of one cell. Path is set only when the
// cell produced an artifact.
type Entry struct {
	Cell
	Status Status `json:"status"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Manifest is the authoritative record of one generation run. Entries
// appear in plan order, entities as declared, kinds in canonical
// order, targets in request order, so equal runs produce manifests
// with identical ordering.
type Manifest struct {
	RunID   string        `json:"run_id"`
	Domain  string        `json:"domain"`
	Version string        `json:"version,omitempty"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
	Entries []Entry       `json:"entries"`
}

// Failed returns the entries that did not produce an artifact.
func (m *Manifest) Failed() []Entry {
	var failed []Entry
	for _, e := range m.Entries {
		if e.Status == StatusFailure {
			failed = append(failed, e)
		}
	}
	return failed
}

// OK reports if every cell of the run succeeded.
func (m *Manifest) OK() bool { return len(m.Failed()) == 0 }

// Result carries the manifest of one run and the rendered artifacts
// keyed by their conventional output path.
type Result struct {
	Manifest  *Manifest
	Artifacts map[string][]byte
}

// planned pairs a manifest cell with everything needed to run it.
type planned struct {
	cell Cell
	typ  *Type
	tg   *Target
	path string
}

// Generate renders every planned cell of the graph and returns the
// run manifest. A failing cell is recorded in its manifest entry and
// never aborts sibling cells; Generate itself fails only when the run
// cannot proceed at all, for an invalid configuration or a canceled
// context.
func Generate(ctx context.Context, g *Graph) (*Result, error) {
	start := time.Now()
	tgs, err := resolveTargets(g.Config)
	if err != nil {
		return nil, err
	}
	kinds, err := resolveKinds(g.Config)
	if err != nil {
		return nil, err
	}
	cells := plan(g, tgs, kinds)
	if err := checkPaths(cells); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(cells))
	blobs := make([][]byte, len(cells))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers())
	for i, pc := range cells {
		i, pc := i, pc
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			entries[i], blobs[i] = g.runCell(pc)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	arts := make(map[string][]byte, len(cells))
	failed := 0
	for i, e := range entries {
		if e.Status == StatusSuccess {
			arts[e.Path] = blobs[i]
		} else {
			failed++
		}
	}

	m := &Manifest{
		RunID:   uuid.NewString(),
		Domain:  g.Domain.Name,
		Version: g.Domain.Version,
		Started: start,
		Elapsed: time.Since(start),
		Entries: entries,
	}
	g.log().Info("generation finished",
		"run_id", m.RunID,
		"domain", m.Domain,
		"cells", len(entries),
		"failed", failed,
		"elapsed", m.Elapsed,
	)
	if g.OutDir != "" {
		if g.FeatureEnabled(FeatureManifest.Name) {
			if err := writeManifest(g.OutDir, m); err != nil {
				return nil, err
			}
		}
		if err := cleanupFeatures(g.Config); err != nil {
			return nil, err
		}
	}
	return &Result{Manifest: m, Artifacts: arts}, nil
}

func writeManifest(dir string, m *Manifest) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), append(buf, '\n'), 0o644)
}

// runCell renders one cell. Identifier checks run before the
// generator so no template sees an illegal name, and every failure
// ends up in the entry instead of an error return.
func (g *Graph) runCell(pc planned) (Entry, []byte) {
	e := Entry{Cell: pc.cell}
	if err := pc.tg.CheckIdentifiers(pc.typ); err != nil {
		e.Status = StatusFailure
		e.Error = err.Error()
		return e, nil
	}
	gen := pc.tg.Generator(pc.cell.Kind)
	for i := len(g.Hooks) - 1; i >= 0; i-- {
		gen = g.Hooks[i](gen)
	}
	b, err := gen.Generate(pc.typ)
	if err != nil {
		e.Status = StatusFailure
		e.Error = NewGenerationError(pc.cell.Entity, pc.cell.Kind, pc.cell.Target, "generator failed", err).Error()
		return e, nil
	}
	if g.OutDir != "" {
		if err := writeArtifact(filepath.Join(g.OutDir, filepath.FromSlash(pc.path)), b); err != nil {
			e.Status = StatusFailure
			e.Error = NewGenerationError(pc.cell.Entity, pc.cell.Kind, pc.cell.Target, "write artifact", err).Error()
			return e, nil
		}
	}
	e.Status = StatusSuccess
	e.Path = pc.path
	return e, b
}

func writeArtifact(name string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, b, 0o644)
}

// plan expands the run into its cells: entities in declared order,
// kinds in canonical order, targets in request order. Pairs a target
// does not support are not part of the plan.
func plan(g *Graph, tgs []*Target, kinds []ArtifactKind) []planned {
	var cells []planned
	for _, t := range g.Nodes {
		for _, k := range kinds {
			for _, tg := range tgs {
				if !tg.Supports(k) {
					continue
				}
				cells = append(cells, planned{
					cell: Cell{Entity: t.Name, Kind: k, Target: tg.Name},
					typ:  t,
					tg:   tg,
					path: path.Join(tg.Name, string(k), tg.File(t, k)),
				})
			}
		}
	}
	return cells
}

// checkPaths rejects plans in which two cells resolve to the same
// output path. Distinct paths are what make concurrent cell writes
// race-free, so a collision is a configuration error surfaced before
// any worker starts.
func checkPaths(cells []planned) error {
	seen := make(map[string]Cell, len(cells))
	for _, pc := range cells {
		if prev, ok := seen[pc.path]; ok {
			return NewConfigError("OutDir", pc.path,
				fmt.Sprintf("cells %s and %s resolve to the same output path", prev, pc.cell))
		}
		seen[pc.path] = pc.cell
	}
	return nil
}

// resolveTargets maps the requested target names to their registry
// entries. An empty request selects every enabled target. Requesting
// a feature-gated target without its feature is a configuration
// error, while gated targets are silently left out of the implicit
// all-targets selection.
func resolveTargets(c *Config) ([]*Target, error) {
	if len(c.Targets) == 0 {
		var tgs []*Target
		for _, tg := range targets {
			if tg.Feature != "" && !c.FeatureEnabled(tg.Feature) {
				continue
			}
			tgs = append(tgs, tg)
		}
		return tgs, nil
	}
	tgs := make([]*Target, 0, len(c.Targets))
	seen := make(map[string]struct{}, len(c.Targets))
	for _, name := range c.Targets {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tg, err := NewTarget(name)
		if err != nil {
			return nil, err
		}
		if tg.Feature != "" && !c.FeatureEnabled(tg.Feature) {
			return nil, NewConfigError("Targets", name,
				fmt.Sprintf("target requires the %q feature", tg.Feature))
		}
		tgs = append(tgs, tg)
	}
	return tgs, nil
}

// resolveKinds returns the requested artifact kinds, defaulting to
// all of them in canonical order.
func resolveKinds(c *Config) ([]ArtifactKind, error) {
	if len(c.Kinds) == 0 {
		return AllKinds(), nil
	}
	kinds := make([]ArtifactKind, 0, len(c.Kinds))
	seen := make(map[ArtifactKind]struct{}, len(c.Kinds))
	for _, k := range c.Kinds {
		if !ValidKind(string(k)) {
			return nil, NewConfigError("Kinds", k, "unknown artifact kind")
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
