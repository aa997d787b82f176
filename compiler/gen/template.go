package gen

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

// ArtifactKind names one class of artifact the engine produces for an
// entity on a target.
type ArtifactKind string

const (
	// KindModel is the persistence-layer artifact of an entity.
	KindModel ArtifactKind = "model"
	// KindSchema is the serialization or API-contract artifact.
	KindSchema ArtifactKind = "schema"
	// KindUI is the presentation-layer artifact.
	KindUI ArtifactKind = "ui"
)

// AllKinds returns the artifact kinds in their canonical order.
func AllKinds() []ArtifactKind {
	return []ArtifactKind{KindModel, KindSchema, KindUI}
}

// ValidKind reports if s names a known artifact kind.
func ValidKind(s string) bool {
	switch ArtifactKind(s) {
	case KindModel, KindSchema, KindUI:
		return true
	}
	return false
}

//go:embed templates
var templateDir embed.FS

// Registry resolves the template of a target and artifact kind pair.
// All templates are parsed from the embedded tree at construction and
// the registry is read-only afterwards, so a template may be executed
// by any number of workers concurrently.
type Registry struct {
	root *template.Template
}

// NewRegistry parses every embedded template into a fresh registry.
// Templates are named "<target>/<kind>" after their path under
// templates/, and auxiliary {{define}} blocks share the same
// namespace.
func NewRegistry() (*Registry, error) {
	root := template.New("faber").Funcs(Funcs)
	matches, err := fs.Glob(templateDir, "templates/*/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	for _, m := range matches {
		buf, err := fs.ReadFile(templateDir, m)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", m, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(m, "templates/"), ".tmpl")
		if _, err := root.New(name).Parse(string(buf)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", m, err)
		}
	}
	return &Registry{root: root}, nil
}

// Lookup returns the template registered for the given target and
// artifact kind. It fails if no such template was embedded.
func (r *Registry) Lookup(target string, kind ArtifactKind) (*template.Template, error) {
	t := r.root.Lookup(target + "/" + string(kind))
	if t == nil {
		return nil, fmt.Errorf("no template registered for %s/%s", target, kind)
	}
	return t, nil
}

var (
	registryOnce sync.Once
	registry     *Registry
	registryErr  error
)

// DefaultRegistry returns the registry shared by all generation runs.
func DefaultRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		registry, registryErr = NewRegistry()
	})
	return registry, registryErr
}

// templateData is the root value generation templates execute against.
// The embedded type promotes the entity accessors and the engine
// configuration, and the target-aware methods let templates resolve
// native types and default literals without knowing the target.
type templateData struct {
	*Type
	Target *Target
	Kind   ArtifactKind
}

// Native returns the target's native type of the given field.
func (d *templateData) Native(f *Field) (string, error) {
	return d.Target.NativeType(f)
}

// Literal renders the default value of the given field in the
// target's literal syntax.
func (d *templateData) Literal(f *Field) (string, error) {
	if d.Target.Literal == nil {
		return "", fmt.Errorf("%s: target renders no default literals", d.Target)
	}
	return d.Target.Literal(f)
}

// RefTable returns the table name the given relation field points at.
func (d *templateData) RefTable(f *Field) (string, error) {
	for _, e := range d.Type.Edges {
		if e.Field == f && e.Resolved() {
			return e.Type.Table(), nil
		}
	}
	return "", fmt.Errorf("unresolved relation %q on entity %q", f.Name, d.Type.Name)
}

// templateGenerator returns a generator that renders the registered
// template of the target and kind. Rendering is pure text
// substitution over the type graph, so equal inputs produce equal
// bytes.
func templateGenerator(tg *Target, kind ArtifactKind) Generator {
	return GenerateFunc(func(t *Type) ([]byte, error) {
		r, err := DefaultRegistry()
		if err != nil {
			return nil, err
		}
		tmpl, err := r.Lookup(tg.Name, kind)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, &templateData{Type: t, Target: tg, Kind: kind}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
