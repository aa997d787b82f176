package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/faber/schema/field"
)

// IssueKind tags a single class of structural problem found in a
// domain config.
type IssueKind string

// The closed set of issue kinds the validation pass can report.
const (
	DuplicateEntityName          IssueKind = "duplicate_entity_name"
	DuplicateFieldName           IssueKind = "duplicate_field_name"
	UnresolvedRelationshipTarget IssueKind = "unresolved_relationship_target"
	MissingThroughTable          IssueKind = "missing_through_table"
	CircularCascadeDelete        IssueKind = "circular_cascade_delete"
	OrphanEntity                 IssueKind = "orphan_entity"
)

// Severity grades an issue. Errors block generation, warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single structural problem found in a domain config. The
// validation pass collects issues instead of failing fast, so a caller
// always receives the complete report in one pass.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Entity   string    `json:"entity,omitempty"`
	Field    string    `json:"field,omitempty"`
	Message  string    `json:"message"`
}

// String renders the issue in a single line for logs and terminals.
func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Severity))
	b.WriteString(": ")
	b.WriteString(string(i.Kind))
	if i.Entity != "" {
		b.WriteString(": entity ")
		b.WriteString(i.Entity)
		if i.Field != "" {
			b.WriteString(", field ")
			b.WriteString(i.Field)
		}
	}
	b.WriteString(": ")
	b.WriteString(i.Message)
	return b.String()
}

// Validate runs the full battery of structural checks over the graph
// and returns every issue found. The checks are independent: a failing
// check never prevents the later ones from running, and for a fixed
// domain config the returned list is identical across runs. Checks
// walk entities in declaration order and fields in field order, so the
// report order is stable as well.
func Validate(g *Graph) []Issue {
	issues := make([]Issue, 0)
	issues = append(issues, checkDuplicateEntities(g)...)
	issues = append(issues, checkDuplicateFields(g)...)
	issues = append(issues, checkRelationTargets(g)...)
	issues = append(issues, checkThroughTables(g)...)
	issues = append(issues, checkCascadeCycles(g)...)
	issues = append(issues, checkOrphans(g)...)
	return issues
}

// Errors filters the given issues down to the blocking ones.
func Errors(issues []Issue) []Issue {
	var errs []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// HasErrors reports if any issue in the list blocks generation.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func checkDuplicateEntities(g *Graph) []Issue {
	var (
		issues []Issue
		seen   = make(map[string]struct{}, len(g.Nodes))
	)
	for _, n := range g.Nodes {
		if _, ok := seen[n.Name]; ok {
			issues = append(issues, Issue{
				Kind:     DuplicateEntityName,
				Severity: SeverityError,
				Entity:   n.Name,
				Message:  fmt.Sprintf("entity %q is declared more than once", n.Name),
			})
			continue
		}
		seen[n.Name] = struct{}{}
	}
	return issues
}

func checkDuplicateFields(g *Graph) []Issue {
	var issues []Issue
	for _, n := range g.Nodes {
		seen := make(map[string]struct{}, len(n.Fields))
		for _, f := range n.Fields {
			if _, ok := seen[f.Name]; ok {
				issues = append(issues, Issue{
					Kind:     DuplicateFieldName,
					Severity: SeverityError,
					Entity:   n.Name,
					Field:    f.Name,
					Message:  fmt.Sprintf("field %q is declared more than once on entity %q", f.Name, n.Name),
				})
				continue
			}
			seen[f.Name] = struct{}{}
		}
	}
	return issues
}

func checkRelationTargets(g *Graph) []Issue {
	var issues []Issue
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			if e.Resolved() {
				continue
			}
			issues = append(issues, Issue{
				Kind:     UnresolvedRelationshipTarget,
				Severity: SeverityError,
				Entity:   n.Name,
				Field:    e.Name,
				Message:  fmt.Sprintf("field %q references unknown entity %q", e.Name, e.RefName()),
			})
		}
	}
	return issues
}

func checkThroughTables(g *Graph) []Issue {
	// Join tables must not collide with any entity table, explicit or
	// derived. First declaration wins on table collisions so the report
	// stays deterministic.
	tables := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := tables[n.Table()]; !ok {
			tables[n.Table()] = n.Name
		}
	}
	var issues []Issue
	for _, n := range g.Nodes {
		for _, f := range n.Fields {
			if f.Type != field.TypeManyToMany {
				continue
			}
			switch owner, ok := tables[f.ThroughTable]; {
			case f.ThroughTable == "":
				issues = append(issues, Issue{
					Kind:     MissingThroughTable,
					Severity: SeverityError,
					Entity:   n.Name,
					Field:    f.Name,
					Message:  fmt.Sprintf("many_to_many field %q requires a through_table", f.Name),
				})
			case ok:
				issues = append(issues, Issue{
					Kind:     MissingThroughTable,
					Severity: SeverityError,
					Entity:   n.Name,
					Field:    f.Name,
					Message:  fmt.Sprintf("through_table %q collides with the table of entity %q", f.ThroughTable, owner),
				})
			}
		}
	}
	return issues
}

// checkCascadeCycles looks for cycles in the subgraph of cascade-delete
// edges over required columns. Such a cycle makes deletion order
// unsatisfiable. The traversal follows an explicit adjacency structure
// built in declaration order, so the same config always yields the
// same cycle report.
func checkCascadeCycles(g *Graph) []Issue {
	var (
		index = make(map[string]int, len(g.Nodes))
		adj   = make([][]int, len(g.Nodes))
	)
	for i, n := range g.Nodes {
		if _, ok := index[n.Name]; !ok {
			index[n.Name] = i
		}
	}
	for i, n := range g.Nodes {
		for _, e := range n.Edges {
			if !e.Cascades() || !e.Resolved() {
				continue
			}
			adj[i] = append(adj[i], index[e.Type.Name])
		}
	}

	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)
	var (
		issues []Issue
		color  = make([]int, len(g.Nodes))
		path   []int
		visit  func(int)
	)
	visit = func(u int) {
		color[u] = gray
		path = append(path, u)
		for _, v := range adj[u] {
			switch color[v] {
			case white:
				visit(v)
			case gray:
				// Back edge: the cycle is the path suffix starting at v.
				start := 0
				for i, w := range path {
					if w == v {
						start = i
						break
					}
				}
				names := make([]string, 0, len(path)-start+1)
				for _, w := range path[start:] {
					names = append(names, g.Nodes[w].Name)
				}
				names = append(names, g.Nodes[v].Name)
				issues = append(issues, Issue{
					Kind:     CircularCascadeDelete,
					Severity: SeverityError,
					Entity:   g.Nodes[v].Name,
					Message:  fmt.Sprintf("cascade delete cycle: %s", strings.Join(names, " -> ")),
				})
			}
		}
		path = path[:len(path)-1]
		color[u] = black
	}
	for i := range g.Nodes {
		if color[i] == white {
			visit(i)
		}
	}
	return issues
}

func checkOrphans(g *Graph) []Issue {
	connected := make(map[*Type]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			if !e.Resolved() {
				continue
			}
			connected[n] = struct{}{}
			connected[e.Type] = struct{}{}
		}
	}
	var issues []Issue
	for _, n := range g.Nodes {
		if _, ok := connected[n]; ok {
			continue
		}
		issues = append(issues, Issue{
			Kind:     OrphanEntity,
			Severity: SeverityWarning,
			Entity:   n.Name,
			Message:  fmt.Sprintf("entity %q has no relationships", n.Name),
		})
	}
	return issues
}
