package gen

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// graphqlCodegen renders through the registered SDL template and
// re-parses the output before handing it back. Schema fragments feed
// downstream GraphQL tooling directly, so a template regression must
// fail the producing cell instead of the consumer's pipeline. The
// check is syntactic only: fragments reference types declared by
// sibling artifacts, which full schema validation would reject.
func graphqlCodegen(kind ArtifactKind) Generator {
	return GenerateFunc(func(t *Type) ([]byte, error) {
		tg, err := NewTarget("graphql")
		if err != nil {
			return nil, err
		}
		b, err := templateGenerator(tg, kind).Generate(t)
		if err != nil {
			return nil, err
		}
		src := &ast.Source{Name: t.Label() + ".graphql", Input: string(b)}
		if _, err := parser.ParseSchema(src); err != nil {
			return nil, fmt.Errorf("generated schema does not parse: %w", err)
		}
		return b, nil
	})
}
