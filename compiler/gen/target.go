package gen

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/syssam/faber/schema/field"
)

// Target describes one output stack the engine can emit artifacts for:
// which artifact kinds it supports, the native type of every field
// type, the literal syntax of defaults, and the reserved words its
// identifiers must avoid.
type Target struct {
	// Name of the target, as requested on the config.
	Name string
	// Kinds holds the artifact kinds the target supports.
	Kinds []ArtifactKind
	// Feature gates the target; empty means always on.
	Feature string
	// Reserved holds the reserved words, matched lowercase.
	Reserved map[string]struct{}
	// IsReserved overrides the Reserved lookup when set.
	IsReserved func(string) bool
	// Idents returns the identifiers the target derives for a type.
	Idents func(*Type) []Ident
	// File returns the artifact file name of a type.
	File func(*Type, ArtifactKind) string
	// NativeType maps a field to the target's native type name.
	NativeType func(*Field) (string, error)
	// Literal renders a field default in the target's literal syntax.
	Literal func(*Field) (string, error)
	// Codegen supplies a programmatic generator. Nil means the target
	// renders through its registered templates.
	Codegen func(ArtifactKind) Generator
}

// Generator returns the generator rendering the given artifact kind
// on this target. Targets without a programmatic generator fall back
// to their registered templates.
func (tg *Target) Generator(kind ArtifactKind) Generator {
	if tg.Codegen != nil {
		return tg.Codegen(kind)
	}
	return templateGenerator(tg, kind)
}

// Ident pairs a declared name with the identifier a target derives
// from it, so reserved-word reports can point at the declaration.
type Ident struct {
	Name    string // declared entity or field name.
	Derived string // identifier as the target emits it.
}

// identRx bounds the character set shared by all target identifiers.
var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdentifiers verifies that every identifier the target derives
// for the given type is legal on it. It runs before any template
// substitution, so no generator can silently emit invalid source.
func (tg *Target) CheckIdentifiers(t *Type) error {
	for _, id := range tg.Idents(t) {
		if !identRx.MatchString(id.Derived) {
			return NewInvalidIdentifierError(id.Name, tg.Name, fmt.Sprintf("%q is not a legal identifier", id.Derived))
		}
		if tg.reserved(id.Derived) {
			return NewInvalidIdentifierError(id.Name, tg.Name, fmt.Sprintf("%q is a reserved word", id.Derived))
		}
	}
	return nil
}

func (tg *Target) reserved(s string) bool {
	if tg.IsReserved != nil {
		return tg.IsReserved(s)
	}
	_, ok := tg.Reserved[strings.ToLower(s)]
	return ok
}

// Supports reports if the target can emit the given artifact kind.
func (tg *Target) Supports(kind ArtifactKind) bool {
	for _, k := range tg.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// String implements the fmt.Stringer interface for template usage.
func (tg *Target) String() string { return tg.Name }

// targets holds the output stacks the engine ships with.
var targets = []*Target{
	{
		Name:  "django",
		Kinds: []ArtifactKind{KindModel, KindSchema, KindUI},
		Reserved: names(
			"false", "none", "true", "and", "as", "assert", "async", "await",
			"break", "class", "continue", "def", "del", "elif", "else",
			"except", "finally", "for", "from", "global", "if", "import",
			"in", "is", "lambda", "nonlocal", "not", "or", "pass", "raise",
			"return", "try", "while", "with", "yield",
			// Shadowing the default model manager breaks every queryset.
			"objects",
		),
		Idents: func(t *Type) []Ident {
			ids := []Ident{{Name: t.Name, Derived: t.StructName()}}
			for _, f := range t.Fields {
				ids = append(ids, Ident{Name: f.Name, Derived: f.Column()})
			}
			return ids
		},
		File: func(t *Type, _ ArtifactKind) string {
			return t.Label() + ".py"
		},
		NativeType: djangoType,
		Literal:    djangoLiteral,
	},
	{
		Name:  "react",
		Kinds: []ArtifactKind{KindModel, KindSchema, KindUI},
		Reserved: names(
			"break", "case", "catch", "class", "const", "continue",
			"debugger", "default", "delete", "do", "else", "enum", "export",
			"extends", "false", "finally", "for", "function", "if", "import",
			"in", "instanceof", "new", "null", "return", "super", "switch",
			"this", "throw", "true", "try", "typeof", "var", "void", "while",
			"with", "implements", "interface", "let", "package", "private",
			"protected", "public", "static", "yield", "await",
		),
		Idents: func(t *Type) []Ident {
			ids := []Ident{{Name: t.Name, Derived: t.StructName()}}
			for _, f := range t.Fields {
				ids = append(ids, Ident{Name: f.Name, Derived: f.CamelName()})
			}
			return ids
		},
		File: func(t *Type, kind ArtifactKind) string {
			if kind == KindUI {
				return kebab(t.Name) + ".tsx"
			}
			return kebab(t.Name) + ".ts"
		},
		NativeType: reactType,
	},
	{
		Name:  "golang",
		Kinds: []ArtifactKind{KindModel, KindSchema},
		IsReserved: func(s string) bool {
			return token.Lookup(s).IsKeyword()
		},
		Idents: func(t *Type) []Ident {
			ids := []Ident{{Name: t.Name, Derived: t.StructName()}}
			for _, f := range t.Fields {
				ids = append(ids, Ident{Name: f.Name, Derived: f.CamelName()})
			}
			return ids
		},
		File: func(t *Type, _ ArtifactKind) string {
			return t.Label() + ".go"
		},
		NativeType: golangType,
		Codegen:    golangCodegen,
	},
	{
		Name:  "sql",
		Kinds: []ArtifactKind{KindModel},
		Reserved: names(
			"all", "alter", "and", "as", "between", "by", "check", "column",
			"constraint", "create", "default", "delete", "distinct", "drop",
			"foreign", "from", "group", "having", "in", "index", "inner",
			"insert", "into", "is", "join", "key", "left", "like", "limit",
			"not", "null", "offset", "on", "or", "order", "outer", "primary",
			"references", "right", "select", "set", "table", "union",
			"unique", "update", "values", "where",
		),
		Idents: func(t *Type) []Ident {
			ids := []Ident{{Name: t.Name, Derived: t.Table()}}
			for _, f := range t.Fields {
				switch f.Type {
				case field.TypeManyToMany:
					if f.ThroughTable != "" {
						ids = append(ids, Ident{Name: f.Name, Derived: f.ThroughTable})
					}
				case field.TypeForeignKey:
					ids = append(ids, Ident{Name: f.Name, Derived: f.RefColumn()})
				default:
					ids = append(ids, Ident{Name: f.Name, Derived: f.Column()})
				}
			}
			return ids
		},
		File: func(t *Type, _ ArtifactKind) string {
			return t.Label() + ".sql"
		},
		NativeType: sqlType,
		Literal:    sqlLiteral,
	},
	{
		Name:    "graphql",
		Kinds:   []ArtifactKind{KindSchema},
		Feature: "graphql",
		Reserved: names(
			"string", "int", "float", "boolean", "id",
			"query", "mutation", "subscription", "schema",
		),
		Idents: func(t *Type) []Ident {
			ids := []Ident{{Name: t.Name, Derived: t.StructName()}}
			for _, f := range t.Fields {
				ids = append(ids, Ident{Name: f.Name, Derived: f.CamelName()})
			}
			return ids
		},
		File: func(t *Type, _ ArtifactKind) string {
			return t.Label() + ".graphql"
		},
		NativeType: graphqlType,
	},
}

func init() {
	// Referencing graphqlCodegen in the literal above would create an
	// initialization cycle: targets -> graphqlCodegen -> NewTarget -> targets.
	for _, tg := range targets {
		if tg.Name == "graphql" {
			tg.Codegen = graphqlCodegen
		}
	}
}

// NewTarget returns the target registered under the given name. It
// fails if the name is not a registered target.
func NewTarget(s string) (*Target, error) {
	for _, t := range targets {
		if s == t.Name {
			return t, nil
		}
	}
	return nil, NewConfigError("Targets", s, "unknown target")
}

// TargetNames returns the registered target names in registration order.
func TargetNames() []string {
	ns := make([]string, len(targets))
	for i, t := range targets {
		ns[i] = t.Name
	}
	return ns
}

// =============================================================================
// Native type maps
// =============================================================================

func djangoType(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeEnum:
		return "models.CharField", nil
	case field.TypeText:
		return "models.TextField", nil
	case field.TypeInteger:
		return "models.IntegerField", nil
	case field.TypeDecimal:
		return "models.DecimalField", nil
	case field.TypeBoolean:
		return "models.BooleanField", nil
	case field.TypeDate:
		return "models.DateField", nil
	case field.TypeDateTime:
		return "models.DateTimeField", nil
	case field.TypeFile:
		return "models.FileField", nil
	case field.TypeForeignKey:
		return "models.ForeignKey", nil
	case field.TypeManyToMany:
		return "models.ManyToManyField", nil
	default:
		return "", fmt.Errorf("django: no native type for %s", f.Type)
	}
}

func reactType(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeText, field.TypeDate, field.TypeDateTime, field.TypeFile:
		return "string", nil
	case field.TypeInteger, field.TypeDecimal, field.TypeForeignKey:
		return "number", nil
	case field.TypeBoolean:
		return "boolean", nil
	case field.TypeEnum:
		choices := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			choices[i] = "'" + c + "'"
		}
		return strings.Join(choices, " | "), nil
	case field.TypeManyToMany:
		return "number[]", nil
	default:
		return "", fmt.Errorf("react: no native type for %s", f.Type)
	}
}

func golangType(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeText, field.TypeFile:
		return "string", nil
	case field.TypeInteger, field.TypeForeignKey:
		return "int", nil
	case field.TypeDecimal:
		return "float64", nil
	case field.TypeBoolean:
		return "bool", nil
	case field.TypeDate, field.TypeDateTime:
		return "time.Time", nil
	case field.TypeEnum:
		return f.typ.StructName() + f.StructField(), nil
	case field.TypeManyToMany:
		return "[]int", nil
	default:
		return "", fmt.Errorf("golang: no native type for %s", f.Type)
	}
}

func sqlType(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString:
		return fmt.Sprintf("VARCHAR(%d)", f.MaxLength), nil
	case field.TypeText, field.TypeEnum:
		return "TEXT", nil
	case field.TypeInteger, field.TypeForeignKey:
		return "INTEGER", nil
	case field.TypeDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", f.Precision, f.Scale), nil
	case field.TypeBoolean:
		return "BOOLEAN", nil
	case field.TypeDate:
		return "DATE", nil
	case field.TypeDateTime:
		return "TIMESTAMP", nil
	case field.TypeFile:
		return "VARCHAR(255)", nil
	case field.TypeManyToMany:
		return "", fmt.Errorf("sql: many_to_many fields map to join tables, not columns")
	default:
		return "", fmt.Errorf("sql: no native type for %s", f.Type)
	}
}

func graphqlType(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeText, field.TypeFile:
		return "String", nil
	case field.TypeInteger:
		return "Int", nil
	case field.TypeDecimal:
		return "Float", nil
	case field.TypeBoolean:
		return "Boolean", nil
	case field.TypeDate:
		return "Date", nil
	case field.TypeDateTime:
		return "DateTime", nil
	case field.TypeEnum:
		return f.typ.StructName() + f.StructField(), nil
	case field.TypeForeignKey:
		return pascal(f.RelatedEntity), nil
	case field.TypeManyToMany:
		return "[" + pascal(f.RelatedEntity) + "!]", nil
	default:
		return "", fmt.Errorf("graphql: no native type for %s", f.Type)
	}
}

// =============================================================================
// Default literals
// =============================================================================

func djangoLiteral(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeText, field.TypeEnum:
		s, ok := f.Default.(string)
		if !ok {
			return "", fmt.Errorf("django: default of field %q is not a string", f.Name)
		}
		return pyString(s), nil
	case field.TypeInteger, field.TypeDecimal:
		return fmt.Sprintf("%v", f.Default), nil
	case field.TypeBoolean:
		if b, _ := f.Default.(bool); b {
			return "True", nil
		}
		return "False", nil
	case field.TypeDate, field.TypeDateTime:
		s, ok := f.Default.(string)
		if !ok {
			return "", fmt.Errorf("django: default of field %q is not a string", f.Name)
		}
		if s == "now" {
			return "timezone.now", nil
		}
		return pyString(s), nil
	default:
		return "", fmt.Errorf("django: field %q does not admit a default", f.Name)
	}
}

func pyString(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

func sqlLiteral(f *Field) (string, error) {
	switch f.Type {
	case field.TypeString, field.TypeText, field.TypeEnum:
		s, ok := f.Default.(string)
		if !ok {
			return "", fmt.Errorf("sql: default of field %q is not a string", f.Name)
		}
		return sqlString(s), nil
	case field.TypeInteger, field.TypeDecimal:
		return fmt.Sprintf("%v", f.Default), nil
	case field.TypeBoolean:
		if b, _ := f.Default.(bool); b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case field.TypeDate, field.TypeDateTime:
		s, ok := f.Default.(string)
		if !ok {
			return "", fmt.Errorf("sql: default of field %q is not a string", f.Name)
		}
		if s == "now" {
			if f.Type == field.TypeDate {
				return "CURRENT_DATE", nil
			}
			return "CURRENT_TIMESTAMP", nil
		}
		return sqlString(s), nil
	default:
		return "", fmt.Errorf("sql: field %q does not admit a default", f.Name)
	}
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
