// Package load parses serialized domain descriptions into typed,
// checked DomainConfig values. The loader guarantees internal
// well-formedness of every entity and field in isolation; checks that
// span entities (duplicate names, unresolved references, cascade
// cycles) belong to the validation engine and run later.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/syssam/faber/schema/field"
)

// slugRx matches config names: lowercase slugs with underscores.
var slugRx = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Parse reads one YAML domain description from r and returns the
// checked DomainConfig. Unknown keys are rejected. Parse fails with a
// ParseError for malformed YAML and a SchemaError for well-formed
// YAML that declares an invalid config.
func Parse(r io.Reader) (*DomainConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	c := &DomainConfig{}
	if err := dec.Decode(c); err != nil {
		var typeErr *yaml.TypeError
		switch {
		case errors.As(err, &typeErr):
			// Well-formed YAML with keys or shapes the config
			// grammar does not declare.
			return nil, NewSchemaError("", "%s", strings.Join(typeErr.Errors, "; "))
		case errors.Is(err, io.EOF):
			return nil, NewParseError(errors.New("empty document"))
		default:
			return nil, NewParseError(err)
		}
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseBytes is like Parse but reads from a byte slice.
func ParseBytes(b []byte) (*DomainConfig, error) {
	return Parse(bytes.NewReader(b))
}

// ParseFile is like Parse but reads the description from a file.
func ParseFile(path string) (*DomainConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("faber: open domain config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Check verifies the internal well-formedness of the config: required
// keys, the closed field-type set, and the presence and shape of every
// constraint the declared type requires. It returns the first
// violation as a SchemaError and performs no cross-entity checks.
func (c *DomainConfig) Check() error {
	if c.Name == "" {
		return NewSchemaError("name", "missing config name")
	}
	if !slugRx.MatchString(c.Name) {
		return NewSchemaError("name", "config name %q is not a lowercase slug", c.Name)
	}
	if c.Version == "" {
		return NewSchemaError("version", "missing config version")
	}
	if _, err := semver.NewVersion(c.Version); err != nil {
		return NewSchemaError("version", "%q is not a semantic version: %s", c.Version, err)
	}
	for i, e := range c.Entities {
		if err := checkEntity(i, e); err != nil {
			return err
		}
	}
	return nil
}

func checkEntity(i int, e *Entity) error {
	path := fmt.Sprintf("entities[%d]", i)
	if e == nil {
		return NewSchemaError(path, "null entity")
	}
	if e.Name == "" {
		return NewSchemaError(path+".name", "missing entity name")
	}
	for j, f := range e.Fields {
		if err := checkField(fmt.Sprintf("%s.fields[%d]", path, j), e.Name, f); err != nil {
			return err
		}
	}
	return nil
}

func checkField(path, entity string, f *Field) error {
	if f == nil {
		return NewSchemaError(path, "null field")
	}
	if f.Name == "" {
		return NewSchemaError(path+".name", "missing field name in entity %q", entity)
	}
	if f.Name == "id" {
		return NewSchemaError(path+".name", "field name %q is reserved for the implicit primary key", f.Name)
	}
	t := f.FieldType()
	if !t.Valid() {
		return NewSchemaError(path+".type", "unknown field type %q for %s.%s, expected one of %s",
			f.Type, entity, f.Name, strings.Join(field.TypeNames(), ", "))
	}
	if err := checkConstraintScope(path, t, f); err != nil {
		return err
	}
	if err := checkConstraints(path, t, f); err != nil {
		return err
	}
	return checkDefault(path, t, f)
}

// checkConstraintScope rejects constraints that do not belong to the
// declared type, keeping Field a closed tagged variant even though
// the serialized form is flat.
func checkConstraintScope(path string, t field.Type, f *Field) error {
	misplaced := func(key string) error {
		return NewSchemaError(path+"."+key, "constraint %s does not apply to type %s", key, t)
	}
	if f.MaxLength != nil && t != field.TypeString {
		return misplaced("max_length")
	}
	if f.Precision != nil && t != field.TypeDecimal {
		return misplaced("precision")
	}
	if f.Scale != nil && t != field.TypeDecimal {
		return misplaced("scale")
	}
	if len(f.Choices) > 0 && t != field.TypeEnum {
		return misplaced("choices")
	}
	if f.MaxSize != nil && t != field.TypeFile {
		return misplaced("max_size")
	}
	if len(f.AllowedTypes) > 0 && t != field.TypeFile {
		return misplaced("allowed_types")
	}
	if f.RelatedEntity != "" && !t.Relation() {
		return misplaced("related_entity")
	}
	if f.OnDelete != "" && t != field.TypeForeignKey {
		return misplaced("on_delete")
	}
	if f.ThroughTable != "" && t != field.TypeManyToMany {
		return misplaced("through_table")
	}
	return nil
}

// checkConstraints verifies that every constraint the declared type
// requires is present and well-formed. The absence of a many_to_many
// through_table is deliberately not checked here: the validation
// engine reports it as a MissingThroughTable issue together with
// collision checks it alone can perform.
func checkConstraints(path string, t field.Type, f *Field) error {
	switch t {
	case field.TypeString:
		if f.MaxLength == nil {
			return NewSchemaError(path, "string field %q requires max_length", f.Name)
		}
		if *f.MaxLength <= 0 {
			return NewSchemaError(path+".max_length", "max_length must be positive, got %d", *f.MaxLength)
		}
	case field.TypeDecimal:
		if f.Precision == nil {
			return NewSchemaError(path, "decimal field %q requires precision", f.Name)
		}
		if f.Scale == nil {
			return NewSchemaError(path, "decimal field %q requires scale", f.Name)
		}
		if *f.Precision <= 0 {
			return NewSchemaError(path+".precision", "precision must be positive, got %d", *f.Precision)
		}
		if *f.Scale < 0 || *f.Scale > *f.Precision {
			return NewSchemaError(path+".scale", "scale must be between 0 and precision %d, got %d", *f.Precision, *f.Scale)
		}
	case field.TypeEnum:
		if len(f.Choices) == 0 {
			return NewSchemaError(path, "enum field %q requires at least one choice", f.Name)
		}
		seen := make(map[string]struct{}, len(f.Choices))
		for k, choice := range f.Choices {
			if choice == "" {
				return NewSchemaError(fmt.Sprintf("%s.choices[%d]", path, k), "empty choice")
			}
			if _, ok := seen[choice]; ok {
				return NewSchemaError(fmt.Sprintf("%s.choices[%d]", path, k), "duplicate choice %q", choice)
			}
			seen[choice] = struct{}{}
		}
	case field.TypeFile:
		if f.MaxSize == nil {
			return NewSchemaError(path, "file field %q requires max_size", f.Name)
		}
		if *f.MaxSize <= 0 {
			return NewSchemaError(path+".max_size", "max_size must be positive, got %d", *f.MaxSize)
		}
		if len(f.AllowedTypes) == 0 {
			return NewSchemaError(path, "file field %q requires allowed_types", f.Name)
		}
	case field.TypeForeignKey:
		if f.RelatedEntity == "" {
			return NewSchemaError(path, "foreign_key field %q requires related_entity", f.Name)
		}
		if f.OnDelete == "" {
			return NewSchemaError(path, "foreign_key field %q requires on_delete", f.Name)
		}
		if !field.OnDelete(f.OnDelete).Valid() {
			return NewSchemaError(path+".on_delete", "unknown on_delete policy %q, expected one of %s",
				f.OnDelete, strings.Join(field.OnDeleteNames(), ", "))
		}
	case field.TypeManyToMany:
		if f.RelatedEntity == "" {
			return NewSchemaError(path, "many_to_many field %q requires related_entity", f.Name)
		}
	}
	return nil
}

// checkDefault verifies that a declared default carries a value of
// the kind the field type stores. Relationship and file fields admit
// no default.
func checkDefault(path string, t field.Type, f *Field) error {
	if f.Default == nil {
		return nil
	}
	path += ".default"
	switch t {
	case field.TypeForeignKey, field.TypeManyToMany, field.TypeFile:
		return NewSchemaError(path, "type %s does not admit a default", t)
	case field.TypeString, field.TypeText, field.TypeDate, field.TypeDateTime:
		if _, ok := f.Default.(string); !ok {
			return NewSchemaError(path, "default for type %s must be a string, got %T", t, f.Default)
		}
	case field.TypeInteger:
		if _, ok := f.Default.(int); !ok {
			return NewSchemaError(path, "default for type integer must be an integer, got %T", f.Default)
		}
	case field.TypeDecimal:
		switch f.Default.(type) {
		case int, float64:
		default:
			return NewSchemaError(path, "default for type decimal must be a number, got %T", f.Default)
		}
	case field.TypeBoolean:
		if _, ok := f.Default.(bool); !ok {
			return NewSchemaError(path, "default for type boolean must be a boolean, got %T", f.Default)
		}
	case field.TypeEnum:
		s, ok := f.Default.(string)
		if !ok {
			return NewSchemaError(path, "default for type enum must be a string, got %T", f.Default)
		}
		for _, choice := range f.Choices {
			if choice == s {
				return nil
			}
		}
		return NewSchemaError(path, "default %q is not a declared choice", s)
	}
	return nil
}
