package load

import (
	"fmt"

	"github.com/syssam/faber/schema/field"
)

// DomainConfig is the typed representation of one domain description.
// It is assembled once per run, by Parse or by NewConfig, checked for
// well-formedness, and treated as read-only afterwards.
type DomainConfig struct {
	Name        string    `yaml:"name" json:"name"`
	Title       string    `yaml:"title,omitempty" json:"title,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Type        string    `yaml:"type,omitempty" json:"type,omitempty"`
	Version     string    `yaml:"version" json:"version"`
	Theme       string    `yaml:"theme,omitempty" json:"theme,omitempty"`
	ColorScheme string    `yaml:"color_scheme,omitempty" json:"color_scheme,omitempty"`
	Icon        string    `yaml:"icon,omitempty" json:"icon,omitempty"`
	Entities    []*Entity `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// Entity is one business object declaration inside a DomainConfig.
// Declaration order of entities and of their fields is significant
// and preserved through generation.
type Entity struct {
	Name        string   `yaml:"name" json:"name"`
	TableName   string   `yaml:"table_name,omitempty" json:"table_name,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []*Field `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Field is one attribute declaration inside an Entity. Its Type names
// a member of the closed field.Type set; the constraint keys that do
// not belong to that type must stay unset.
type Field struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Nullable    bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	MaxLength     *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Precision     *int     `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale         *int     `yaml:"scale,omitempty" json:"scale,omitempty"`
	Choices       []string `yaml:"choices,omitempty" json:"choices,omitempty"`
	MaxSize       *int64   `yaml:"max_size,omitempty" json:"max_size,omitempty"`
	AllowedTypes  []string `yaml:"allowed_types,omitempty" json:"allowed_types,omitempty"`
	RelatedEntity string   `yaml:"related_entity,omitempty" json:"related_entity,omitempty"`
	OnDelete      string   `yaml:"on_delete,omitempty" json:"on_delete,omitempty"`
	ThroughTable  string   `yaml:"through_table,omitempty" json:"through_table,omitempty"`
}

// FieldType returns the parsed member of the closed type set, or
// field.TypeInvalid if the declared type name is unknown.
func (f *Field) FieldType() field.Type {
	return field.TypeOf(f.Type)
}

// NewField creates a loaded field from a field descriptor.
// It returns an error if the descriptor carries a builder error.
func NewField(fd *field.Descriptor) (*Field, error) {
	if fd.Err != nil {
		return nil, fmt.Errorf("field %q: %v", fd.Name, fd.Err)
	}
	f := &Field{
		Name:        fd.Name,
		Type:        fd.Type.String(),
		Nullable:    fd.Nullable,
		Default:     fd.Default,
		Description: fd.Comment,
	}
	switch fd.Type {
	case field.TypeString:
		if fd.MaxLength != 0 {
			f.MaxLength = &fd.MaxLength
		}
	case field.TypeDecimal:
		f.Precision = &fd.Precision
		f.Scale = &fd.Scale
	case field.TypeEnum:
		f.Choices = fd.Choices
	case field.TypeFile:
		if fd.MaxSize != 0 {
			f.MaxSize = &fd.MaxSize
		}
		f.AllowedTypes = fd.AllowedTypes
	case field.TypeForeignKey:
		f.RelatedEntity = fd.RelatedEntity
		f.OnDelete = fd.OnDelete.String()
	case field.TypeManyToMany:
		f.RelatedEntity = fd.RelatedEntity
		f.ThroughTable = fd.ThroughTable
	}
	return f, nil
}

// NewEntity assembles an entity from field descriptors, preserving
// their declaration order.
func NewEntity(name string, fields ...*field.Descriptor) (*Entity, error) {
	e := &Entity{Name: name}
	for _, fd := range fields {
		f, err := NewField(fd)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		e.Fields = append(e.Fields, f)
	}
	return e, nil
}

// NewConfig assembles a domain config from entities and checks it the
// same way Parse checks serialized input. Embedders use it to declare
// domains in Go instead of YAML.
func NewConfig(name, version string, entities ...*Entity) (*DomainConfig, error) {
	c := &DomainConfig{Name: name, Version: version, Entities: entities}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}
