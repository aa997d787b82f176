package gen

import (
	"github.com/syssam/faber/compiler/load"
	"github.com/syssam/faber/schema/field"
)

// The following types and their exported methods are used by the
// generators and the templates to emit the assets.
type (
	// Type represents one entity in the domain graph: the declared
	// fields, the relationships directed out of it, and the naming
	// derived from the entity name.
	Type struct {
		*Config
		entity *load.Entity
		// Name holds the entity name as declared in the domain config.
		Name string
		// ID holds the implicit primary-key field of this type.
		ID *Field
		// Fields holds the fields declared on the entity in declaration
		// order, relationship fields included. Duplicate names are kept
		// as declared; reporting them belongs to the validation pass.
		Fields []*Field
		// Edges holds the relationship fields directed out of this type.
		Edges []*Edge
	}

	// Field holds the information of an entity field used by the
	// generators and the templates.
	Field struct {
		typ *Type
		// Name is the field name as declared.
		Name string
		// Type holds the field type.
		Type field.Type
		// Nullable indicates that the field admits null values.
		Nullable bool
		// Default holds the declared default value, or nil.
		Default any
		// Comment holds the field description.
		Comment string
		// MaxLength bounds string fields, in characters.
		MaxLength int
		// Precision and Scale size decimal fields.
		Precision int
		Scale     int
		// Choices holds the closed value set of enum fields.
		Choices []string
		// Enums holds the choices paired with their constant names.
		Enums []Enum
		// MaxSize bounds file fields, in bytes.
		MaxSize int64
		// AllowedTypes holds the MIME types accepted by file fields.
		AllowedTypes []string
		// RelatedEntity names the entity a relationship field points to.
		RelatedEntity string
		// OnDelete holds the referential action of foreign_key fields.
		OnDelete field.OnDelete
		// ThroughTable names the join table of many_to_many fields.
		ThroughTable string
		// UserDefined indicates that the field was declared in the
		// domain config, unlike the implicit id field added here.
		UserDefined bool
	}

	// Edge is a relationship between two types, declared by a
	// foreign_key or many_to_many field on the owner.
	Edge struct {
		// Name holds the name of the declaring field.
		Name string
		// Owner holds the type that declares the relationship.
		Owner *Type
		// Type holds a reference to the type this edge is directed to.
		// It is nil when the referenced entity is not part of the graph.
		Type *Type
		// Field is the declaring field on the owner.
		Field *Field
	}

	// Enum holds a single enum choice with its generated constant name.
	Enum struct {
		// Name is the generated constant name.
		Name string
		// Value in the domain config.
		Value string
	}
)

// NewType creates a new type and its fields from the given entity.
// It keeps the entity content exactly as declared: duplicate field
// names and dangling relationship targets are reported by the
// validation pass, not here.
func NewType(c *Config, entity *load.Entity) (*Type, error) {
	if entity == nil {
		return nil, NewConfigError("Entity", nil, "entity cannot be nil")
	}
	typ := &Type{
		Config: c,
		entity: entity,
		Name:   entity.Name,
		Fields: make([]*Field, 0, len(entity.Fields)),
	}
	typ.ID = &Field{
		typ:  typ,
		Name: "id",
		Type: field.TypeInteger,
	}
	for _, f := range entity.Fields {
		tf := newField(typ, f)
		typ.Fields = append(typ.Fields, tf)
		if tf.IsRelation() {
			typ.Edges = append(typ.Edges, &Edge{
				Name:  tf.Name,
				Owner: typ,
				Field: tf,
			})
		}
	}
	return typ, nil
}

func newField(typ *Type, f *load.Field) *Field {
	tf := &Field{
		typ:           typ,
		Name:          f.Name,
		Type:          f.FieldType(),
		Nullable:      f.Nullable,
		Default:       f.Default,
		Comment:       f.Description,
		Choices:       f.Choices,
		AllowedTypes:  f.AllowedTypes,
		RelatedEntity: f.RelatedEntity,
		OnDelete:      field.OnDelete(f.OnDelete),
		ThroughTable:  f.ThroughTable,
		UserDefined:   true,
	}
	if f.MaxLength != nil {
		tf.MaxLength = *f.MaxLength
	}
	if f.Precision != nil {
		tf.Precision = *f.Precision
	}
	if f.Scale != nil {
		tf.Scale = *f.Scale
	}
	if f.MaxSize != nil {
		tf.MaxSize = *f.MaxSize
	}
	for _, c := range tf.Choices {
		tf.Enums = append(tf.Enums, Enum{Name: pascal(c), Value: c})
	}
	return tf
}

// =============================================================================
// Type methods
// =============================================================================

// Label returns the label name of the type (snake_case).
func (t Type) Label() string {
	return snake(t.Name)
}

// Table returns the storage table name of the type. Unless overridden
// in the domain config, it is the snake_case plural of the entity name.
func (t Type) Table() string {
	if t.entity != nil && t.entity.TableName != "" {
		return t.entity.TableName
	}
	return snake(rules.Pluralize(pascal(t.Name)))
}

// StructName returns the PascalCase name used for generated classes,
// structs and UI components.
func (t Type) StructName() string {
	return pascal(t.Name)
}

// CamelName returns the camelCase name used for generated variables.
func (t Type) CamelName() string {
	return camel(t.Name)
}

// Receiver returns the receiver name of this type in generated Go code.
func (t Type) Receiver() string {
	return receiver(pascal(t.Name))
}

// Route returns the dashed plural route segment of the type.
//
//	UserCard => user-cards
func (t Type) Route() string {
	return kebab(rules.Pluralize(pascal(t.Name)))
}

// HumanName returns the human-readable singular label of the type.
func (t Type) HumanName() string {
	return label(t.Name)
}

// HumanPlural returns the human-readable plural label of the type.
func (t Type) HumanPlural() string {
	return label(rules.Pluralize(pascal(t.Name)))
}

// ColumnFields returns the fields stored as columns on the type's own
// table, in declaration order. Many-to-many fields live in join tables
// and are excluded.
func (t Type) ColumnFields() []*Field {
	fields := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Type != field.TypeManyToMany {
			fields = append(fields, f)
		}
	}
	return fields
}

// EnumFields returns the enum fields of the type in declaration order.
func (t Type) EnumFields() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if f.Type == field.TypeEnum {
			fields = append(fields, f)
		}
	}
	return fields
}

// FileFields returns the file fields of the type in declaration order.
func (t Type) FileFields() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if f.Type == field.TypeFile {
			fields = append(fields, f)
		}
	}
	return fields
}

// HasRelations reports if the type declares any relationship fields.
func (t Type) HasRelations() bool {
	return len(t.Edges) > 0
}

// RelatedTypes returns the distinct resolved types this type points to,
// in declaration order, excluding self-references.
func (t Type) RelatedTypes() []*Type {
	var (
		types []*Type
		seen  = make(map[string]struct{})
	)
	for _, e := range t.Edges {
		if e.Type == nil || e.Type.Name == t.Name {
			continue
		}
		if _, ok := seen[e.Type.Name]; ok {
			continue
		}
		seen[e.Type.Name] = struct{}{}
		types = append(types, e.Type)
	}
	return types
}

// =============================================================================
// Field methods
// =============================================================================

// Column returns the storage column name of the field.
func (f Field) Column() string {
	return snake(f.Name)
}

// RefColumn returns the storage column that carries a foreign_key
// relationship, following the "<name>_id" convention.
func (f Field) RefColumn() string {
	return snake(f.Name) + "_id"
}

// StructField returns the struct-field name of the field in generated
// Go code.
func (f Field) StructField() string {
	return pascal(f.Name)
}

// CamelName returns the camelCase name of the field.
func (f Field) CamelName() string {
	return camel(f.Name)
}

// Label returns the human-readable form label of the field.
func (f Field) Label() string {
	return label(f.Name)
}

// Required reports if the field must carry a value in UI forms.
func (f Field) Required() bool {
	return !f.Nullable && f.Type != field.TypeManyToMany
}

// HasDefault reports if the field declares a default value.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// DefaultNow reports if a temporal field defaults to the current time.
func (f Field) DefaultNow() bool {
	s, ok := f.Default.(string)
	return ok && s == "now" && f.IsTemporal()
}

// IsString reports if the field is a bounded string field.
func (f Field) IsString() bool { return f.Type == field.TypeString }

// IsText reports if the field is an unbounded text field.
func (f Field) IsText() bool { return f.Type == field.TypeText }

// IsInteger reports if the field is an integer field.
func (f Field) IsInteger() bool { return f.Type == field.TypeInteger }

// IsDecimal reports if the field is a fixed-precision decimal field.
func (f Field) IsDecimal() bool { return f.Type == field.TypeDecimal }

// IsBoolean reports if the field is a boolean field.
func (f Field) IsBoolean() bool { return f.Type == field.TypeBoolean }

// IsDate reports if the field is a date field.
func (f Field) IsDate() bool { return f.Type == field.TypeDate }

// IsDateTime reports if the field is a datetime field.
func (f Field) IsDateTime() bool { return f.Type == field.TypeDateTime }

// IsEnum reports if the field is an enum field.
func (f Field) IsEnum() bool { return f.Type == field.TypeEnum }

// IsFile reports if the field is a file upload field.
func (f Field) IsFile() bool { return f.Type == field.TypeFile }

// IsForeignKey reports if the field is a foreign_key field.
func (f Field) IsForeignKey() bool { return f.Type == field.TypeForeignKey }

// IsM2M reports if the field is a many_to_many field.
func (f Field) IsM2M() bool { return f.Type == field.TypeManyToMany }

// IsRelation reports if the field declares a relationship.
func (f Field) IsRelation() bool { return f.Type.Relation() }

// IsTemporal reports if the field holds a date or datetime value.
func (f Field) IsTemporal() bool { return f.Type.Temporal() }

// IsNumeric reports if the field holds a numeric value.
func (f Field) IsNumeric() bool { return f.Type.Numeric() }

// =============================================================================
// Edge methods
// =============================================================================

// M2M reports if the edge is a many-to-many relationship.
func (e Edge) M2M() bool {
	return e.Field.Type == field.TypeManyToMany
}

// Cascades reports if deleting the referenced entity cascades into the
// owner's rows. A nullable foreign key breaks a delete chain, so only
// cascade actions over required columns count.
func (e Edge) Cascades() bool {
	return e.Field.Type == field.TypeForeignKey &&
		e.Field.OnDelete == field.Cascade &&
		!e.Field.Nullable
}

// Resolved reports if the referenced entity exists in the graph.
func (e Edge) Resolved() bool {
	return e.Type != nil
}

// RefName returns the entity name the edge was declared against.
func (e Edge) RefName() string {
	return e.Field.RelatedEntity
}
