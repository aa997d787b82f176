package field

import "fmt"

// A Descriptor holds the configuration of a single field as declared
// in a domain description. Builders populate it; the loader and the
// generators read it. A Descriptor is never mutated after it leaves
// its builder.
type Descriptor struct {
	Name     string   // declared field name
	Type     Type     // member of the closed type set
	Nullable bool     // value may be absent
	Default  any      // optional declared default
	Comment  string   // optional description

	// Type-specific constraints. Exactly the ones belonging to
	// Type are meaningful; all others stay zero.
	MaxLength     int      // string
	Precision     int      // decimal
	Scale         int      // decimal
	Choices       []string // enum
	MaxSize       int64    // file, in bytes
	AllowedTypes  []string // file, MIME types or extensions
	RelatedEntity string   // foreign_key, many_to_many
	OnDelete      OnDelete // foreign_key
	ThroughTable  string   // many_to_many

	// Err holds a builder-time error, reported when the descriptor
	// is assembled into an entity.
	Err error
}

func (d *Descriptor) err(format string, args ...any) {
	if d.Err == nil {
		d.Err = fmt.Errorf(format, args...)
	}
}

// String returns a new builder for a bounded string field.
func String(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeString}}
}

type stringBuilder struct {
	desc *Descriptor
}

// MaxLength sets the maximum number of characters the field accepts.
func (b *stringBuilder) MaxLength(n int) *stringBuilder {
	if n <= 0 {
		b.desc.err(`field.String(%q).MaxLength expects a positive length, got %d`, b.desc.Name, n)
	}
	b.desc.MaxLength = n
	return b
}

// Nullable marks the field as accepting absent values.
func (b *stringBuilder) Nullable() *stringBuilder {
	b.desc.Nullable = true
	return b
}

// Default sets the declared default value of the field.
func (b *stringBuilder) Default(s string) *stringBuilder {
	b.desc.Default = s
	return b
}

// Comment sets the field description.
func (b *stringBuilder) Comment(c string) *stringBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor returns the descriptor of the field.
func (b *stringBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Text returns a new builder for an unbounded text field.
func Text(name string) *textBuilder {
	return &textBuilder{&Descriptor{Name: name, Type: TypeText}}
}

type textBuilder struct {
	desc *Descriptor
}

func (b *textBuilder) Nullable() *textBuilder {
	b.desc.Nullable = true
	return b
}

func (b *textBuilder) Default(s string) *textBuilder {
	b.desc.Default = s
	return b
}

func (b *textBuilder) Comment(c string) *textBuilder {
	b.desc.Comment = c
	return b
}

func (b *textBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Integer returns a new builder for an integer field.
func Integer(name string) *integerBuilder {
	return &integerBuilder{&Descriptor{Name: name, Type: TypeInteger}}
}

type integerBuilder struct {
	desc *Descriptor
}

func (b *integerBuilder) Nullable() *integerBuilder {
	b.desc.Nullable = true
	return b
}

func (b *integerBuilder) Default(i int) *integerBuilder {
	b.desc.Default = i
	return b
}

func (b *integerBuilder) Comment(c string) *integerBuilder {
	b.desc.Comment = c
	return b
}

func (b *integerBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Decimal returns a new builder for a fixed-precision decimal field.
func Decimal(name string) *decimalBuilder {
	return &decimalBuilder{&Descriptor{Name: name, Type: TypeDecimal}}
}

type decimalBuilder struct {
	desc *Descriptor
}

// Precision sets the total number of digits the field stores.
func (b *decimalBuilder) Precision(p int) *decimalBuilder {
	if p <= 0 {
		b.desc.err(`field.Decimal(%q).Precision expects a positive precision, got %d`, b.desc.Name, p)
	}
	b.desc.Precision = p
	return b
}

// Scale sets the number of digits stored after the decimal point.
// The scale must not exceed the precision.
func (b *decimalBuilder) Scale(s int) *decimalBuilder {
	if s < 0 {
		b.desc.err(`field.Decimal(%q).Scale expects a non-negative scale, got %d`, b.desc.Name, s)
	}
	b.desc.Scale = s
	return b
}

func (b *decimalBuilder) Nullable() *decimalBuilder {
	b.desc.Nullable = true
	return b
}

func (b *decimalBuilder) Default(f float64) *decimalBuilder {
	b.desc.Default = f
	return b
}

func (b *decimalBuilder) Comment(c string) *decimalBuilder {
	b.desc.Comment = c
	return b
}

func (b *decimalBuilder) Descriptor() *Descriptor {
	if b.desc.Scale > b.desc.Precision {
		b.desc.err(`field.Decimal(%q): scale %d exceeds precision %d`, b.desc.Name, b.desc.Scale, b.desc.Precision)
	}
	return b.desc
}

// Boolean returns a new builder for a boolean field.
func Boolean(name string) *boolBuilder {
	return &boolBuilder{&Descriptor{Name: name, Type: TypeBoolean}}
}

type boolBuilder struct {
	desc *Descriptor
}

func (b *boolBuilder) Nullable() *boolBuilder {
	b.desc.Nullable = true
	return b
}

func (b *boolBuilder) Default(v bool) *boolBuilder {
	b.desc.Default = v
	return b
}

func (b *boolBuilder) Comment(c string) *boolBuilder {
	b.desc.Comment = c
	return b
}

func (b *boolBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Date returns a new builder for a calendar-date field.
func Date(name string) *temporalBuilder {
	return &temporalBuilder{&Descriptor{Name: name, Type: TypeDate}}
}

// DateTime returns a new builder for a point-in-time field.
func DateTime(name string) *temporalBuilder {
	return &temporalBuilder{&Descriptor{Name: name, Type: TypeDateTime}}
}

type temporalBuilder struct {
	desc *Descriptor
}

func (b *temporalBuilder) Nullable() *temporalBuilder {
	b.desc.Nullable = true
	return b
}

// Default sets the declared default, either an ISO-8601 literal or
// the symbolic value "now", which generators map to the target's
// current-time expression.
func (b *temporalBuilder) Default(s string) *temporalBuilder {
	b.desc.Default = s
	return b
}

func (b *temporalBuilder) Comment(c string) *temporalBuilder {
	b.desc.Comment = c
	return b
}

func (b *temporalBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Enum returns a new builder for an enumerated field.
func Enum(name string) *enumBuilder {
	return &enumBuilder{&Descriptor{Name: name, Type: TypeEnum}}
}

type enumBuilder struct {
	desc *Descriptor
}

// Choices sets the closed list of values the field accepts.
func (b *enumBuilder) Choices(values ...string) *enumBuilder {
	b.desc.Choices = values
	return b
}

func (b *enumBuilder) Nullable() *enumBuilder {
	b.desc.Nullable = true
	return b
}

// Default sets the declared default. The loader rejects defaults
// outside the declared choices.
func (b *enumBuilder) Default(s string) *enumBuilder {
	b.desc.Default = s
	return b
}

func (b *enumBuilder) Comment(c string) *enumBuilder {
	b.desc.Comment = c
	return b
}

func (b *enumBuilder) Descriptor() *Descriptor {
	return b.desc
}

// File returns a new builder for an uploaded-file field.
func File(name string) *fileBuilder {
	return &fileBuilder{&Descriptor{Name: name, Type: TypeFile}}
}

type fileBuilder struct {
	desc *Descriptor
}

// MaxSize sets the maximum accepted file size in bytes.
func (b *fileBuilder) MaxSize(n int64) *fileBuilder {
	if n <= 0 {
		b.desc.err(`field.File(%q).MaxSize expects a positive size, got %d`, b.desc.Name, n)
	}
	b.desc.MaxSize = n
	return b
}

// AllowedTypes sets the accepted content types or extensions.
func (b *fileBuilder) AllowedTypes(types ...string) *fileBuilder {
	b.desc.AllowedTypes = types
	return b
}

func (b *fileBuilder) Nullable() *fileBuilder {
	b.desc.Nullable = true
	return b
}

func (b *fileBuilder) Comment(c string) *fileBuilder {
	b.desc.Comment = c
	return b
}

func (b *fileBuilder) Descriptor() *Descriptor {
	return b.desc
}

// ForeignKey returns a new builder for a to-one reference to the
// entity named by related.
func ForeignKey(name, related string) *foreignKeyBuilder {
	return &foreignKeyBuilder{&Descriptor{Name: name, Type: TypeForeignKey, RelatedEntity: related}}
}

type foreignKeyBuilder struct {
	desc *Descriptor
}

// OnDelete sets the referential action applied when the referenced
// row is deleted.
func (b *foreignKeyBuilder) OnDelete(d OnDelete) *foreignKeyBuilder {
	if !d.Valid() {
		b.desc.err(`field.ForeignKey(%q).OnDelete expects one of %v, got %q`, b.desc.Name, OnDeleteNames(), d)
	}
	b.desc.OnDelete = d
	return b
}

func (b *foreignKeyBuilder) Nullable() *foreignKeyBuilder {
	b.desc.Nullable = true
	return b
}

func (b *foreignKeyBuilder) Comment(c string) *foreignKeyBuilder {
	b.desc.Comment = c
	return b
}

func (b *foreignKeyBuilder) Descriptor() *Descriptor {
	return b.desc
}

// ManyToMany returns a new builder for a to-many association with the
// entity named by related, joined through a dedicated table.
func ManyToMany(name, related string) *manyToManyBuilder {
	return &manyToManyBuilder{&Descriptor{Name: name, Type: TypeManyToMany, RelatedEntity: related}}
}

type manyToManyBuilder struct {
	desc *Descriptor
}

// Through sets the name of the join table backing the association.
func (b *manyToManyBuilder) Through(table string) *manyToManyBuilder {
	b.desc.ThroughTable = table
	return b
}

func (b *manyToManyBuilder) Comment(c string) *manyToManyBuilder {
	b.desc.Comment = c
	return b
}

func (b *manyToManyBuilder) Descriptor() *Descriptor {
	return b.desc
}
