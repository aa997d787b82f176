package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/faber/schema/field"
)

// golangCodegen returns the programmatic generator of the golang
// target. Go artifacts are built with the jennifer AST instead of
// text templates, rendered through goimports so the output matches
// what gofmt would produce.
func golangCodegen(kind ArtifactKind) Generator {
	switch kind {
	case KindModel:
		return GenerateFunc(golangModel)
	case KindSchema:
		return GenerateFunc(golangSchema)
	default:
		return GenerateFunc(func(*Type) ([]byte, error) {
			return nil, fmt.Errorf("golang: no generator for artifact kind %q", kind)
		})
	}
}

// golangModel renders the entity as a plain Go struct with JSON tags,
// together with its enum types and their validators.
func golangModel(t *Type) ([]byte, error) {
	f := newGoFile(t, "model")

	for _, fl := range t.EnumFields() {
		golangEnum(f, t, fl)
	}

	f.Commentf("%s holds one row of the %s table.", t.StructName(), t.Table())
	f.Type().Id(t.StructName()).StructFunc(func(g *jen.Group) {
		g.Id("ID").Int().Tag(map[string]string{"json": "id"})
		for _, fl := range t.Fields {
			g.Add(golangStructField(t, fl))
		}
	})

	return renderGoFile(f, t.Label()+".go")
}

// golangSchema renders the wire contract of the entity: a DTO with
// optional fields and a Validate method enforcing the declared
// constraints.
func golangSchema(t *Type) ([]byte, error) {
	f := newGoFile(t, "schema")

	dto := t.StructName() + "DTO"
	f.Commentf("%s carries the %s payload accepted on create and update.", dto, t.HumanName())
	f.Type().Id(dto).StructFunc(func(g *jen.Group) {
		for _, fl := range t.Fields {
			g.Add(golangDTOField(fl))
		}
	})

	f.Comment("Validate reports the first constraint violation of the payload.")
	f.Func().Params(jen.Id("d").Op("*").Id(dto)).Id("Validate").Params().Error().BlockFunc(func(g *jen.Group) {
		for _, fl := range t.Fields {
			golangDTOChecks(g, fl)
		}
		g.Return(jen.Nil())
	})

	return renderGoFile(f, t.Label()+".go")
}

// newGoFile creates a jennifer file with the standard header comment.
func newGoFile(t *Type, pkg string) *jen.File {
	f := jen.NewFile(pkg)
	if t.Config.Header != "" {
		f.HeaderComment(t.Config.Header)
	}
	f.HeaderComment("Code generated by faber. DO NOT EDIT.")
	return f
}

// renderGoFile renders the file and runs it through goimports, so
// artifacts never depend on jennifer's import grouping.
func renderGoFile(f *jen.File, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := imports.Process(name, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}

// golangEnum emits the named string type of an enum field with one
// constant per choice and a Valid method.
func golangEnum(f *jen.File, t *Type, fl *Field) {
	name := t.StructName() + fl.StructField()
	f.Commentf("%s is the set of allowed values of the %s field.", name, fl.Name)
	f.Type().Id(name).String()
	f.Const().DefsFunc(func(g *jen.Group) {
		for _, e := range fl.Enums {
			g.Id(name + e.Name).Id(name).Op("=").Lit(e.Value)
		}
	})
	f.Comment("Valid reports if the value is one of the declared choices.")
	f.Func().Params(jen.Id("e").Id(name)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("e")).Block(
			jen.CaseFunc(func(g *jen.Group) {
				for _, e := range fl.Enums {
					g.Id(name + e.Name)
				}
			}).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)
}

// golangStructField maps one declared field to its model struct field.
func golangStructField(t *Type, fl *Field) jen.Code {
	tag := map[string]string{"json": fl.Column()}
	if fl.Nullable {
		tag["json"] += ",omitempty"
	}
	switch fl.Type {
	case field.TypeForeignKey:
		tag["json"] = fl.RefColumn()
		if fl.Nullable {
			tag["json"] += ",omitempty"
			return jen.Id(pascal(fl.RefColumn())).Id("*int").Tag(tag)
		}
		return jen.Id(pascal(fl.RefColumn())).Int().Tag(tag)
	case field.TypeManyToMany:
		return jen.Id(fl.StructField()).Index().Int().Tag(tag)
	case field.TypeEnum:
		typ := t.StructName() + fl.StructField()
		if fl.Nullable {
			return jen.Id(fl.StructField()).Op("*").Id(typ).Tag(tag)
		}
		return jen.Id(fl.StructField()).Id(typ).Tag(tag)
	}
	if fl.Nullable {
		return jen.Id(fl.StructField()).Add(golangPointerType(fl)).Tag(tag)
	}
	return jen.Id(fl.StructField()).Add(golangBaseType(fl)).Tag(tag)
}

// golangBaseType returns the primitive Go type of a scalar field.
func golangBaseType(fl *Field) jen.Code {
	switch fl.Type {
	case field.TypeString, field.TypeText, field.TypeFile:
		return jen.String()
	case field.TypeInteger:
		return jen.Int()
	case field.TypeDecimal:
		return jen.Float64()
	case field.TypeBoolean:
		return jen.Bool()
	case field.TypeDate, field.TypeDateTime:
		return jen.Qual("time", "Time")
	}
	return jen.Any()
}

// golangPointerType returns the pointer form of a scalar field type.
// Primitive pointers use Id("*type") to avoid the whitespace jennifer
// inserts between Op("*") and the type in struct definitions.
func golangPointerType(fl *Field) jen.Code {
	switch fl.Type {
	case field.TypeString, field.TypeText, field.TypeFile:
		return jen.Id("*string")
	case field.TypeInteger:
		return jen.Id("*int")
	case field.TypeDecimal:
		return jen.Id("*float64")
	case field.TypeBoolean:
		return jen.Id("*bool")
	case field.TypeDate, field.TypeDateTime:
		return jen.Op("*").Qual("time", "Time")
	}
	return jen.Id("*any")
}

// golangDTOField maps one declared field to its DTO struct field. All
// scalar members are pointers so that absent and zero values can be
// told apart; temporal values travel as ISO strings.
func golangDTOField(fl *Field) jen.Code {
	tag := map[string]string{"json": fl.Column() + ",omitempty"}
	switch fl.Type {
	case field.TypeForeignKey:
		tag["json"] = fl.RefColumn() + ",omitempty"
		return jen.Id(pascal(fl.RefColumn())).Id("*int").Tag(tag)
	case field.TypeManyToMany:
		return jen.Id(fl.StructField()).Index().Int().Tag(tag)
	case field.TypeInteger:
		return jen.Id(fl.StructField()).Id("*int").Tag(tag)
	case field.TypeDecimal:
		return jen.Id(fl.StructField()).Id("*float64").Tag(tag)
	case field.TypeBoolean:
		return jen.Id(fl.StructField()).Id("*bool").Tag(tag)
	default:
		return jen.Id(fl.StructField()).Id("*string").Tag(tag)
	}
}

// golangDTOChecks appends the Validate statements of one field. Error
// messages name the wire key of the field, so foreign keys report
// their "<name>_id" column.
func golangDTOChecks(g *jen.Group, fl *Field) {
	name, col := fl.StructField(), fl.Column()
	if fl.Type == field.TypeForeignKey {
		name, col = pascal(fl.RefColumn()), fl.RefColumn()
	}
	if fl.Required() {
		g.If(jen.Id("d").Dot(name).Op("==").Nil()).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(col + ": required"))),
		)
	}
	switch fl.Type {
	case field.TypeString:
		g.If(
			jen.Id("d").Dot(name).Op("!=").Nil().Op("&&").
				Qual("unicode/utf8", "RuneCountInString").Call(jen.Op("*").Id("d").Dot(name)).Op(">").Lit(fl.MaxLength),
		).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(fmt.Sprintf("%s: longer than %d characters", col, fl.MaxLength)))),
		)
	case field.TypeEnum:
		g.If(jen.Id("d").Dot(name).Op("!=").Nil()).Block(
			jen.Switch(jen.Op("*").Id("d").Dot(name)).Block(
				jen.CaseFunc(func(cg *jen.Group) {
					for _, c := range fl.Choices {
						cg.Lit(c)
					}
				}).Block(),
				jen.Default().Block(
					jen.Return(jen.Qual("fmt", "Errorf").Call(
						jen.Lit(col+": unknown value %q"), jen.Op("*").Id("d").Dot(name),
					)),
				),
			),
		)
	}
}
