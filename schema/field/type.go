package field

import "fmt"

// A Type represents one member of the closed set of field types a
// domain description may declare. The zero value is TypeInvalid.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeString
	TypeText
	TypeInteger
	TypeDecimal
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeEnum
	TypeFile
	TypeForeignKey
	TypeManyToMany
	endTypes
)

var typeNames = [endTypes]string{
	TypeInvalid:    "invalid",
	TypeString:     "string",
	TypeText:       "text",
	TypeInteger:    "integer",
	TypeDecimal:    "decimal",
	TypeBoolean:    "boolean",
	TypeDate:       "date",
	TypeDateTime:   "datetime",
	TypeEnum:       "enum",
	TypeFile:       "file",
	TypeForeignKey: "foreign_key",
	TypeManyToMany: "many_to_many",
}

// String returns the configuration name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// Valid reports if the given type is a declarable field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInteger || t == TypeDecimal
}

// Temporal reports if the given type is a date or datetime type.
func (t Type) Temporal() bool {
	return t == TypeDate || t == TypeDateTime
}

// Relation reports if the given type references another entity.
func (t Type) Relation() bool {
	return t == TypeForeignKey || t == TypeManyToMany
}

// TypeOf returns the type named by the given configuration string,
// or TypeInvalid if the name is not a member of the closed set.
func TypeOf(name string) Type {
	for t := TypeInvalid + 1; t < endTypes; t++ {
		if typeNames[t] == name {
			return t
		}
	}
	return TypeInvalid
}

// TypeNames returns the configuration names of all declarable types
// in declaration order.
func TypeNames() []string {
	names := make([]string, 0, int(endTypes)-1)
	for t := TypeInvalid + 1; t < endTypes; t++ {
		names = append(names, typeNames[t])
	}
	return names
}

// OnDelete is the referential action applied to the rows of an entity
// when the row its foreign key references is deleted.
type OnDelete string

const (
	Cascade  OnDelete = "cascade"
	Restrict OnDelete = "restrict"
	SetNull  OnDelete = "set_null"
)

// String returns the configuration name of the action.
func (d OnDelete) String() string { return string(d) }

// Valid reports if the given action is a declarable on_delete policy.
func (d OnDelete) Valid() bool {
	switch d {
	case Cascade, Restrict, SetNull:
		return true
	}
	return false
}

// OnDeleteNames returns the configuration names of all on_delete
// policies.
func OnDeleteNames() []string {
	return []string{string(Cascade), string(Restrict), string(SetNull)}
}
