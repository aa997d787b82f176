// Package schema holds the programmatic counterpart of the YAML domain
// config. Its [field] subpackage provides fluent builders for the
// closed set of field types; entities assembled from those descriptors
// are combined with load.NewEntity and load.NewConfig, so embedded
// domain definitions and test fixtures read like the YAML they stand
// in for:
//
//	user, err := load.NewEntity("User",
//		field.String("name").MaxLength(120).Descriptor(),
//		field.Enum("role").Choices("admin", "member").Default("member").Descriptor(),
//	)
//
// Relationships are ordinary fields: field.ForeignKey and
// field.ManyToMany declare the edges the generators and the validation
// pass work with. There is no separate edge or index builder.
package schema
