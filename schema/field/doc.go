// Package field defines the closed set of field types a domain
// description may declare, and fluent builders for constructing field
// descriptors from Go code instead of YAML.
//
// Field names follow database conventions (snake_case); generators
// derive target-native identifiers from them:
//
//	field.String("email")        // django: models.CharField, react: string
//	field.Integer("age")         // django: models.IntegerField, react: number
//
// # Field Types
//
// Every declarable type has one builder:
//
//	field.String("title").MaxLength(200)
//	field.Text("body")
//	field.Integer("count")
//	field.Decimal("price").Precision(10).Scale(2)
//	field.Boolean("is_active")
//	field.Date("due_on")
//	field.DateTime("created_at")
//	field.Enum("status").Choices("draft", "published")
//	field.File("attachment").MaxSize(5 << 20).AllowedTypes("application/pdf")
//	field.ForeignKey("owner", "User").OnDelete(field.Cascade)
//	field.ManyToMany("tags", "Tag").Through("post_tags")
//
// Each builder exposes only the options that belong to its type, so a
// misplaced constraint is a compile error rather than a load error.
//
// # Nullability and Defaults
//
// Fields are required unless marked nullable:
//
//	field.String("nickname").MaxLength(50).Nullable()
//	field.Boolean("is_active").Default(true)
//
// Temporal fields accept the symbolic default "now", which generators
// translate to the target's current-time expression:
//
//	field.DateTime("created_at").Default("now")
//
// # Descriptors
//
// Descriptor() returns the accumulated configuration. Builder-time
// errors (a non-positive max_length, a scale exceeding its precision)
// are deferred into Descriptor.Err and reported when the descriptor
// is assembled into an entity, so builder chains stay unconditional.
package field
