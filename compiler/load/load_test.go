package load

import (
	"errors"
	"strings"
	"testing"

	"github.com/syssam/faber/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	c, err := ParseFile("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "task_manager", c.Name)
	assert.Equal(t, "1.2.0", c.Version)
	assert.Equal(t, "indigo", c.ColorScheme)
	require.Len(t, c.Entities, 3)

	user, task, tag := c.Entities[0], c.Entities[1], c.Entities[2]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "users", user.TableName)
	require.Len(t, user.Fields, 3)
	assert.Equal(t, field.TypeString, user.Fields[0].FieldType())
	require.NotNil(t, user.Fields[0].MaxLength)
	assert.Equal(t, 254, *user.Fields[0].MaxLength)
	assert.True(t, user.Fields[1].Nullable)
	assert.Equal(t, "now", user.Fields[2].Default)

	require.Len(t, task.Fields, 10)
	status := task.Fields[2]
	assert.Equal(t, field.TypeEnum, status.FieldType())
	assert.Equal(t, []string{"todo", "doing", "done"}, status.Choices)
	assert.Equal(t, "todo", status.Default)
	estimate := task.Fields[4]
	require.NotNil(t, estimate.Precision)
	assert.Equal(t, 6, *estimate.Precision)
	assert.Equal(t, 2, *estimate.Scale)
	owner := task.Fields[8]
	assert.Equal(t, field.TypeForeignKey, owner.FieldType())
	assert.Equal(t, "User", owner.RelatedEntity)
	assert.Equal(t, "cascade", owner.OnDelete)
	tags := task.Fields[9]
	assert.Equal(t, field.TypeManyToMany, tags.FieldType())
	assert.Equal(t, "task_tags", tags.ThroughTable)

	assert.Equal(t, "Tag", tag.Name)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("testdata/no_such_file.yaml")
	require.Error(t, err)
	assert.False(t, IsParseError(err))
	assert.False(t, IsSchemaError(err))
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseBytes([]byte("name: demo\n  version: broken\n"))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.True(t, errors.Is(err, ErrParse))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Positive(t, perr.Line)
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "empty document")
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := ParseBytes([]byte("name: demo\nversion: 1.0.0\ncolour: red\n"))
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "colour")
}

func TestParse_SchemaErrors(t *testing.T) {
	header := "name: demo\nversion: 1.0.0\nentities:\n  - name: Item\n    fields:\n"
	tests := []struct {
		name     string
		doc      string
		wantPath string
		want     string
	}{
		{
			name:     "missing name",
			doc:      "version: 1.0.0\n",
			wantPath: "name",
			want:     "missing config name",
		},
		{
			name:     "name not slug",
			doc:      "name: Demo App\nversion: 1.0.0\n",
			wantPath: "name",
			want:     "not a lowercase slug",
		},
		{
			name:     "missing version",
			doc:      "name: demo\n",
			wantPath: "version",
			want:     "missing config version",
		},
		{
			name:     "bad version",
			doc:      "name: demo\nversion: latest\n",
			wantPath: "version",
			want:     "not a semantic version",
		},
		{
			name:     "missing entity name",
			doc:      "name: demo\nversion: 1.0.0\nentities:\n  - fields: []\n",
			wantPath: "entities[0].name",
			want:     "missing entity name",
		},
		{
			name:     "missing field name",
			doc:      header + "      - type: text\n",
			wantPath: "entities[0].fields[0].name",
			want:     "missing field name",
		},
		{
			name:     "reserved field name",
			doc:      header + "      - name: id\n        type: integer\n",
			wantPath: "entities[0].fields[0].name",
			want:     "reserved for the implicit primary key",
		},
		{
			name:     "unknown type",
			doc:      header + "      - name: photo\n        type: image\n",
			wantPath: "entities[0].fields[0].type",
			want:     `unknown field type "image"`,
		},
		{
			name:     "string without max_length",
			doc:      header + "      - name: title\n        type: string\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires max_length",
		},
		{
			name:     "non-positive max_length",
			doc:      header + "      - name: title\n        type: string\n        max_length: 0\n",
			wantPath: "entities[0].fields[0].max_length",
			want:     "must be positive",
		},
		{
			name:     "decimal without scale",
			doc:      header + "      - name: price\n        type: decimal\n        precision: 10\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires scale",
		},
		{
			name:     "scale exceeds precision",
			doc:      header + "      - name: price\n        type: decimal\n        precision: 4\n        scale: 6\n",
			wantPath: "entities[0].fields[0].scale",
			want:     "between 0 and precision 4",
		},
		{
			name:     "enum without choices",
			doc:      header + "      - name: status\n        type: enum\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires at least one choice",
		},
		{
			name:     "duplicate choice",
			doc:      header + "      - name: status\n        type: enum\n        choices: [a, b, a]\n",
			wantPath: "entities[0].fields[0].choices[2]",
			want:     `duplicate choice "a"`,
		},
		{
			name:     "file without allowed_types",
			doc:      header + "      - name: doc\n        type: file\n        max_size: 1024\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires allowed_types",
		},
		{
			name:     "foreign_key without on_delete",
			doc:      header + "      - name: owner\n        type: foreign_key\n        related_entity: User\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires on_delete",
		},
		{
			name:     "unknown on_delete",
			doc:      header + "      - name: owner\n        type: foreign_key\n        related_entity: User\n        on_delete: nullify\n",
			wantPath: "entities[0].fields[0].on_delete",
			want:     `unknown on_delete policy "nullify"`,
		},
		{
			name:     "many_to_many without related_entity",
			doc:      header + "      - name: tags\n        type: many_to_many\n        through_table: item_tags\n",
			wantPath: "entities[0].fields[0]",
			want:     "requires related_entity",
		},
		{
			name:     "misplaced constraint",
			doc:      header + "      - name: count\n        type: integer\n        max_length: 10\n",
			wantPath: "entities[0].fields[0].max_length",
			want:     "does not apply to type integer",
		},
		{
			name:     "misplaced through_table",
			doc:      header + "      - name: owner\n        type: foreign_key\n        related_entity: User\n        on_delete: cascade\n        through_table: x\n",
			wantPath: "entities[0].fields[0].through_table",
			want:     "does not apply",
		},
		{
			name:     "default on relation",
			doc:      header + "      - name: owner\n        type: foreign_key\n        related_entity: User\n        on_delete: cascade\n        default: 1\n",
			wantPath: "entities[0].fields[0].default",
			want:     "does not admit a default",
		},
		{
			name:     "boolean default kind",
			doc:      header + "      - name: done\n        type: boolean\n        default: yes please\n",
			wantPath: "entities[0].fields[0].default",
			want:     "must be a boolean",
		},
		{
			name:     "enum default outside choices",
			doc:      header + "      - name: status\n        type: enum\n        choices: [a, b]\n        default: c\n",
			wantPath: "entities[0].fields[0].default",
			want:     "not a declared choice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			require.True(t, IsSchemaError(err), "got %v", err)
			var serr *SchemaError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.wantPath, serr.Path)
			assert.Contains(t, serr.Reason, tt.want)
		})
	}
}

// A many_to_many field without a through_table passes the loader; the
// validation engine owns that check so it can also detect collisions.
func TestParse_ManyToManyWithoutThrough(t *testing.T) {
	doc := "name: demo\nversion: 1.0.0\nentities:\n" +
		"  - name: Item\n    fields:\n" +
		"      - name: tags\n        type: many_to_many\n        related_entity: Tag\n" +
		"  - name: Tag\n    fields:\n" +
		"      - name: label\n        type: string\n        max_length: 20\n"
	c, err := ParseBytes([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, c.Entities[0].Fields[0].ThroughTable)
}

func TestNewConfig(t *testing.T) {
	user, err := NewEntity("User",
		field.String("email").MaxLength(254).Descriptor(),
		field.DateTime("joined_at").Default("now").Descriptor(),
	)
	require.NoError(t, err)
	task, err := NewEntity("Task",
		field.String("title").MaxLength(200).Descriptor(),
		field.ForeignKey("owner", "User").OnDelete(field.Cascade).Descriptor(),
	)
	require.NoError(t, err)

	c, err := NewConfig("task_manager", "1.0.0", user, task)
	require.NoError(t, err)
	require.Len(t, c.Entities, 2)
	assert.Equal(t, "email", c.Entities[0].Fields[0].Name)
	require.NotNil(t, c.Entities[0].Fields[0].MaxLength)
	assert.Equal(t, 254, *c.Entities[0].Fields[0].MaxLength)
	assert.Equal(t, "cascade", c.Entities[1].Fields[1].OnDelete)
}

func TestNewConfig_BuilderError(t *testing.T) {
	_, err := NewEntity("Task", field.String("title").MaxLength(-5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entity "Task"`)
	assert.Contains(t, err.Error(), "positive length")
}

func TestNewConfig_CheckApplies(t *testing.T) {
	item, err := NewEntity("Item", field.Text("body"))
	require.NoError(t, err)
	_, err = NewConfig("Bad Slug", "1.0.0", item)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}
