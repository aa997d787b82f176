package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/faber/compiler/load"
	"github.com/syssam/faber/schema/field"
)

// render executes the registered template of one target and kind.
func render(t *testing.T, typ *Type, target string, kind ArtifactKind) string {
	t.Helper()
	tg, err := NewTarget(target)
	require.NoError(t, err)
	b, err := tg.Generator(kind).Generate(typ)
	require.NoError(t, err)
	return string(b)
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	pairs := []struct {
		target string
		kind   ArtifactKind
	}{
		{"django", KindModel}, {"django", KindSchema}, {"django", KindUI},
		{"react", KindModel}, {"react", KindSchema}, {"react", KindUI},
		{"sql", KindModel},
		{"graphql", KindSchema},
	}
	for _, p := range pairs {
		tmpl, err := r.Lookup(p.target, p.kind)
		require.NoError(t, err, "%s/%s", p.target, p.kind)
		assert.NotNil(t, tmpl)
	}

	t.Run("golang renders without templates", func(t *testing.T) {
		_, err := r.Lookup("golang", KindModel)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no template registered")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.Lookup("django", "binary")
		require.Error(t, err)
	})
}

func TestDefaultRegistry(t *testing.T) {
	first, err := DefaultRegistry()
	require.NoError(t, err)
	second, err := DefaultRegistry()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestDjangoModelTemplate(t *testing.T) {
	g := crmGraph(t, nil)

	t.Run("plain entity", func(t *testing.T) {
		assert.Equal(t, `# Code generated by faber. DO NOT EDIT.
from django.db import models


class User(models.Model):
    id = models.AutoField(primary_key=True)
    name = models.CharField(max_length=120)
    email = models.CharField(max_length=254)
    role = models.CharField(max_length=6, choices=[('admin', 'Admin'), ('member', 'Member')], default='member')

    class Meta:
        db_table = 'users'
        verbose_name = 'User'
        verbose_name_plural = 'Users'

    def __str__(self):
        return f'User {self.pk}'
`, render(t, g.Nodes[0], "django", KindModel))
	})

	t.Run("relations and nullable fields", func(t *testing.T) {
		out := render(t, g.Nodes[1], "django", KindModel)
		assert.Contains(t, out, "class Task(models.Model):")
		assert.Contains(t, out, "due = models.DateField(null=True, blank=True)")
		assert.Contains(t, out, "estimate = models.DecimalField(max_digits=6, decimal_places=2, null=True, blank=True)")
		assert.Contains(t, out, "owner = models.ForeignKey('User', on_delete=models.CASCADE)")
		assert.Contains(t, out, "tags = models.ManyToManyField('Tag', db_table='task_tags', blank=True)")
		assert.Contains(t, out, "db_table = 'tasks'")
	})

	t.Run("temporal default pulls the timezone import", func(t *testing.T) {
		typ := typeOf(t, entity(t, "Event",
			field.DateTime("created").Default("now").Descriptor(),
		))
		out := render(t, typ, "django", KindModel)
		assert.Contains(t, out, "from django.utils import timezone")
		assert.Contains(t, out, "created = models.DateTimeField(default=timezone.now)")
	})
}

func TestDjangoSchemaTemplate(t *testing.T) {
	g := crmGraph(t, nil)
	out := render(t, g.Nodes[1], "django", KindSchema)

	assert.Contains(t, out, "from rest_framework import serializers")
	assert.Contains(t, out, "from .models import Task")
	assert.Contains(t, out, "class TaskSerializer(serializers.ModelSerializer):")
	assert.Contains(t, out, "fields = ['id', 'title', 'status', 'due', 'estimate', 'owner', 'tags']")
	assert.Contains(t, out, "read_only_fields = ['id']")
}

func TestDjangoUITemplate(t *testing.T) {
	g := crmGraph(t, nil)
	out := render(t, g.Nodes[0], "django", KindUI)

	assert.Contains(t, out, "from django.contrib import admin")
	assert.Contains(t, out, "@admin.register(User)")
	assert.Contains(t, out, "class UserAdmin(admin.ModelAdmin):")
	assert.Contains(t, out, "list_display = ['id', 'name', 'email', 'role']")
	assert.Contains(t, out, "search_fields = ['name', 'email']")
	assert.Contains(t, out, "list_filter = ['role']")
}

func TestReactModelTemplate(t *testing.T) {
	g := crmGraph(t, nil)
	out := render(t, g.Nodes[1], "react", KindModel)

	assert.Contains(t, out, "export interface Task {")
	assert.Contains(t, out, "id: number;")
	assert.Contains(t, out, "title: string;")
	assert.Contains(t, out, "status: 'todo' | 'doing' | 'done';")
	assert.Contains(t, out, "due?: string | null;")
	assert.Contains(t, out, "estimate?: number | null;")
	assert.Contains(t, out, "owner: number;")
	assert.Contains(t, out, "tags: number[];")
	assert.Contains(t, out, "export const taskApiPath = '/tasks';")
}

func TestReactSchemaTemplate(t *testing.T) {
	g := crmGraph(t, nil)
	out := render(t, g.Nodes[1], "react", KindSchema)

	assert.Contains(t, out, "import { z } from 'zod';")
	assert.Contains(t, out, "export const taskSchema = z.object({")
	assert.Contains(t, out, "title: z.string().max(200).min(1),")
	assert.Contains(t, out, "status: z.enum(['todo', 'doing', 'done']),")
	assert.Contains(t, out, "due: z.string().date().nullable(),")
	assert.Contains(t, out, "estimate: z.number().nullable(),")
	assert.Contains(t, out, "owner: z.number().int(),")
	assert.Contains(t, out, "tags: z.array(z.number().int()),")
	assert.Contains(t, out, "export type TaskInput = z.infer<typeof taskSchema>;")
}

func TestReactUITemplate(t *testing.T) {
	g := crmGraph(t, nil)
	out := render(t, g.Nodes[1], "react", KindUI)

	assert.Contains(t, out, "import { useState } from 'react';")
	assert.Contains(t, out, "import type { Task } from '../model/task';")
	assert.Contains(t, out, "export function TaskForm({ initial, onSubmit }: TaskFormProps)")
	assert.Contains(t, out, `<input type="date" value={value.due ?? ''}`)
	assert.Contains(t, out, "e.target.value as Task['status']")
	assert.Contains(t, out, `<option value="todo">Todo</option>`)

	// Relationship fields are managed outside the form.
	assert.NotContains(t, out, "value.owner")
	assert.NotContains(t, out, "value.tags")
}

func TestSQLModelTemplate(t *testing.T) {
	g := crmGraph(t, nil)

	t.Run("plain entity", func(t *testing.T) {
		assert.Equal(t, `-- Code generated by faber. DO NOT EDIT.

CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name VARCHAR(120) NOT NULL,
    email VARCHAR(254) NOT NULL,
    role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'member'))
);
`, render(t, g.Nodes[0], "sql", KindModel))
	})

	t.Run("relations emit join tables and indexes", func(t *testing.T) {
		out := render(t, g.Nodes[1], "sql", KindModel)
		assert.Contains(t, out, "CREATE TABLE tasks (")
		assert.Contains(t, out, "due DATE,")
		assert.Contains(t, out, "estimate NUMERIC(6, 2)")
		assert.Contains(t, out, "owner_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE")
		assert.Contains(t, out, "CREATE TABLE task_tags (")
		assert.Contains(t, out, "task_id INTEGER NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,")
		assert.Contains(t, out, "tag_id INTEGER NOT NULL REFERENCES tags (id) ON DELETE CASCADE,")
		assert.Contains(t, out, "PRIMARY KEY (task_id, tag_id)")
		assert.Contains(t, out, "CREATE INDEX tasks_owner_id_idx ON tasks (owner_id);")
	})

	t.Run("restrict and set_null actions", func(t *testing.T) {
		user, err := load.NewEntity("User")
		require.NoError(t, err)
		doc, err := load.NewEntity("Doc",
			field.ForeignKey("author", "User").OnDelete(field.Restrict).Descriptor(),
			field.ForeignKey("reviewer", "User").OnDelete(field.SetNull).Nullable().Descriptor(),
		)
		require.NoError(t, err)
		d, err := load.NewConfig("docs", "1.0.0", user, doc)
		require.NoError(t, err)
		g, err := NewGraph(&Config{}, d)
		require.NoError(t, err)

		out := render(t, g.Nodes[1], "sql", KindModel)
		assert.Contains(t, out, "author_id INTEGER NOT NULL REFERENCES users (id) ON DELETE RESTRICT")
		assert.Contains(t, out, "reviewer_id INTEGER REFERENCES users (id) ON DELETE SET NULL")
	})
}

func TestGraphQLSchemaTemplate(t *testing.T) {
	g := crmGraph(t, nil)

	t.Run("task schema", func(t *testing.T) {
		out := render(t, g.Nodes[1], "graphql", KindSchema)
		assert.Contains(t, out, "scalar Date")
		assert.NotContains(t, out, "scalar DateTime")
		assert.Contains(t, out, "enum TaskStatus {")
		assert.Contains(t, out, "TODO")
		assert.Contains(t, out, "type Task {")
		assert.Contains(t, out, "title: String!")
		assert.Contains(t, out, "status: TaskStatus!")
		assert.Contains(t, out, "due: Date")
		assert.Contains(t, out, "owner: User!")
		assert.Contains(t, out, "tags: [Tag!]")
		assert.Contains(t, out, "tasks: [Task!]!")
		assert.Contains(t, out, "task(id: Int!): Task")
	})

	t.Run("self-contained schema parses", func(t *testing.T) {
		out := render(t, g.Nodes[0], "graphql", KindSchema)
		schema, err := gqlparser.LoadSchema(&ast.Source{Name: "user.graphql", Input: out})
		require.NoError(t, err)

		user := schema.Types["User"]
		require.NotNil(t, user)
		assert.Equal(t, ast.Object, user.Kind)
		assert.Len(t, user.Fields, 4)

		role := schema.Types["UserRole"]
		require.NotNil(t, role)
		assert.Equal(t, ast.Enum, role.Kind)
		require.Len(t, role.EnumValues, 2)
		assert.Equal(t, "ADMIN", role.EnumValues[0].Name)
		assert.Equal(t, "MEMBER", role.EnumValues[1].Name)

		query := schema.Query
		require.NotNil(t, query)
		require.NotNil(t, query.Fields.ForName("users"))
		require.NotNil(t, query.Fields.ForName("user"))
	})
}
