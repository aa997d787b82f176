package faber_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/faber"
	"github.com/syssam/faber/compiler/gen"
	"github.com/syssam/faber/compiler/load"
	"github.com/syssam/faber/schema/field"
)

const crmYAML = `name: crm
title: Acme CRM
version: 1.2.0
entities:
  - name: User
    fields:
      - name: name
        type: string
        max_length: 120
  - name: Task
    fields:
      - name: title
        type: string
        max_length: 200
      - name: owner
        type: foreign_key
        related_entity: User
        on_delete: cascade
`

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateFile(t *testing.T) {
	t.Run("writes artifacts in plan order", func(t *testing.T) {
		out := t.TempDir()
		res, err := faber.GenerateFile(context.Background(), writeConfig(t, crmYAML),
			gen.WithOutDir(out),
			gen.WithTargets("sql"),
			gen.WithLogger(quietLogger()),
		)
		require.NoError(t, err)
		require.True(t, res.Manifest.OK())
		assert.Equal(t, "crm", res.Manifest.Domain)
		assert.Equal(t, "1.2.0", res.Manifest.Version)

		cells := make([]string, len(res.Manifest.Entries))
		for i, e := range res.Manifest.Entries {
			cells[i] = e.Cell.String()
		}
		assert.Equal(t, []string{"User/model/sql", "Task/model/sql"}, cells)

		b, err := os.ReadFile(filepath.Join(out, "sql", "model", "task.sql"))
		require.NoError(t, err)
		assert.Contains(t, string(b), "CREATE TABLE tasks")
		assert.Contains(t, string(b), "owner_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE")
	})

	t.Run("missing files fail with exit code 1", func(t *testing.T) {
		res, err := faber.GenerateFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, faber.ExitValidationFailed, faber.ExitCode(err))
	})

	t.Run("parse errors surface unchanged", func(t *testing.T) {
		res, err := faber.GenerateFile(context.Background(), writeConfig(t, "{unclosed"))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, load.IsParseError(err))
		assert.Equal(t, faber.ExitValidationFailed, faber.ExitCode(err))
	})
}

func TestGenerate(t *testing.T) {
	t.Run("blocks on validation errors", func(t *testing.T) {
		u1, err := load.NewEntity("User", field.String("name").MaxLength(50).Descriptor())
		require.NoError(t, err)
		u2, err := load.NewEntity("User", field.String("email").MaxLength(120).Descriptor())
		require.NoError(t, err)
		d, err := load.NewConfig("crm", "1.0.0", u1, u2)
		require.NoError(t, err)

		res, err := faber.Generate(context.Background(), d)
		require.Nil(t, res)
		require.ErrorIs(t, err, faber.ErrValidationFailed)
		require.True(t, faber.IsValidationFailed(err))

		var vErr *faber.ValidationFailedError
		require.ErrorAs(t, err, &vErr)
		// The complete report travels with the error, warnings included.
		assert.Len(t, vErr.Issues, 3)
		require.Len(t, vErr.Errors(), 1)
		assert.Equal(t, gen.DuplicateEntityName, vErr.Errors()[0].Kind)
		assert.Equal(t, faber.ExitValidationFailed, faber.ExitCode(err))
	})

	t.Run("returns the partial result with the failure", func(t *testing.T) {
		user, err := load.NewEntity("User", field.String("name").MaxLength(50).Descriptor())
		require.NoError(t, err)
		line, err := load.NewEntity("Line",
			field.String("order").MaxLength(10).Descriptor(),
			field.ForeignKey("user", "User").OnDelete(field.Cascade).Descriptor(),
		)
		require.NoError(t, err)
		d, err := load.NewConfig("shop", "1.0.0", user, line)
		require.NoError(t, err)

		res, err := faber.Generate(context.Background(), d, gen.WithLogger(quietLogger()))
		require.ErrorIs(t, err, faber.ErrPartialFailure)
		require.True(t, faber.IsPartialFailure(err))
		require.NotNil(t, res)

		failed := res.Manifest.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, gen.Cell{Entity: "Line", Kind: gen.KindModel, Target: "sql"}, failed[0].Cell)
		assert.Contains(t, failed[0].Error, `"order" is a reserved word`)
		assert.Len(t, res.Manifest.Entries, 18)
		assert.Len(t, res.Artifacts, 17)
		assert.Equal(t, faber.ExitPartialFailure, faber.ExitCode(err))
	})

	t.Run("warnings do not block generation", func(t *testing.T) {
		tag, err := load.NewEntity("Tag", field.String("name").MaxLength(40).Descriptor())
		require.NoError(t, err)
		d, err := load.NewConfig("tags", "0.1.0", tag)
		require.NoError(t, err)

		res, err := faber.Generate(context.Background(), d, gen.WithLogger(quietLogger()))
		require.NoError(t, err)
		assert.True(t, res.Manifest.OK())
		assert.Len(t, res.Manifest.Entries, 9)
		assert.Equal(t, faber.ExitOK, faber.ExitCode(err))
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		tag, err := load.NewEntity("Tag", field.String("name").MaxLength(40).Descriptor())
		require.NoError(t, err)
		d, err := load.NewConfig("tags", "0.1.0", tag)
		require.NoError(t, err)

		res, err := faber.Generate(context.Background(), d, gen.WithWorkers(-1))
		require.Nil(t, res)
		assert.True(t, gen.IsConfigError(err))
		assert.Equal(t, faber.ExitValidationFailed, faber.ExitCode(err))
	})

	t.Run("canceled contexts abort the run", func(t *testing.T) {
		tag, err := load.NewEntity("Tag", field.String("name").MaxLength(40).Descriptor())
		require.NoError(t, err)
		d, err := load.NewConfig("tags", "0.1.0", tag)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := faber.Generate(ctx, d, gen.WithLogger(quietLogger()))
		require.Nil(t, res)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestValidate(t *testing.T) {
	t.Run("clean configs yield an empty report", func(t *testing.T) {
		user, err := load.NewEntity("User", field.String("name").MaxLength(50).Descriptor())
		require.NoError(t, err)
		task, err := load.NewEntity("Task",
			field.String("title").MaxLength(200).Descriptor(),
			field.ForeignKey("owner", "User").OnDelete(field.Cascade).Descriptor(),
		)
		require.NoError(t, err)
		d, err := load.NewConfig("crm", "1.0.0", user, task)
		require.NoError(t, err)

		issues, err := faber.Validate(d)
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("warnings appear in the report", func(t *testing.T) {
		tag, err := load.NewEntity("Tag", field.String("name").MaxLength(40).Descriptor())
		require.NoError(t, err)
		d, err := load.NewConfig("tags", "0.1.0", tag)
		require.NoError(t, err)

		issues, err := faber.Validate(d)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, gen.OrphanEntity, issues[0].Kind)
		assert.Equal(t, gen.SeverityWarning, issues[0].Severity)
		assert.False(t, gen.HasErrors(issues))
	})
}

func TestValidateFile(t *testing.T) {
	t.Run("reports issues of a stored config", func(t *testing.T) {
		issues, err := faber.ValidateFile(writeConfig(t, `name: crm
version: 1.0.0
entities:
  - name: Task
    fields:
      - name: title
        type: string
        max_length: 80
      - name: title
        type: text
`))
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, gen.DuplicateFieldName, issues[0].Kind)
		assert.Equal(t, gen.OrphanEntity, issues[1].Kind)
		assert.True(t, gen.HasErrors(issues))
	})

	t.Run("schema errors surface unchanged", func(t *testing.T) {
		issues, err := faber.ValidateFile(writeConfig(t, `name: crm
version: 1.0.0
entities:
  - name: Task
    fields:
      - name: ref
        type: uuid
`))
		require.Error(t, err)
		assert.Nil(t, issues)
		assert.True(t, load.IsSchemaError(err))
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"no error", nil, faber.ExitOK},
		{"validation failure", faber.NewValidationFailedError(nil), faber.ExitValidationFailed},
		{"partial failure", faber.NewPartialFailureError(&gen.Manifest{}), faber.ExitPartialFailure},
		{"wrapped partial failure", fmt.Errorf("run: %w", faber.NewPartialFailureError(&gen.Manifest{})), faber.ExitPartialFailure},
		{"parse failure", load.NewParseError(errors.New("bad document")), faber.ExitValidationFailed},
		{"config failure", gen.NewConfigError("Workers", -1, "worker count cannot be negative"), faber.ExitValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, faber.ExitCode(tt.err))
		})
	}
}

func TestValidationFailedError(t *testing.T) {
	t.Run("single error renders inline", func(t *testing.T) {
		err := faber.NewValidationFailedError([]gen.Issue{
			{
				Kind:     gen.DuplicateEntityName,
				Severity: gen.SeverityError,
				Entity:   "User",
				Message:  `entity "User" is declared more than once`,
			},
			{
				Kind:     gen.OrphanEntity,
				Severity: gen.SeverityWarning,
				Entity:   "Tag",
				Message:  `entity "Tag" has no relationships`,
			},
		})
		assert.Equal(t,
			`faber: validation failed: error: duplicate_entity_name: entity User: entity "User" is declared more than once`,
			err.Error(),
		)
		assert.Len(t, err.Errors(), 1)
	})

	t.Run("multiple errors are listed", func(t *testing.T) {
		err := faber.NewValidationFailedError([]gen.Issue{
			{Kind: gen.DuplicateEntityName, Severity: gen.SeverityError, Entity: "User", Message: "a"},
			{Kind: gen.DuplicateFieldName, Severity: gen.SeverityError, Entity: "Task", Field: "title", Message: "b"},
		})
		want := "faber: validation failed with 2 errors:\n" +
			"  [1] error: duplicate_entity_name: entity User: a\n" +
			"  [2] error: duplicate_field_name: entity Task, field title: b"
		assert.Equal(t, want, err.Error())
		assert.ErrorIs(t, err, faber.ErrValidationFailed)
	})
}

func TestPartialFailureError(t *testing.T) {
	m := &gen.Manifest{Entries: []gen.Entry{
		{
			Cell:   gen.Cell{Entity: "User", Kind: gen.KindModel, Target: "sql"},
			Status: gen.StatusSuccess,
			Path:   "sql/model/user.sql",
		},
		{
			Cell:   gen.Cell{Entity: "Line", Kind: gen.KindModel, Target: "sql"},
			Status: gen.StatusFailure,
			Error:  "boom",
		},
	}}
	err := faber.NewPartialFailureError(m)
	assert.Equal(t, "faber: 1 of 2 cells failed\n  [1] Line/model/sql: boom", err.Error())
	assert.ErrorIs(t, err, faber.ErrPartialFailure)
	assert.False(t, faber.IsPartialFailure(errors.New("other")))
}
