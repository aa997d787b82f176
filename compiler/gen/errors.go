// Package gen turns validated domain graphs into generated artifacts.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidConfig indicates an engine configuration error.
	ErrInvalidConfig = errors.New("faber: invalid engine configuration")
	// ErrInvalidIdentifier indicates a name that cannot be used on a target.
	ErrInvalidIdentifier = errors.New("faber: invalid identifier")
	// ErrGenerationFailed indicates an artifact generation failure.
	ErrGenerationFailed = errors.New("faber: generation failed")
)

// ConfigError represents an engine configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("faber: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("faber: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// InvalidIdentifierError reports an entity or field name that collides
// with a reserved word of a target, or that cannot be mapped to a legal
// identifier on it. It is raised before any template substitution runs.
type InvalidIdentifierError struct {
	Name   string // offending entity or field name
	Target string // target the name is illegal on
	Reason string
}

// Error implements the error interface.
func (e *InvalidIdentifierError) Error() string {
	var b strings.Builder
	b.WriteString("faber: invalid identifier")
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Target != "" {
		b.WriteString(" for target ")
		b.WriteString(e.Target)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for InvalidIdentifierError.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// NewInvalidIdentifierError creates a new InvalidIdentifierError.
func NewInvalidIdentifierError(name, target, reason string) *InvalidIdentifierError {
	return &InvalidIdentifierError{
		Name:   name,
		Target: target,
		Reason: reason,
	}
}

// GenerationError represents the failure of a single generation cell.
// It carries enough context to place the failure in the run manifest
// without affecting sibling cells.
type GenerationError struct {
	Entity  string
	Kind    ArtifactKind
	Target  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("faber: generation error")
	if e.Entity != "" {
		b.WriteString(" for entity ")
		b.WriteString(e.Entity)
	}
	if e.Kind != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Kind))
		if e.Target != "" {
			b.WriteString("/")
			b.WriteString(e.Target)
		}
		b.WriteString(")")
	} else if e.Target != "" {
		b.WriteString(" on target ")
		b.WriteString(e.Target)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(entity string, kind ArtifactKind, target, message string, cause error) *GenerationError {
	return &GenerationError{
		Entity:  entity,
		Kind:    kind,
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsInvalidIdentifierError reports whether the error is an InvalidIdentifierError.
func IsInvalidIdentifierError(err error) bool {
	var identErr *InvalidIdentifierError
	return errors.As(err, &identErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
