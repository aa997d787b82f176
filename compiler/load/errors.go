package load

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel errors for loader failure cases.
var (
	// ErrParse indicates malformed serialized input.
	ErrParse = errors.New("faber: parse error")
	// ErrSchema indicates a structurally incomplete domain config.
	ErrSchema = errors.New("faber: schema error")
)

// ParseError represents malformed serialized input. It is fatal: no
// validation or generation runs after it.
type ParseError struct {
	Line  int // 1-based input line, 0 when unknown
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("faber: parse domain config")
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

var lineRx = regexp.MustCompile(`line (\d+)`)

// NewParseError creates a new ParseError, recovering the input line
// from the decoder error text when present.
func NewParseError(cause error) *ParseError {
	e := &ParseError{Cause: cause}
	if cause != nil {
		if m := lineRx.FindStringSubmatch(cause.Error()); m != nil {
			e.Line, _ = strconv.Atoi(m[1])
		}
	}
	return e
}

// SchemaError represents a structurally incomplete or contradictory
// declaration inside an otherwise well-formed document: a missing
// required key, a type outside the closed set, or a constraint that
// is absent or does not belong to the declared type. It is fatal.
type SchemaError struct {
	Path   string // config path of the offending value, e.g. entities[1].fields[0].choices
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("faber: invalid domain config")
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(path, format string, args ...any) *SchemaError {
	return &SchemaError{
		Path:   path,
		Reason: fmt.Sprintf(format, args...),
	}
}

// IsParseError reports whether the error is a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
