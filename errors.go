package faber

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/faber/compiler/gen"
)

// Process exit codes of a run. The CLI maps every outcome onto these
// three codes so scripts can tell a clean run from a blocked one and
// from partial output.
const (
	// ExitOK means every cell of the run produced its artifact.
	ExitOK = 0
	// ExitValidationFailed means the run stopped before generation:
	// the config did not parse, the engine configuration was invalid,
	// or validation reported blocking issues. No artifacts exist.
	ExitValidationFailed = 1
	// ExitPartialFailure means at least one cell failed. Artifacts of
	// the successful cells exist.
	ExitPartialFailure = 2
)

// Sentinel errors for the run outcomes.
var (
	// ErrValidationFailed indicates blocking validation issues.
	ErrValidationFailed = errors.New("faber: validation failed")
	// ErrPartialFailure indicates a run with failed cells.
	ErrPartialFailure = errors.New("faber: partial generation failure")
)

// ValidationFailedError reports the issues that blocked a run before
// any artifact was generated. Issues holds the complete report of the
// validation pass, warnings included.
type ValidationFailedError struct {
	Issues []gen.Issue
}

// Error implements the error interface.
func (e *ValidationFailedError) Error() string {
	errs := gen.Errors(e.Issues)
	if len(errs) == 1 {
		return "faber: validation failed: " + errs[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "faber: validation failed with %d errors:", len(errs))
	for i, issue := range errs {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, issue)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ValidationFailedError.
func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Errors returns the blocking issues of the report.
func (e *ValidationFailedError) Errors() []gen.Issue {
	return gen.Errors(e.Issues)
}

// NewValidationFailedError creates a new ValidationFailedError.
func NewValidationFailedError(issues []gen.Issue) *ValidationFailedError {
	return &ValidationFailedError{Issues: issues}
}

// IsValidationFailed reports whether the error is a ValidationFailedError.
func IsValidationFailed(err error) bool {
	var vErr *ValidationFailedError
	return errors.As(err, &vErr)
}

// PartialFailureError reports a run in which some cells failed while
// the rest produced artifacts. The manifest records both.
type PartialFailureError struct {
	Manifest *gen.Manifest
}

// Error implements the error interface.
func (e *PartialFailureError) Error() string {
	failed := e.Manifest.Failed()
	var b strings.Builder
	fmt.Fprintf(&b, "faber: %d of %d cells failed", len(failed), len(e.Manifest.Entries))
	for i, entry := range failed {
		fmt.Fprintf(&b, "\n  [%d] %s: %s", i+1, entry.Cell, entry.Error)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for PartialFailureError.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

// NewPartialFailureError creates a new PartialFailureError.
func NewPartialFailureError(m *gen.Manifest) *PartialFailureError {
	return &PartialFailureError{Manifest: m}
}

// IsPartialFailure reports whether the error is a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pErr *PartialFailureError
	return errors.As(err, &pErr)
}

// ExitCode maps a run error to its process exit code. Partial failures
// exit 2; every other failure, parse and configuration errors
// included, exits 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsPartialFailure(err):
		return ExitPartialFailure
	default:
		return ExitValidationFailed
	}
}
