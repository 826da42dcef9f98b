// =============================================================================
// RCDV Generator - Input Validation
// =============================================================================
//
// This module validates the expense spreadsheet at the boundary, before any
// aggregation happens. It checks:
//   - Header presence: every required column must exist
//   - Order numbers: must be integers
//   - Amounts: must be decimal numbers (bad values are excluded, not fatal)
//   - Uniformity: fields assumed constant per order or traveler
//
// ERROR HANDLING:
//   - Fatal problems are returned as errors wrapping ErrInvalidInput, so the
//     HTTP layer can answer 400 with a precise message
//   - Non-fatal problems are collected as warnings and logged by the caller
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks every error caused by the caller's data rather than
// by the system.
var ErrInvalidInput = errors.New("invalid input")

// =============================================================================
// SEVERITY
// =============================================================================

// Severity levels of a ValidationError.
const (
	// SeverityError is fatal; the batch stops.
	SeverityError = "error"

	// SeverityWarning is reported and processing continues.
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single problem found in the input.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Column is the canonical header of the offending column, if any.
	Column string

	// Value is the raw cell value.
	Value string

	// Message is a human-readable description.
	Message string

	// Row is the 1-indexed source line; 0 when not row-specific.
	Row int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, "column %q: ", e.Column)
	}
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: %q)", e.Value)
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// IsWarning reports whether the problem is non-fatal.
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// MissingColumnsError lists every required column absent from the header.
type MissingColumnsError struct {
	Missing []string
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	noun := "column"
	if len(e.Missing) > 1 {
		noun = "columns"
	}
	return fmt.Sprintf("missing %s: %s", noun, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *MissingColumnsError) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation problems for display or logging.
//
// PARAMETERS:
//   - errs: The problems to format.
//
// RETURNS:
//   - A numbered list, one problem per line.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d problem(s):\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&builder, "%d. [%s] %s\n", i+1, strings.ToUpper(err.Severity), err.Error())
	}
	return builder.String()
}

// Warnings returns only the non-fatal entries.
func Warnings(errs []*ValidationError) []*ValidationError {
	var out []*ValidationError
	for _, e := range errs {
		if e.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}
