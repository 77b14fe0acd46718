/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - Rejected roster records and imports
  2. Computation preconditions - No current payroll, zero divisors
  3. Lookup errors - Unknown employees, runs, currencies, status codes

USAGE:
  Callers branch with errors.Is on the sentinels:

    if errors.Is(err, generic.ErrNoPayroll) {
        // prompt the user to calculate first
    }

SEE ALSO:
  - ledger.go: Returns ErrRunNotFound
  - roster/: Returns EmployeeValidationError and ImportError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a roster record is missing required fields.
	// The roster is left unchanged.
	ErrValidation = errors.New("employee validation failed")

	// ErrImport is returned when a CSV roster import is rejected. Nothing is applied.
	ErrImport = errors.New("roster import failed")

	// ErrNoPayroll is returned when finalize, payslip or report is requested
	// and no current payroll set exists. Calculate first.
	ErrNoPayroll = errors.New("no payroll calculated for the current inputs")

	// ErrZeroDivisor is returned instead of producing NaN or Inf.
	ErrZeroDivisor = errors.New("division by zero")

	// ErrUnknownStatus is returned for attendance codes missing from the status table.
	ErrUnknownStatus = errors.New("unknown attendance status")

	// ErrUnknownCurrency is returned for currency codes missing from the rate table.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRunNotFound is returned when no finalized run exists for a period.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrInvalidPeriod is returned when a period is malformed.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrAttendanceMismatch is returned when an attendance summary does not
	// cover exactly the days of the period being computed.
	ErrAttendanceMismatch = errors.New("attendance does not match period length")

	// ErrInvalidPolicy is returned when a tax or currency policy is malformed.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidInput is returned for rejected payroll inputs such as a
	// negative deduction.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EmployeeValidationError names the fields that failed validation.
type EmployeeValidationError struct {
	EmployeeID EmployeeID
	Fields     []string
}

func (e *EmployeeValidationError) Error() string {
	return fmt.Sprintf("employee validation failed: missing or invalid %s",
		strings.Join(e.Fields, ", "))
}

func (e *EmployeeValidationError) Unwrap() error {
	return ErrValidation
}

// RowError describes one rejected CSV row. Row is 1-based and counts the
// header, so it matches what a spreadsheet shows.
type RowError struct {
	Row    int
	Column string
	Reason string
}

func (r RowError) String() string {
	if r.Column == "" {
		return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
	}
	return fmt.Sprintf("row %d, column %s: %s", r.Row, r.Column, r.Reason)
}

// ImportError reports every problem found in a rejected import.
type ImportError struct {
	MissingColumns []string
	Rows           []RowError
}

func (e *ImportError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("roster import failed: missing columns %s",
			strings.Join(e.MissingColumns, ", "))
	}
	if len(e.Rows) == 0 {
		return "roster import failed"
	}
	if len(e.Rows) == 1 {
		return "roster import failed: " + e.Rows[0].String()
	}
	return fmt.Sprintf("roster import failed: %d invalid rows (first: %s)",
		len(e.Rows), e.Rows[0].String())
}

func (e *ImportError) Unwrap() error {
	return ErrImport
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrImport) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrUnknownCurrency) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrAttendanceMismatch) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRunNotFound)
}
