/*
store.go - Persistence interfaces for runs, roster, history and preferences

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  RunStore:        Finalized payroll runs, one per (year, month)
  RosterStore:     Employee records in roster order
  EventStore:      Per-employee dated history, kept after the employee
                   leaves the roster
  PreferenceStore: Small key/value settings (organization name, currency)

UPSERT CONTRACT:
  SaveRun replaces any run stored for the same period. There is no other
  way to change a finalized run, and no way to delete one.

NOT FOUND:
  Single-record getters return (nil, nil) when the record is absent.
  Callers translate that into the domain sentinel they need.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using RunStore
  - store/sqlite/sqlite.go: Concrete implementation
*/
package generic

import "context"

// =============================================================================
// RUN STORE - Finalized payroll snapshots
// =============================================================================

type RunStore interface {
	// SaveRun upserts the run keyed by its period.
	SaveRun(ctx context.Context, run PayrollRun) error

	// GetRun returns the run for a period, or nil if none was finalized.
	GetRun(ctx context.Context, period Period) (*PayrollRun, error)

	// ListRuns returns every run in chronological order.
	ListRuns(ctx context.Context) ([]PayrollRun, error)
}

// =============================================================================
// ROSTER STORE - Employee records
// =============================================================================

type RosterStore interface {
	// ListEmployees returns the roster in insertion order.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// GetEmployee returns nil if the employee does not exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// SaveEmployee upserts a record. An update keeps the roster position.
	SaveEmployee(ctx context.Context, emp Employee) error

	// SaveEmployees upserts several records atomically.
	SaveEmployees(ctx context.Context, emps []Employee) error

	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

// =============================================================================
// EVENT STORE - Employee history
// =============================================================================

type EventStore interface {
	AppendEvent(ctx context.Context, event EmployeeEvent) error

	// ListEvents returns an employee's events ordered by date.
	ListEvents(ctx context.Context, id EmployeeID) ([]EmployeeEvent, error)
}

// =============================================================================
// PREFERENCE STORE - Key/value settings
// =============================================================================

const (
	PrefOrganizationName = "organization_name"
	PrefSelectedCurrency = "selected_currency"
)

type PreferenceStore interface {
	// GetPreference returns ("", false, nil) for an unset key.
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}
