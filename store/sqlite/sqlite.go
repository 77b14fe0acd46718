/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the payroll engine on one
  SQLite file, so finalized runs, the roster, employee history and
  preferences survive restarts.

INTERFACES IMPLEMENTED:
  generic.RunStore:        Finalized payroll runs
  generic.RosterStore:     Employee records
  generic.EventStore:      Employee history
  generic.PreferenceStore: Organization name and selected currency

KEY TABLES:
  payroll_runs:    One row per (year, month); entries and roster as JSON
  employees:       Roster records, ordered by sort_order
  employee_events: Dated history, no foreign key so it outlives the employee
  preferences:     Key/value settings

RUN REPLACEMENT:
  payroll_runs carries UNIQUE(year, month). SaveRun upserts on it, so
  finalizing a period twice leaves exactly one run.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/ledger.go: Historical ledger using RunStore
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ generic.RunStore        = (*Store)(nil)
	_ generic.RosterStore     = (*Store)(nil)
	_ generic.EventStore      = (*Store)(nil)
	_ generic.PreferenceStore = (*Store)(nil)
)

const dateLayout = "2006-01-02"

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Finalized payroll runs
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		entries_json TEXT NOT NULL,
		employees_json TEXT NOT NULL,
		finalized_at TEXT NOT NULL,
		UNIQUE(year, month)
	);

	-- Roster
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		sort_order INTEGER NOT NULL,
		name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL,
		join_date TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		salary_currency TEXT NOT NULL,
		service_points INTEGER NOT NULL DEFAULT 0,
		has_spouse BOOLEAN NOT NULL DEFAULT FALSE,
		children INTEGER NOT NULL DEFAULT 0,
		parents INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_sort_order
		ON employees(sort_order);

	-- Employee history (no FK: history outlives the roster record)
	CREATE TABLE IF NOT EXISTS employee_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		event_date TEXT NOT NULL,
		event_type TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employee_events_employee_date
		ON employee_events(employee_id, event_date);

	-- Preferences
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN STORE (generic.RunStore interface)
// =============================================================================

// SaveRun upserts the run for its period.
func (s *Store) SaveRun(ctx context.Context, run generic.PayrollRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entriesJSON, err := json.Marshal(run.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	employeesJSON, err := json.Marshal(run.Employees)
	if err != nil {
		return fmt.Errorf("failed to encode employees: %w", err)
	}

	query := `
		INSERT INTO payroll_runs (year, month, entries_json, employees_json, finalized_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET
			entries_json = excluded.entries_json,
			employees_json = excluded.employees_json,
			finalized_at = excluded.finalized_at
	`

	_, err = s.db.ExecContext(ctx, query,
		run.Period.Year, int(run.Period.Month),
		string(entriesJSON), string(employeesJSON),
		run.FinalizedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.Period, err)
	}
	return nil
}

// GetRun retrieves the run for a period.
func (s *Store) GetRun(ctx context.Context, period generic.Period) (*generic.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT year, month, entries_json, employees_json, finalized_at
		 FROM payroll_runs WHERE year = ? AND month = ?`,
		period.Year, int(period.Month),
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]generic.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT year, month, entries_json, employees_json, finalized_at
		 FROM payroll_runs ORDER BY year, month`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (generic.PayrollRun, error) {
	var run generic.PayrollRun
	var month int
	var entriesJSON, employeesJSON, finalizedAt string

	if err := row.Scan(&run.Period.Year, &month, &entriesJSON, &employeesJSON, &finalizedAt); err != nil {
		return generic.PayrollRun{}, err
	}
	run.Period.Month = time.Month(month)
	if err := json.Unmarshal([]byte(entriesJSON), &run.Entries); err != nil {
		return generic.PayrollRun{}, fmt.Errorf("failed to decode entries of %s: %w", run.Period, err)
	}
	if err := json.Unmarshal([]byte(employeesJSON), &run.Employees); err != nil {
		return generic.PayrollRun{}, fmt.Errorf("failed to decode employees of %s: %w", run.Period, err)
	}
	finalized, err := time.Parse(time.RFC3339Nano, finalizedAt)
	if err != nil {
		return generic.PayrollRun{}, fmt.Errorf("invalid finalized_at of %s: %w", run.Period, err)
	}
	run.FinalizedAt = finalized
	return run, nil
}

// =============================================================================
// ROSTER STORE (generic.RosterStore interface)
// =============================================================================

const employeeColumns = `id, name, department, position, join_date, base_salary, salary_currency,
	service_points, has_spouse, children, parents`

// ListEmployees returns the roster in insertion order.
func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY sort_order",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []generic.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, err := scanEmployee(s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// SaveEmployee upserts an employee. New employees go to the end of the roster.
func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveEmployee(ctx, s.db, emp)
}

// SaveEmployees upserts several employees in one transaction.
func (s *Store) SaveEmployees(ctx context.Context, emps []generic.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, emp := range emps {
		if err := s.saveEmployee(ctx, sqlTx, emp); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func (s *Store) saveEmployee(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, emp generic.Employee) error {
	query := `
		INSERT INTO employees (id, sort_order, name, department, position, join_date,
			base_salary, salary_currency, service_points, has_spouse, children, parents,
			created_at, updated_at)
		VALUES (?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM employees),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			position = excluded.position,
			join_date = excluded.join_date,
			base_salary = excluded.base_salary,
			salary_currency = excluded.salary_currency,
			service_points = excluded.service_points,
			has_spouse = excluded.has_spouse,
			children = excluded.children,
			parents = excluded.parents,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Department, emp.Position,
		emp.JoinDate.Time.Format(dateLayout),
		emp.BaseSalary.Value.String(), emp.BaseSalary.Currency,
		emp.ServicePoints, emp.Dependents.HasSpouse, emp.Dependents.Children, emp.Dependents.Parents,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// DeleteEmployee removes an employee. Their events are kept.
func (s *Store) DeleteEmployee(ctx context.Context, id generic.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return err
}

func scanEmployee(row scanner) (generic.Employee, error) {
	var emp generic.Employee
	var joinDate, salary string

	err := row.Scan(&emp.ID, &emp.Name, &emp.Department, &emp.Position, &joinDate,
		&salary, &emp.BaseSalary.Currency,
		&emp.ServicePoints, &emp.Dependents.HasSpouse, &emp.Dependents.Children, &emp.Dependents.Parents,
	)
	if err != nil {
		return generic.Employee{}, err
	}
	if emp.BaseSalary.Value, err = decimal.NewFromString(salary); err != nil {
		return generic.Employee{}, fmt.Errorf("invalid base_salary for employee %s: %w", emp.ID, err)
	}
	if emp.JoinDate, err = generic.ParseDate(joinDate); err != nil {
		return generic.Employee{}, fmt.Errorf("invalid join_date for employee %s: %w", emp.ID, err)
	}
	return emp, nil
}

// =============================================================================
// EVENT STORE (generic.EventStore interface)
// =============================================================================

// AppendEvent adds an event to an employee's history.
func (s *Store) AppendEvent(ctx context.Context, event generic.EmployeeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount sql.NullString
	if event.Amount != nil {
		amount = sql.NullString{String: event.Amount.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employee_events (id, employee_id, event_date, event_type, description, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.EmployeeID, event.Date.Time.Format(dateLayout),
		event.Type, event.Description, amount,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: duplicate event id %s", generic.ErrInvalidInput, event.ID)
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEvents returns an employee's events ordered by date, then insertion.
func (s *Store) ListEvents(ctx context.Context, id generic.EmployeeID) ([]generic.EmployeeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, event_date, event_type, description, amount
		 FROM employee_events WHERE employee_id = ?
		 ORDER BY event_date ASC, rowid ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []generic.EmployeeEvent
	for rows.Next() {
		var ev generic.EmployeeEvent
		var date string
		var amount sql.NullString
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &date, &ev.Type, &ev.Description, &amount); err != nil {
			return nil, err
		}
		var err error
		if ev.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("invalid event_date for event %s: %w", ev.ID, err)
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("invalid amount for event %s: %w", ev.ID, err)
			}
			ev.Amount = &d
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// PREFERENCE STORE (generic.PreferenceStore interface)
// =============================================================================

func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
