/*
Package roster owns the employee records payroll is computed from.

PURPOSE:
  Validated add, update, delete and bulk CSV import of employees, plus the
  dated history kept for each of them. The in-memory roster is the source
  of truth while the process runs; writes to the backing store happen after
  the in-memory update and a failed write is logged, not returned.

KEY CONCEPTS:
  - Roster: ordered employee list + per-employee event history
  - Import: all-or-nothing CSV roster import (see csv.go)
  - Hired event: recorded automatically on add and on import

SEE ALSO:
  - generic/store.go: RosterStore and EventStore
  - payroll/coordinator.go: Invalidates payroll on every roster mutation
*/
package roster

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ROSTER
// =============================================================================

type Roster struct {
	mu            sync.RWMutex
	employees     []generic.Employee
	history       map[generic.EmployeeID][]generic.EmployeeEvent
	historyLoaded map[generic.EmployeeID]bool

	store      generic.RosterStore
	eventStore generic.EventStore
	log        zerolog.Logger
}

func New(store generic.RosterStore, events generic.EventStore, log zerolog.Logger) *Roster {
	return &Roster{
		history:       make(map[generic.EmployeeID][]generic.EmployeeEvent),
		historyLoaded: make(map[generic.EmployeeID]bool),
		store:         store,
		eventStore:    events,
		log:           log,
	}
}

// Load replaces the in-memory roster with the stored one.
func (r *Roster) Load(ctx context.Context) error {
	emps, err := r.store.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees = emps
	return nil
}

// List returns the roster in order.
func (r *Roster) List() []generic.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]generic.Employee, len(r.employees))
	copy(out, r.employees)
	return out
}

func (r *Roster) Get(id generic.EmployeeID) (generic.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.employees[i], nil
	}
	return generic.Employee{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.employees)
}

// Add validates and appends an employee, assigning an ID when none is given,
// and records a Hired event.
func (r *Roster) Add(ctx context.Context, emp generic.Employee) (generic.Employee, error) {
	if err := emp.Validate(); err != nil {
		return generic.Employee{}, err
	}

	r.mu.Lock()
	if emp.ID == "" {
		emp.ID = r.newIDLocked()
	} else if r.indexLocked(emp.ID) >= 0 {
		r.mu.Unlock()
		return generic.Employee{}, &generic.EmployeeValidationError{EmployeeID: emp.ID, Fields: []string{"id"}}
	}
	r.employees = append(r.employees, emp)
	hired := hiredEvent(emp, fmt.Sprintf("Hired as %s in the %s department.", emp.Position, emp.Department))
	r.appendEventLocked(hired)
	r.mu.Unlock()

	r.persistEmployees(ctx, emp)
	r.persistEvent(ctx, hired)
	r.log.Debug().Str("employee_id", string(emp.ID)).Stringer("salary", emp.BaseSalary).Msg("employee added")
	return emp, nil
}

// Update replaces an existing record in place. The roster position is kept.
func (r *Roster) Update(ctx context.Context, emp generic.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	i := r.indexLocked(emp.ID)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, emp.ID)
	}
	r.employees[i] = emp
	r.mu.Unlock()

	r.persistEmployees(ctx, emp)
	return nil
}

// Delete removes an employee. Their history is kept.
func (r *Roster) Delete(ctx context.Context, id generic.EmployeeID) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	r.employees = append(r.employees[:i:i], r.employees[i+1:]...)
	r.mu.Unlock()

	if err := r.store.DeleteEmployee(ctx, id); err != nil {
		r.log.Error().Err(err).Str("employee_id", string(id)).Msg("failed to delete employee from store")
	}
	return nil
}

// Replace swaps the whole roster, used to load demo data.
func (r *Roster) Replace(ctx context.Context, emps []generic.Employee) error {
	for _, e := range emps {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	previous := r.employees
	r.employees = append([]generic.Employee(nil), emps...)
	r.mu.Unlock()

	for _, old := range previous {
		if err := r.store.DeleteEmployee(ctx, old.ID); err != nil {
			r.log.Error().Err(err).Str("employee_id", string(old.ID)).Msg("failed to delete employee from store")
		}
	}
	r.persistEmployees(ctx, emps...)
	return nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (r *Roster) indexLocked(id generic.EmployeeID) int {
	for i, e := range r.employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (r *Roster) newIDLocked() generic.EmployeeID {
	for {
		id := generic.EmployeeID("EMP-" + strings.ToUpper(uuid.NewString()[:8]))
		if r.indexLocked(id) < 0 {
			return id
		}
	}
}

func (r *Roster) persistEmployees(ctx context.Context, emps ...generic.Employee) {
	var err error
	if len(emps) == 1 {
		err = r.store.SaveEmployee(ctx, emps[0])
	} else {
		err = r.store.SaveEmployees(ctx, emps)
	}
	if err != nil {
		r.log.Error().Err(err).Int("count", len(emps)).Msg("failed to persist employees")
	}
}
