// Package store provides in-memory implementations of the generic store interfaces.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements RunStore, RosterStore, EventStore and PreferenceStore.
type Memory struct {
	mu          sync.RWMutex
	runs        map[generic.Period]generic.PayrollRun
	employees   map[generic.EmployeeID]generic.Employee
	order       []generic.EmployeeID
	events      map[generic.EmployeeID][]generic.EmployeeEvent
	preferences map[string]string
}

var (
	_ generic.RunStore        = (*Memory)(nil)
	_ generic.RosterStore     = (*Memory)(nil)
	_ generic.EventStore      = (*Memory)(nil)
	_ generic.PreferenceStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		runs:        make(map[generic.Period]generic.PayrollRun),
		employees:   make(map[generic.EmployeeID]generic.Employee),
		events:      make(map[generic.EmployeeID][]generic.EmployeeEvent),
		preferences: make(map[string]string),
	}
}

// =============================================================================
// RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run generic.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.Period] = run.Clone()
	return nil
}

func (m *Memory) GetRun(_ context.Context, period generic.Period) (*generic.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[period]
	if !ok {
		return nil, nil
	}
	out := run.Clone()
	return &out, nil
}

func (m *Memory) ListRuns(_ context.Context) ([]generic.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.PayrollRun, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period.Before(result[j].Period) })
	return result, nil
}

// =============================================================================
// ROSTER
// =============================================================================

func (m *Memory) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Employee, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.employees[id])
	}
	return result, nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Memory) SaveEmployee(_ context.Context, emp generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveEmployeeLocked(emp)
	return nil
}

// SaveEmployees writes every record under one lock, so readers never see a
// partial batch.
func (m *Memory) SaveEmployees(_ context.Context, emps []generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, emp := range emps {
		m.saveEmployeeLocked(emp)
	}
	return nil
}

func (m *Memory) saveEmployeeLocked(emp generic.Employee) {
	if _, exists := m.employees[emp.ID]; !exists {
		m.order = append(m.order, emp.ID)
	}
	m.employees[emp.ID] = emp
}

func (m *Memory) DeleteEmployee(_ context.Context, id generic.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return nil
	}
	delete(m.employees, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Memory) AppendEvent(_ context.Context, event generic.EmployeeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.events[event.EmployeeID]

	// Keep events ordered by date; equal dates keep insertion order.
	i := sort.Search(len(evs), func(i int) bool {
		return evs[i].Date.After(event.Date)
	})
	evs = append(evs, generic.EmployeeEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = event
	m.events[event.EmployeeID] = evs
	return nil
}

func (m *Memory) ListEvents(_ context.Context, id generic.EmployeeID) ([]generic.EmployeeEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.EmployeeEvent, len(m.events[id]))
	copy(result, m.events[id])
	return result, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

func (m *Memory) GetPreference(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.preferences[key]
	return v, ok, nil
}

func (m *Memory) SetPreference(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[key] = value
	return nil
}
