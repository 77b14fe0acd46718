package roster

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// EMPLOYEE HISTORY
// =============================================================================

// AddEvent records a history entry for an employee on the current roster.
func (r *Roster) AddEvent(ctx context.Context, ev generic.EmployeeEvent) (generic.EmployeeEvent, error) {
	var missing []string
	if !ev.Type.Valid() {
		missing = append(missing, "type")
	}
	if ev.Date.IsZero() {
		missing = append(missing, "date")
	}
	if ev.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return generic.EmployeeEvent{}, &generic.EmployeeValidationError{EmployeeID: ev.EmployeeID, Fields: missing}
	}

	r.ensureHistory(ctx, ev.EmployeeID)

	r.mu.Lock()
	if r.indexLocked(ev.EmployeeID) < 0 {
		r.mu.Unlock()
		return generic.EmployeeEvent{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, ev.EmployeeID)
	}
	if ev.ID == "" {
		ev.ID = generic.EventID("EVT-" + uuid.NewString())
	}
	r.appendEventLocked(ev)
	r.mu.Unlock()

	r.persistEvent(ctx, ev)
	return ev, nil
}

// Events returns an employee's history ordered by date. History outlives
// the roster entry, so a removed employee still has events.
func (r *Roster) Events(ctx context.Context, id generic.EmployeeID) []generic.EmployeeEvent {
	r.ensureHistory(ctx, id)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]generic.EmployeeEvent, len(r.history[id]))
	copy(out, r.history[id])
	return out
}

// ensureHistory merges stored events into memory the first time an
// employee's history is touched.
func (r *Roster) ensureHistory(ctx context.Context, id generic.EmployeeID) {
	r.mu.RLock()
	done := r.historyLoaded[id]
	r.mu.RUnlock()
	if done {
		return
	}

	stored, err := r.eventStore.ListEvents(ctx, id)
	if err != nil {
		r.log.Error().Err(err).Str("employee_id", string(id)).Msg("failed to load employee history")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.historyLoaded[id] {
		return
	}
	seen := make(map[generic.EventID]bool, len(r.history[id]))
	for _, ev := range r.history[id] {
		seen[ev.ID] = true
	}
	for _, ev := range stored {
		if !seen[ev.ID] {
			r.history[id] = append(r.history[id], ev)
		}
	}
	sortEvents(r.history[id])
	r.historyLoaded[id] = true
}

func (r *Roster) appendEventLocked(ev generic.EmployeeEvent) {
	r.history[ev.EmployeeID] = append(r.history[ev.EmployeeID], ev)
	sortEvents(r.history[ev.EmployeeID])
}

func (r *Roster) persistEvent(ctx context.Context, ev generic.EmployeeEvent) {
	if err := r.eventStore.AppendEvent(ctx, ev); err != nil {
		r.log.Error().Err(err).
			Str("employee_id", string(ev.EmployeeID)).
			Str("event_type", string(ev.Type)).
			Msg("failed to persist employee event")
	}
}

func sortEvents(evs []generic.EmployeeEvent) {
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Date.Before(evs[j].Date) })
}

func hiredEvent(emp generic.Employee, description string) generic.EmployeeEvent {
	return generic.EmployeeEvent{
		ID:          generic.EventID("EVT-" + uuid.NewString()),
		EmployeeID:  emp.ID,
		Date:        emp.JoinDate,
		Type:        generic.EventHired,
		Description: description,
	}
}
