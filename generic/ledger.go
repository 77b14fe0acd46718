/*
ledger.go - Historical ledger of finalized payroll runs

PURPOSE:
  The ledger is the durable record of what was paid. The current payroll is
  ephemeral and recomputed whenever an input changes; a run only becomes
  history when it is finalized here.

CRITICAL INVARIANTS:
  1. ONE RUN PER PERIOD: Finalizing a period again replaces the stored run
  2. ISOLATED: A run holds its own copies of entries and roster, so later
     edits to either never alter history
  3. NO OTHER WRITES: Finalize is the only mutation. Runs are never deleted

EXAMPLE FLOW:
  1. Calculate March payroll, finalize: run 2024-03 stored
  2. Raise an employee's salary, recalculate, finalize: run 2024-03 replaced
  3. Finalize April: run 2024-04 stored, March untouched

SEE ALSO:
  - store.go: RunStore persistence interface
  - snapshot.go: PayrollRun and RunTotals
*/
package generic

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// HISTORICAL LEDGER
// =============================================================================

type HistoricalLedger interface {
	// Finalize freezes entries and roster as the run for period.
	Finalize(ctx context.Context, period Period, entries []PayrollEntry, employees []Employee) (PayrollRun, error)

	// Retrieve returns the run for period, or ErrRunNotFound.
	Retrieve(ctx context.Context, period Period) (PayrollRun, error)

	// ListPeriods returns every finalized period in chronological order.
	ListPeriods(ctx context.Context) ([]Period, error)

	// Trend returns per-run totals in chronological order.
	Trend(ctx context.Context) ([]RunTotals, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using RunStore
// =============================================================================

type DefaultLedger struct {
	Store RunStore
	Now   func() time.Time
}

func NewLedger(store RunStore) *DefaultLedger {
	return &DefaultLedger{Store: store, Now: time.Now}
}

func (l *DefaultLedger) Finalize(ctx context.Context, period Period, entries []PayrollEntry, employees []Employee) (PayrollRun, error) {
	if !period.Valid() {
		return PayrollRun{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	run := PayrollRun{
		Period:      period,
		Entries:     entries,
		Employees:   employees,
		FinalizedAt: now().UTC(),
	}.Clone()

	if err := l.Store.SaveRun(ctx, run); err != nil {
		return PayrollRun{}, fmt.Errorf("saving run %s: %w", period, err)
	}
	return run.Clone(), nil
}

func (l *DefaultLedger) Retrieve(ctx context.Context, period Period) (PayrollRun, error) {
	run, err := l.Store.GetRun(ctx, period)
	if err != nil {
		return PayrollRun{}, err
	}
	if run == nil {
		return PayrollRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, period)
	}
	return run.Clone(), nil
}

func (l *DefaultLedger) ListPeriods(ctx context.Context) ([]Period, error) {
	runs, err := l.Store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	periods := make([]Period, 0, len(runs))
	for _, r := range runs {
		periods = append(periods, r.Period)
	}
	SortPeriods(periods)
	return periods, nil
}

func (l *DefaultLedger) Trend(ctx context.Context) ([]RunTotals, error) {
	runs, err := l.Store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	totals := make([]RunTotals, 0, len(runs))
	for _, r := range runs {
		totals = append(totals, r.Totals())
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Period.Before(totals[j].Period) })
	return totals, nil
}
