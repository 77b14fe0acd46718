package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYROLL RUN - Frozen payroll at finalize time
// =============================================================================

// PayrollRun captures a period's computed entries together with the roster
// they were computed from. Later roster edits never reach a stored run.
type PayrollRun struct {
	Period      Period
	Entries     []PayrollEntry
	Employees   []Employee
	FinalizedAt time.Time
}

// Clone returns a copy sharing no backing arrays with r.
// Entries and employees hold only values, so copying the slices is enough.
func (r PayrollRun) Clone() PayrollRun {
	out := r
	out.Entries = make([]PayrollEntry, len(r.Entries))
	copy(out.Entries, r.Entries)
	out.Employees = make([]Employee, len(r.Employees))
	copy(out.Employees, r.Employees)
	return out
}

// Employee returns the roster record frozen with the run.
func (r PayrollRun) Employee(id EmployeeID) (Employee, bool) {
	for _, e := range r.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// =============================================================================
// RUN TOTALS - Aggregates for reports and trends
// =============================================================================

type RunTotals struct {
	Period          Period
	Headcount       int
	GrossPay        decimal.Decimal
	Tax             decimal.Decimal
	Contribution    decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
}

func (r PayrollRun) Totals() RunTotals {
	t := RunTotals{Period: r.Period, Headcount: len(r.Entries)}
	for _, e := range r.Entries {
		t.GrossPay = t.GrossPay.Add(e.GrossPay)
		t.Tax = t.Tax.Add(e.Tax)
		t.Contribution = t.Contribution.Add(e.Contribution)
		t.TotalDeductions = t.TotalDeductions.Add(e.TotalDeductions)
		t.NetPay = t.NetPay.Add(e.NetPay)
	}
	return t
}

