/*
Package attendance turns per-day attendance codes into the paid/unpaid day
counts payroll needs.

PURPOSE:
  An attendance record is one status code per calendar day of the period.
  The status table says which codes are paid. DeriveSummary counts them;
  Resize keeps a record aligned with the period length.

KEY CONCEPTS:
  - StatusTable: code -> label + paid flag, plus the padding code for new days
  - Summary: per-code counts, total days, paid and unpaid day totals
  - Sheet: the records of every employee for one period

INVARIANTS:
  - Sum of Summary.Counts == len(statuses) == Summary.TotalDays
  - Summary.TotalPaidDays + Summary.UnpaidDays == Summary.TotalDays
  - A record always has exactly Period.Days() statuses

SEE ALSO:
  - payroll/engine.go: Consumes Summary.UnpaidDays
  - factory/policy.go: Builds a StatusTable from JSON
*/
package attendance

import (
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STATUS TABLE
// =============================================================================

// Code is a short attendance status code such as "P" or "LW".
type Code string

type Status struct {
	Code  Code
	Label string
	Paid  bool
}

// StatusTable is immutable once built.
type StatusTable struct {
	statuses []Status
	byCode   map[Code]Status
	padding  Code
}

// NewStatusTable builds a table. The padding code must be present and paid,
// since new days start out as worked days.
func NewStatusTable(statuses []Status, padding Code) (*StatusTable, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: empty attendance status table", generic.ErrInvalidPolicy)
	}
	t := &StatusTable{
		statuses: make([]Status, 0, len(statuses)),
		byCode:   make(map[Code]Status, len(statuses)),
		padding:  padding,
	}
	for _, s := range statuses {
		if s.Code == "" {
			return nil, fmt.Errorf("%w: attendance status with empty code", generic.ErrInvalidPolicy)
		}
		if _, dup := t.byCode[s.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate attendance status %q", generic.ErrInvalidPolicy, s.Code)
		}
		t.byCode[s.Code] = s
		t.statuses = append(t.statuses, s)
	}
	pad, ok := t.byCode[padding]
	if !ok || !pad.Paid {
		return nil, fmt.Errorf("%w: padding status %q must be a paid code", generic.ErrInvalidPolicy, padding)
	}
	return t, nil
}

const (
	Present         Code = "P"
	OffDay          Code = "O"
	SickLeave       Code = "S"
	LeaveWithPay    Code = "L"
	LeaveWithoutPay Code = "LW"
	Absent          Code = "A"
)

// DefaultStatuses is the built-in hotel attendance code set.
func DefaultStatuses() []Status {
	return []Status{
		{Code: Present, Label: "Present Day", Paid: true},
		{Code: OffDay, Label: "Off Day", Paid: true},
		{Code: SickLeave, Label: "Sick Leave", Paid: true},
		{Code: LeaveWithPay, Label: "Leave With Pay", Paid: true},
		{Code: LeaveWithoutPay, Label: "Leave Without Pay", Paid: false},
		{Code: Absent, Label: "Absent", Paid: false},
	}
}

func DefaultStatusTable() *StatusTable {
	t, err := NewStatusTable(DefaultStatuses(), Present)
	if err != nil {
		panic(err) // built-in table is always valid
	}
	return t
}

func (t *StatusTable) Lookup(code Code) (Status, bool) {
	s, ok := t.byCode[code]
	return s, ok
}

// Statuses returns the table in declaration order.
func (t *StatusTable) Statuses() []Status {
	out := make([]Status, len(t.statuses))
	copy(out, t.statuses)
	return out
}

func (t *StatusTable) Padding() Code { return t.padding }
