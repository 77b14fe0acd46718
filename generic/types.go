/*
Package generic provides the core types of the payroll engine.

PURPOSE:
  This package contains the domain-agnostic building blocks shared by every
  payroll component: money on decimal arithmetic, pay periods, the employee
  record the engine reads, the computed pay entry, the finalized run snapshot,
  errors, and the persistence interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal value tagged with a currency code
  - Employee: The roster record the engine reads (never mutates)
  - PayrollEntry: One employee's computed pay for one period
  - EmployeeEvent: A dated entry in an employee's history

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Type Safety: Strong typing for IDs and currency codes
  3. Value Semantics: Records hold no pointers into shared state, so a
     struct copy is a deep copy (see snapshot.go)

USAGE:
  salary := generic.NewMoney(400, "USD")
  emp := generic.Employee{ID: "EMP001", Name: "Aung Aung", BaseSalary: salary}

SEE ALSO:
  - period.go: Pay period keys
  - snapshot.go: Finalized payroll runs
  - ledger.go: Historical ledger over a RunStore
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal value with a currency
// =============================================================================

// CurrencyCode is an ISO-style currency code such as "USD" or "MMK".
type CurrencyCode string

type Money struct {
	Value    decimal.Decimal
	Currency CurrencyCode
}

func NewMoney(value float64, currency CurrencyCode) Money {
	return Money{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewMoneyFromInt(value int64, currency CurrencyCode) Money {
	return Money{Value: decimal.NewFromInt(value), Currency: currency}
}

// MustParseDecimal parses a decimal literal and panics if it is malformed.
// Use it for constants only, never for stored or user-supplied values.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("generic: invalid decimal literal %q: %v", s, err))
	}
	return d
}

func (m Money) IsNegative() bool { return m.Value.IsNegative() }
func (m Money) String() string   { return m.Value.String() + " " + string(m.Currency) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EventID string

// =============================================================================
// EMPLOYEE - Roster record consumed by the engine
// =============================================================================

// DependentProfile drives the family allowances of the tax calculation.
type DependentProfile struct {
	HasSpouse bool
	Children  int
	Parents   int
}

type Employee struct {
	ID         EmployeeID
	Name       string
	Department string
	Position   string
	JoinDate   TimePoint

	// BaseSalary is stored in the reference currency of the rate table.
	BaseSalary    Money
	ServicePoints int
	Dependents    DependentProfile
}

// Validate checks the fields a roster record cannot be saved without.
func (e Employee) Validate() error {
	var missing []string
	if e.Name == "" {
		missing = append(missing, "name")
	}
	if e.Position == "" {
		missing = append(missing, "position")
	}
	if e.JoinDate.IsZero() {
		missing = append(missing, "joinDate")
	}
	if e.BaseSalary.IsNegative() {
		missing = append(missing, "baseSalary")
	}
	if e.ServicePoints < 0 || e.Dependents.Children < 0 || e.Dependents.Parents < 0 {
		missing = append(missing, "counts")
	}
	if len(missing) > 0 {
		return &EmployeeValidationError{EmployeeID: e.ID, Fields: missing}
	}
	return nil
}

// =============================================================================
// PAYROLL ENTRY - One employee, one period
// =============================================================================

// PayrollEntry holds every monetary figure in the canonical computation
// currency named by Currency. Entries are ephemeral: the coordinator drops
// them whenever an input changes.
type PayrollEntry struct {
	EmployeeID EmployeeID
	Period     Period
	Currency   CurrencyCode

	PaidDays   int
	UnpaidDays int

	BaseSalary           decimal.Decimal
	ServiceCharge        decimal.Decimal
	Overtime             decimal.Decimal
	UnpaidLeaveDeduction decimal.Decimal
	GrossPay             decimal.Decimal

	Tax                   decimal.Decimal
	Contribution          decimal.Decimal
	ManualDeduction       decimal.Decimal
	ManualDeductionReason string
	TotalDeductions       decimal.Decimal

	// NetPay may be negative; it is never clamped.
	NetPay decimal.Decimal
}

// Deduction is a manual, per-employee deduction for one period.
type Deduction struct {
	Amount decimal.Decimal
	Reason string
}

// =============================================================================
// EMPLOYEE EVENTS - History kept alongside the roster
// =============================================================================

type EventType string

const (
	EventHired        EventType = "hired"
	EventPromotion    EventType = "promotion"
	EventPenalty      EventType = "penalty"
	EventSalaryChange EventType = "salary_change"
	EventNote         EventType = "note"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventHired, EventPromotion, EventPenalty, EventSalaryChange, EventNote:
		return true
	}
	return false
}

type EmployeeEvent struct {
	ID          EventID
	EmployeeID  EmployeeID
	Date        TimePoint
	Type        EventType
	Description string
	Amount      *decimal.Decimal // penalties and salary changes only
}
