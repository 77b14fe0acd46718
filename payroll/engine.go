/*
Package payroll computes monthly pay entries and coordinates the state
that feeds them.

PURPOSE:
  The Engine is a pure function of one employee, their attendance summary
  and the period configuration. The Coordinator owns the mutable inputs
  (roster, attendance sheet, period configuration), keeps the current entry
  set in step with them, and hands finished sets to the historical ledger.

FORMULAS (all in the canonical currency):
  base          = convert(employee base salary, reference -> canonical)
  service       = points * convert(service money per point, display -> canonical)
  overtime      = convert(overtime, display -> canonical), default 0
  gross         = base + service + overtime
  daily rate    = base / days in period
  unpaid leave  = daily rate * unpaid days
  contribution  = contribution rate * base
  taxable/month = max(0, base - unpaid leave) + service + overtime
  tax           = monthly tax on (taxable/month * 12) with annual contribution
  manual        = convert(manual deduction, display -> canonical)
  deductions    = tax + contribution + unpaid leave + manual
  net           = gross - deductions (may be negative)

SEE ALSO:
  - coordinator.go: State ownership and invalidation
  - tax/tax.go: Bracket calculation
  - currency/currency.go: Conversion
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// ENGINE
// =============================================================================

type EngineConfig struct {
	Rates *currency.RateTable
	Tax   *tax.Calculator

	// ReferenceCurrency is the currency salaries are stored in.
	ReferenceCurrency generic.CurrencyCode
	// CanonicalCurrency is the currency every entry is computed in.
	CanonicalCurrency generic.CurrencyCode
	ContributionRate  decimal.Decimal
}

type Engine struct {
	cfg EngineConfig
}

var annualize = decimal.NewFromInt(12)

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Rates == nil || cfg.Tax == nil {
		return nil, fmt.Errorf("%w: engine needs a rate table and a tax calculator", generic.ErrInvalidPolicy)
	}
	if _, err := cfg.Rates.Lookup(cfg.ReferenceCurrency); err != nil {
		return nil, fmt.Errorf("reference currency: %w", err)
	}
	if _, err := cfg.Rates.Lookup(cfg.CanonicalCurrency); err != nil {
		return nil, fmt.Errorf("canonical currency: %w", err)
	}
	if cfg.ContributionRate.IsNegative() {
		return nil, fmt.Errorf("%w: negative contribution rate", generic.ErrInvalidPolicy)
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() EngineConfig            { return e.cfg }
func (e *Engine) Rates() *currency.RateTable      { return e.cfg.Rates }
func (e *Engine) Canonical() generic.CurrencyCode { return e.cfg.CanonicalCurrency }

// ComputeEntry computes one employee's entry. The summary must cover the
// period exactly.
func (e *Engine) ComputeEntry(emp generic.Employee, summary attendance.Summary, cfg PeriodConfig) (generic.PayrollEntry, error) {
	days := cfg.Period.Days()
	if days == 0 {
		return generic.PayrollEntry{}, fmt.Errorf("%w: period %s has no days", generic.ErrZeroDivisor, cfg.Period)
	}
	if summary.TotalDays != days {
		return generic.PayrollEntry{}, fmt.Errorf("%w: %s has %d days, attendance for %s has %d",
			generic.ErrAttendanceMismatch, cfg.Period, days, emp.ID, summary.TotalDays)
	}

	canonical := e.cfg.CanonicalCurrency
	toCanonical := func(amount decimal.Decimal, from generic.CurrencyCode) (decimal.Decimal, error) {
		return e.cfg.Rates.Convert(amount, from, canonical)
	}

	salaryCurrency := emp.BaseSalary.Currency
	if salaryCurrency == "" {
		salaryCurrency = e.cfg.ReferenceCurrency
	}
	base, err := toCanonical(emp.BaseSalary.Value, salaryCurrency)
	if err != nil {
		return generic.PayrollEntry{}, fmt.Errorf("base salary of %s: %w", emp.ID, err)
	}

	perPoint, err := toCanonical(cfg.ServiceMoneyPerPoint, cfg.DisplayCurrency)
	if err != nil {
		return generic.PayrollEntry{}, fmt.Errorf("service money: %w", err)
	}
	service := perPoint.Mul(decimal.NewFromInt(int64(emp.ServicePoints)))

	overtime := decimal.Zero
	if ot, ok := cfg.Overtime[emp.ID]; ok {
		if overtime, err = toCanonical(ot, cfg.DisplayCurrency); err != nil {
			return generic.PayrollEntry{}, fmt.Errorf("overtime of %s: %w", emp.ID, err)
		}
	}

	manual := decimal.Zero
	ded := cfg.Deductions[emp.ID]
	if !ded.Amount.IsZero() {
		if manual, err = toCanonical(ded.Amount, cfg.DisplayCurrency); err != nil {
			return generic.PayrollEntry{}, fmt.Errorf("deduction of %s: %w", emp.ID, err)
		}
	}

	gross := base.Add(service).Add(overtime)
	// base / days * unpaid, multiplied first so whole-day fractions stay exact
	unpaid := base.Mul(decimal.NewFromInt(int64(summary.UnpaidDays))).Div(decimal.NewFromInt(int64(days)))
	contribution := e.cfg.ContributionRate.Mul(base)

	earnedBase := base.Sub(unpaid)
	if earnedBase.IsNegative() {
		earnedBase = decimal.Zero
	}
	taxableMonthly := earnedBase.Add(service).Add(overtime)
	monthlyTax := e.cfg.Tax.MonthlyTax(
		taxableMonthly.Mul(annualize),
		emp.Dependents,
		contribution.Mul(annualize),
	)

	total := monthlyTax.Add(contribution).Add(unpaid).Add(manual)

	return generic.PayrollEntry{
		EmployeeID:            emp.ID,
		Period:                cfg.Period,
		Currency:              canonical,
		PaidDays:              summary.TotalPaidDays,
		UnpaidDays:            summary.UnpaidDays,
		BaseSalary:            base,
		ServiceCharge:         service,
		Overtime:              overtime,
		UnpaidLeaveDeduction:  unpaid,
		GrossPay:              gross,
		Tax:                   monthlyTax,
		Contribution:          contribution,
		ManualDeduction:       manual,
		ManualDeductionReason: ded.Reason,
		TotalDeductions:       total,
		NetPay:                gross.Sub(total),
	}, nil
}

// TaxDetail recomputes the tax breakdown behind an entry, for payslips.
func (e *Engine) TaxDetail(emp generic.Employee, entry generic.PayrollEntry) tax.Result {
	earnedBase := entry.BaseSalary.Sub(entry.UnpaidLeaveDeduction)
	if earnedBase.IsNegative() {
		earnedBase = decimal.Zero
	}
	taxable := earnedBase.Add(entry.ServiceCharge).Add(entry.Overtime)
	return e.cfg.Tax.Compute(taxable.Mul(annualize), emp.Dependents, entry.Contribution.Mul(annualize))
}

// ComputeAll computes an entry for every employee, in roster order.
// A failure on any employee fails the whole set.
func (e *Engine) ComputeAll(employees []generic.Employee, summaries map[generic.EmployeeID]attendance.Summary, cfg PeriodConfig) ([]generic.PayrollEntry, error) {
	entries := make([]generic.PayrollEntry, 0, len(employees))
	for _, emp := range employees {
		summary, ok := summaries[emp.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no attendance for %s", generic.ErrAttendanceMismatch, emp.ID)
		}
		entry, err := e.ComputeEntry(emp, summary, cfg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
