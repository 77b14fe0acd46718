package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// DefaultServiceMoneyPerPoint is the opening service money per point, in the
// display currency.
var DefaultServiceMoneyPerPoint = decimal.NewFromInt(50_000)

// PeriodConfig holds the per-period inputs a user edits before calculating.
// Amounts are in DisplayCurrency.
type PeriodConfig struct {
	Period               generic.Period
	DisplayCurrency      generic.CurrencyCode
	ServiceMoneyPerPoint decimal.Decimal
	Deductions           map[generic.EmployeeID]generic.Deduction
	Overtime             map[generic.EmployeeID]decimal.Decimal
}

func NewPeriodConfig(period generic.Period, display generic.CurrencyCode) PeriodConfig {
	return PeriodConfig{
		Period:               period,
		DisplayCurrency:      display,
		ServiceMoneyPerPoint: DefaultServiceMoneyPerPoint,
		Deductions:           make(map[generic.EmployeeID]generic.Deduction),
		Overtime:             make(map[generic.EmployeeID]decimal.Decimal),
	}
}

func (c PeriodConfig) Clone() PeriodConfig {
	out := c
	out.Deductions = make(map[generic.EmployeeID]generic.Deduction, len(c.Deductions))
	for k, v := range c.Deductions {
		out.Deductions[k] = v
	}
	out.Overtime = make(map[generic.EmployeeID]decimal.Decimal, len(c.Overtime))
	for k, v := range c.Overtime {
		out.Overtime[k] = v
	}
	return out
}
