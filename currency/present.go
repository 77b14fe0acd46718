package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STATEMENT - An entry as shown to a user
// =============================================================================

// Statement is a payroll entry converted into a display currency with every
// amount rounded to whole units. Rounding happens here and nowhere earlier.
type Statement struct {
	EmployeeID generic.EmployeeID
	Period     generic.Period
	Currency   Currency

	PaidDays   int
	UnpaidDays int

	BaseSalary            decimal.Decimal
	ServiceCharge         decimal.Decimal
	Overtime              decimal.Decimal
	UnpaidLeaveDeduction  decimal.Decimal
	GrossPay              decimal.Decimal
	Tax                   decimal.Decimal
	Contribution          decimal.Decimal
	ManualDeduction       decimal.Decimal
	ManualDeductionReason string
	TotalDeductions       decimal.Decimal
	NetPay                decimal.Decimal
}

// Present converts entry into the display currency.
func (t *RateTable) Present(entry generic.PayrollEntry, display generic.CurrencyCode) (Statement, error) {
	cur, err := t.Lookup(display)
	if err != nil {
		return Statement{}, err
	}

	var convErr error
	conv := func(v decimal.Decimal) decimal.Decimal {
		if convErr != nil {
			return decimal.Zero
		}
		out, err := t.Convert(v, entry.Currency, display)
		if err != nil {
			convErr = err
			return decimal.Zero
		}
		return out.Round(0)
	}

	st := Statement{
		EmployeeID:            entry.EmployeeID,
		Period:                entry.Period,
		Currency:              cur,
		PaidDays:              entry.PaidDays,
		UnpaidDays:            entry.UnpaidDays,
		BaseSalary:            conv(entry.BaseSalary),
		ServiceCharge:         conv(entry.ServiceCharge),
		Overtime:              conv(entry.Overtime),
		UnpaidLeaveDeduction:  conv(entry.UnpaidLeaveDeduction),
		GrossPay:              conv(entry.GrossPay),
		Tax:                   conv(entry.Tax),
		Contribution:          conv(entry.Contribution),
		ManualDeduction:       conv(entry.ManualDeduction),
		ManualDeductionReason: entry.ManualDeductionReason,
		TotalDeductions:       conv(entry.TotalDeductions),
		NetPay:                conv(entry.NetPay),
	}
	if convErr != nil {
		return Statement{}, convErr
	}
	return st, nil
}

// =============================================================================
// FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.English)

// Format renders amount with the currency symbol and grouped digits,
// rounded to places decimals: Format(1517783.33, K, 0) == "K1,517,783".
func Format(amount decimal.Decimal, cur Currency, places int32) string {
	rounded := amount.Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	var digits string
	if places <= 0 {
		digits = printer.Sprintf("%d", rounded.IntPart())
	} else {
		f, _ := rounded.Float64()
		digits = printer.Sprintf(fmt.Sprintf("%%.%df", places), f)
	}
	return sign + cur.Symbol + digits
}
