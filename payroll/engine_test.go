package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func newTestEngine(t *testing.T) *payroll.Engine {
	calc, err := tax.NewCalculator(tax.DefaultPolicy())
	require.NoError(t, err)
	eng, err := payroll.NewEngine(payroll.EngineConfig{
		Rates:             currency.DefaultRateTable(),
		Tax:               calc,
		ReferenceCurrency: currency.USD,
		CanonicalCurrency: currency.MMK,
		ContributionRate:  d("0.02"),
	})
	require.NoError(t, err)
	return eng
}

func aungAung() generic.Employee {
	return generic.Employee{
		ID:            "EMP001",
		Name:          "Aung Aung",
		Department:    "Front Office",
		Position:      "Receptionist",
		JoinDate:      generic.NewTimePoint(2022, time.January, 15),
		BaseSalary:    generic.NewMoney(400, currency.USD),
		ServicePoints: 5,
		Dependents:    generic.DependentProfile{HasSpouse: true, Children: 1},
	}
}

// april2024 has 30 days.
var april2024 = generic.NewPeriod(2024, time.April)

func summaryFor(t *testing.T, days int, unpaid int) attendance.Summary {
	statuses := attendance.Fill(days, attendance.Present)
	for i := 0; i < unpaid; i++ {
		statuses[i] = attendance.Absent
	}
	s, err := attendance.DeriveSummary(statuses, attendance.DefaultStatusTable())
	require.NoError(t, err)
	return s
}

// =============================================================================
// WORKED EXAMPLE
// =============================================================================

func TestComputeEntry_Receptionist(t *testing.T) {
	// GIVEN: 400 USD base, 5 points at 50,000 MMK, spouse and one child,
	//        full attendance, no overtime or manual deductions
	// WHEN: The entry is computed
	// THEN: Every figure matches the hand calculation

	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	require.NoError(t, err)

	assert.Equal(t, currency.MMK, e.Currency)
	assert.True(t, e.BaseSalary.Equal(d("1400000")), e.BaseSalary.String())
	assert.True(t, e.ServiceCharge.Equal(d("250000")), e.ServiceCharge.String())
	assert.True(t, e.Overtime.IsZero())
	assert.True(t, e.GrossPay.Equal(d("1650000")))
	assert.True(t, e.Contribution.Equal(d("28000")))
	assert.True(t, e.UnpaidLeaveDeduction.IsZero())
	assert.True(t, e.Tax.Round(2).Equal(d("104216.67")), e.Tax.String())
	assert.True(t, e.NetPay.Round(0).Equal(d("1517783")), e.NetPay.String())
	assert.Equal(t, 30, e.PaidDays)
	assert.Equal(t, 0, e.UnpaidDays)

	// Net is exactly gross minus total deductions.
	assert.True(t, e.GrossPay.Sub(e.TotalDeductions).Equal(e.NetPay))
	assert.True(t, e.TotalDeductions.Equal(e.Tax.Add(e.Contribution).Add(e.UnpaidLeaveDeduction).Add(e.ManualDeduction)))
}

func TestComputeEntry_ServiceMoneyInDisplayCurrency(t *testing.T) {
	// GIVEN: Service money entered as 20 USD per point
	// THEN: 5 points are worth 5 * 70,000 MMK

	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.USD)
	cfg.ServiceMoneyPerPoint = d("20")

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	require.NoError(t, err)
	assert.True(t, e.ServiceCharge.Equal(d("350000")), e.ServiceCharge.String())
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

func TestComputeEntry_UnpaidDays(t *testing.T) {
	// GIVEN: 3 unpaid days in a 30-day month
	// THEN: Deduction is 3/30 of base, and tax is assessed on the reduced base

	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)

	full, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	require.NoError(t, err)
	short, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 3), cfg)
	require.NoError(t, err)

	assert.True(t, short.UnpaidLeaveDeduction.Equal(d("140000")), short.UnpaidLeaveDeduction.String())
	assert.Equal(t, 3, short.UnpaidDays)
	assert.Equal(t, 27, short.PaidDays)
	assert.True(t, short.Tax.LessThan(full.Tax))
	// Gross is not reduced; the unpaid days appear as a deduction.
	assert.True(t, short.GrossPay.Equal(full.GrossPay))
	// Contribution stays on the full base.
	assert.True(t, short.Contribution.Equal(full.Contribution))
}

func TestComputeEntry_ManualDeductionAndOvertime(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.USD)
	cfg.ServiceMoneyPerPoint = decimal.Zero
	cfg.Deductions["EMP001"] = generic.Deduction{Amount: d("10"), Reason: "Uniform"}
	cfg.Overtime["EMP001"] = d("20")

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	require.NoError(t, err)

	assert.True(t, e.ManualDeduction.Equal(d("35000")), e.ManualDeduction.String())
	assert.Equal(t, "Uniform", e.ManualDeductionReason)
	assert.True(t, e.Overtime.Equal(d("70000")))
	assert.True(t, e.GrossPay.Equal(d("1470000")))
}

func TestComputeEntry_NegativeNetIsNotClamped(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)
	cfg.Deductions["EMP001"] = generic.Deduction{Amount: d("5000000"), Reason: "Damages"}

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	require.NoError(t, err)
	assert.True(t, e.NetPay.IsNegative(), e.NetPay.String())
}

func TestComputeEntry_AllDaysUnpaid(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)
	cfg.ServiceMoneyPerPoint = decimal.Zero

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 30), cfg)
	require.NoError(t, err)
	assert.True(t, e.UnpaidLeaveDeduction.Equal(e.BaseSalary))
	assert.True(t, e.Tax.IsZero())
	// Contribution still applies, so net is negative.
	assert.True(t, e.NetPay.Equal(d("-28000")), e.NetPay.String())
}

// =============================================================================
// GUARDS
// =============================================================================

func TestComputeEntry_ZeroDayPeriod(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(generic.Period{}, currency.MMK)

	_, err := eng.ComputeEntry(aungAung(), attendance.Summary{}, cfg)
	assert.ErrorIs(t, err, generic.ErrZeroDivisor)
}

func TestComputeEntry_AttendanceLengthMismatch(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)

	_, err := eng.ComputeEntry(aungAung(), summaryFor(t, 31, 0), cfg)
	assert.ErrorIs(t, err, generic.ErrAttendanceMismatch)
}

func TestComputeEntry_UnknownDisplayCurrency(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, "XYZ")

	_, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 0), cfg)
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)
}

func TestComputeAll_MissingAttendance(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)

	_, err := eng.ComputeAll([]generic.Employee{aungAung()}, nil, cfg)
	assert.ErrorIs(t, err, generic.ErrAttendanceMismatch)
}

func TestNewEngine_UnknownCanonical(t *testing.T) {
	calc, err := tax.NewCalculator(tax.DefaultPolicy())
	require.NoError(t, err)
	_, err = payroll.NewEngine(payroll.EngineConfig{
		Rates:             currency.DefaultRateTable(),
		Tax:               calc,
		ReferenceCurrency: currency.USD,
		CanonicalCurrency: "XYZ",
	})
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)
}

func TestTaxDetail_MatchesEntry(t *testing.T) {
	eng := newTestEngine(t)
	cfg := payroll.NewPeriodConfig(april2024, currency.MMK)

	e, err := eng.ComputeEntry(aungAung(), summaryFor(t, 30, 2), cfg)
	require.NoError(t, err)

	detail := eng.TaxDetail(aungAung(), e)
	assert.True(t, detail.MonthlyTax.Equal(e.Tax))
}
