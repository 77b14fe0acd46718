package currency_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
)

func d(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

// =============================================================================
// CONVERT
// =============================================================================

func TestConvert_ReferenceToCanonical(t *testing.T) {
	// GIVEN: The default table (USD 1, MMK 3500)
	// WHEN: 400 USD is converted to MMK
	// THEN: The result is exactly 1,400,000

	rates := currency.DefaultRateTable()
	got, err := rates.Convert(d("400"), currency.USD, currency.MMK)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("1400000")), got.String())
}

func TestConvert_SameCurrencyIsIdentity(t *testing.T) {
	rates := currency.DefaultRateTable()
	got, err := rates.Convert(d("50000"), currency.MMK, currency.MMK)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("50000")))
}

func TestConvert_CrossRate(t *testing.T) {
	// 92 EUR = 100 USD = 350,000 MMK
	rates := currency.DefaultRateTable()
	got, err := rates.Convert(d("92"), currency.EUR, currency.MMK)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("350000")), got.String())
}

func TestConvert_RoundTripWithinTolerance(t *testing.T) {
	rates := currency.DefaultRateTable()
	tolerance := d("0.000001")

	for _, c := range rates.Currencies() {
		there, err := rates.Convert(d("1234567.89"), currency.MMK, c.Code)
		require.NoError(t, err)
		back, err := rates.Convert(there, c.Code, currency.MMK)
		require.NoError(t, err)
		assert.True(t, back.Sub(d("1234567.89")).Abs().LessThan(tolerance),
			"%s round trip drifted to %s", c.Code, back)
	}
}

func TestConvert_UnknownCurrency(t *testing.T) {
	rates := currency.DefaultRateTable()

	_, err := rates.Convert(d("1"), "XYZ", currency.MMK)
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)

	_, err = rates.Convert(d("1"), currency.USD, "XYZ")
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)
}

func TestConvertMoney(t *testing.T) {
	rates := currency.DefaultRateTable()
	m, err := rates.ConvertMoney(generic.NewMoney(300, currency.USD), currency.MMK)
	require.NoError(t, err)
	assert.Equal(t, currency.MMK, m.Currency)
	assert.True(t, m.Value.Equal(d("1050000")))
}

// =============================================================================
// RATE TABLE
// =============================================================================

func TestNewRateTable_RejectsZeroRate(t *testing.T) {
	_, err := currency.NewRateTable([]currency.Currency{
		{Code: currency.USD, Rate: d("1")},
		{Code: currency.MMK, Rate: decimal.Zero},
	})
	assert.ErrorIs(t, err, generic.ErrZeroDivisor)
}

func TestNewRateTable_RejectsNegativeAndDuplicates(t *testing.T) {
	_, err := currency.NewRateTable([]currency.Currency{{Code: currency.USD, Rate: d("-1")}})
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)

	_, err = currency.NewRateTable([]currency.Currency{
		{Code: currency.USD, Rate: d("1")},
		{Code: currency.USD, Rate: d("2")},
	})
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)

	_, err = currency.NewRateTable(nil)
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)
}

// =============================================================================
// PRESENT / FORMAT
// =============================================================================

func TestPresent_RoundsOnlyAtTheEnd(t *testing.T) {
	// GIVEN: An MMK entry with a fractional net pay
	// WHEN: It is presented in MMK and USD
	// THEN: Amounts are whole units in the display currency

	rates := currency.DefaultRateTable()
	entry := generic.PayrollEntry{
		EmployeeID: "EMP001",
		Period:     generic.NewPeriod(2024, time.March),
		Currency:   currency.MMK,
		BaseSalary: d("1400000"),
		GrossPay:   d("1650000"),
		Tax:        d("104216.6666666666666667"),
		NetPay:     d("1517783.3333333333333333"),
	}

	mmk, err := rates.Present(entry, currency.MMK)
	require.NoError(t, err)
	assert.True(t, mmk.NetPay.Equal(d("1517783")))
	assert.True(t, mmk.Tax.Equal(d("104217")))
	assert.Equal(t, "K", mmk.Currency.Symbol)

	usd, err := rates.Present(entry, currency.USD)
	require.NoError(t, err)
	assert.True(t, usd.BaseSalary.Equal(d("400")))
	assert.True(t, usd.GrossPay.Equal(d("471")), usd.GrossPay.String())

	_, err = rates.Present(entry, "XYZ")
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)
}

func TestFormat(t *testing.T) {
	rates := currency.DefaultRateTable()
	kyat, err := rates.Lookup(currency.MMK)
	require.NoError(t, err)

	assert.Equal(t, "K1,517,783", currency.Format(d("1517783.33"), kyat, 0))
	assert.Equal(t, "-K2,500", currency.Format(d("-2500"), kyat, 0))
	assert.Equal(t, "K0", currency.Format(decimal.Zero, kyat, 0))
}
