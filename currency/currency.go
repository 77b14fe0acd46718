/*
Package currency converts amounts between the currencies of a rate table.

PURPOSE:
  Payroll is computed in one canonical currency. Salaries are stored in a
  reference currency, and users enter service money and deductions in a
  display currency. Every crossing between them goes through Convert.

RATES:
  Each rate is "units of this currency per one base unit". With USD as the
  base (rate 1) and MMK at 3500, 400 USD is 1,400,000 MMK.

    Convert(amount, from, to) = amount / rate[from] * rate[to]

  The multiplication is done first so that whole-number rates stay exact.

SEE ALSO:
  - present.go: Rounded display statements
  - factory/policy.go: Builds a RateTable from JSON
*/
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CURRENCY
// =============================================================================

type Currency struct {
	Code   generic.CurrencyCode
	Name   string
	Symbol string
	Rate   decimal.Decimal
}

const (
	USD generic.CurrencyCode = "USD"
	MMK generic.CurrencyCode = "MMK"
	EUR generic.CurrencyCode = "EUR"
	SGD generic.CurrencyCode = "SGD"
	THB generic.CurrencyCode = "THB"
	CNY generic.CurrencyCode = "CNY"
)

func DefaultCurrencies() []Currency {
	return []Currency{
		{Code: USD, Name: "US Dollar", Symbol: "$", Rate: decimal.NewFromInt(1)},
		{Code: MMK, Name: "Myanmar Kyat", Symbol: "K", Rate: decimal.NewFromInt(3500)},
		{Code: EUR, Name: "Euro", Symbol: "€", Rate: generic.MustParseDecimal("0.92")},
		{Code: SGD, Name: "Singapore Dollar", Symbol: "S$", Rate: generic.MustParseDecimal("1.35")},
		{Code: THB, Name: "Thai Baht", Symbol: "฿", Rate: generic.MustParseDecimal("36.5")},
		{Code: CNY, Name: "Chinese Yuan", Symbol: "¥", Rate: generic.MustParseDecimal("7.25")},
	}
}

// =============================================================================
// RATE TABLE
// =============================================================================

type RateTable struct {
	currencies []Currency
	byCode     map[generic.CurrencyCode]Currency
}

// NewRateTable rejects zero rates (they would divide by zero on the way out)
// and negative rates.
func NewRateTable(currencies []Currency) (*RateTable, error) {
	if len(currencies) == 0 {
		return nil, fmt.Errorf("%w: empty currency table", generic.ErrInvalidPolicy)
	}
	t := &RateTable{byCode: make(map[generic.CurrencyCode]Currency, len(currencies))}
	for _, c := range currencies {
		if c.Code == "" {
			return nil, fmt.Errorf("%w: currency with empty code", generic.ErrInvalidPolicy)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate currency %s", generic.ErrInvalidPolicy, c.Code)
		}
		if c.Rate.IsZero() {
			return nil, fmt.Errorf("%w: rate for %s is zero", generic.ErrZeroDivisor, c.Code)
		}
		if c.Rate.IsNegative() {
			return nil, fmt.Errorf("%w: rate for %s is negative", generic.ErrInvalidPolicy, c.Code)
		}
		t.byCode[c.Code] = c
		t.currencies = append(t.currencies, c)
	}
	return t, nil
}

func DefaultRateTable() *RateTable {
	t, err := NewRateTable(DefaultCurrencies())
	if err != nil {
		panic(err) // built-in table is always valid
	}
	return t
}

func (t *RateTable) Lookup(code generic.CurrencyCode) (Currency, error) {
	c, ok := t.byCode[code]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", generic.ErrUnknownCurrency, code)
	}
	return c, nil
}

// Currencies returns the table in declaration order.
func (t *RateTable) Currencies() []Currency {
	out := make([]Currency, len(t.currencies))
	copy(out, t.currencies)
	return out
}

// Convert converts amount from one currency into another. No rounding is
// applied; rounding belongs to presentation.
func (t *RateTable) Convert(amount decimal.Decimal, from, to generic.CurrencyCode) (decimal.Decimal, error) {
	src, err := t.Lookup(from)
	if err != nil {
		return decimal.Zero, err
	}
	dst, err := t.Lookup(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return amount, nil
	}
	return amount.Mul(dst.Rate).Div(src.Rate), nil
}

// ConvertMoney converts m into the target currency.
func (t *RateTable) ConvertMoney(m generic.Money, to generic.CurrencyCode) (generic.Money, error) {
	v, err := t.Convert(m.Value, m.Currency, to)
	if err != nil {
		return generic.Money{}, err
	}
	return generic.Money{Value: v, Currency: to}, nil
}
