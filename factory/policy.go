/*
Package factory provides JSON to Go payroll policy conversion.

PURPOSE:
  Converts one JSON policy document into the rate table, tax calculator,
  attendance status table and payroll engine the server runs with. Rates,
  brackets and status codes change without a code change: point
  PAYROLL_POLICY_FILE at an edited copy of DefaultPolicyJSON.

JSON SCHEMA:
  {
    "reference_currency": "USD",
    "canonical_currency": "MMK",
    "contribution_rate": "0.02",
    "currencies": [
      {"code": "USD", "name": "US Dollar", "symbol": "$", "rate": "1"},
      {"code": "MMK", "name": "Myanmar Kyat", "symbol": "K", "rate": "3500"}
    ],
    "tax": {
      "allowances": {
        "personal_rate": "0.20", "personal_cap": "10000000",
        "spouse": "1000000", "per_child": "500000", "per_parent": "1000000"
      },
      "brackets": [
        {"width": "2000000", "rate": "0"},
        {"rate": "0.25"}
      ]
    },
    "attendance": {
      "padding": "P",
      "statuses": [{"code": "P", "label": "Present Day", "paid": true}]
    }
  }

  Decimals may be written as strings or numbers. A bracket without a width
  is the unbounded final bracket.

DEFAULTS:
  - reference_currency: USD
  - canonical_currency: MMK
  - contribution_rate: 0.02
  - attendance: the built-in hotel code set, padded with "P"

USAGE:
  f := NewPolicyFactory()
  policy, err := f.ParsePolicy(DefaultPolicyJSON())
  coordinator, err := payroll.NewCoordinator(payroll.CoordinatorConfig{
      Engine:   policy.Engine,
      Statuses: policy.Statuses,
      ...
  })

SEE ALSO:
  - tax/tax.go: Policy validation
  - currency/currency.go: Rate table validation
  - cmd/server/main.go: Loads PAYROLL_POLICY_FILE
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a payroll policy.
type PolicyJSON struct {
	ReferenceCurrency string           `json:"reference_currency,omitempty"`
	CanonicalCurrency string           `json:"canonical_currency,omitempty"`
	ContributionRate  *decimal.Decimal `json:"contribution_rate,omitempty"`
	Currencies        []CurrencyJSON   `json:"currencies"`
	Tax               TaxJSON          `json:"tax"`
	Attendance        *AttendanceJSON  `json:"attendance,omitempty"`
}

type CurrencyJSON struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"` // units per one reference unit
}

type TaxJSON struct {
	Allowances AllowancesJSON `json:"allowances"`
	Brackets   []BracketJSON  `json:"brackets"`
}

type AllowancesJSON struct {
	PersonalRate decimal.Decimal `json:"personal_rate"`
	PersonalCap  decimal.Decimal `json:"personal_cap"`
	Spouse       decimal.Decimal `json:"spouse"`
	PerChild     decimal.Decimal `json:"per_child"`
	PerParent    decimal.Decimal `json:"per_parent"`
}

type BracketJSON struct {
	Width *decimal.Decimal `json:"width,omitempty"` // nil on the final bracket
	Rate  decimal.Decimal  `json:"rate"`
}

type AttendanceJSON struct {
	Padding  string       `json:"padding"`
	Statuses []StatusJSON `json:"statuses"`
}

type StatusJSON struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Paid  bool   `json:"paid"`
}

// =============================================================================
// POLICY
// =============================================================================

// Policy is everything built from one PolicyJSON document.
type Policy struct {
	Rates    *currency.RateTable
	Tax      *tax.Calculator
	Statuses *attendance.StatusTable
	Engine   *payroll.Engine
}

var defaultContributionRate = decimal.New(2, -2)

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON string into a Policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadFile reads a policy document from disk. An empty path yields the
// built-in policy.
func (f *PolicyFactory) LoadFile(path string) (*Policy, error) {
	if path == "" {
		return f.ParsePolicy(DefaultPolicyJSON())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(string(data))
}

// FromJSON validates pj and builds the policy components from it.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*Policy, error) {
	currencies := make([]currency.Currency, 0, len(pj.Currencies))
	for _, cj := range pj.Currencies {
		currencies = append(currencies, currency.Currency{
			Code:   generic.CurrencyCode(cj.Code),
			Name:   cj.Name,
			Symbol: cj.Symbol,
			Rate:   cj.Rate,
		})
	}
	rates, err := currency.NewRateTable(currencies)
	if err != nil {
		return nil, fmt.Errorf("currencies: %w", err)
	}

	calc, err := tax.NewCalculator(parseTaxPolicy(pj.Tax))
	if err != nil {
		return nil, fmt.Errorf("tax: %w", err)
	}

	statuses, err := parseStatusTable(pj.Attendance)
	if err != nil {
		return nil, fmt.Errorf("attendance: %w", err)
	}

	cfg := payroll.EngineConfig{
		Rates:             rates,
		Tax:               calc,
		ReferenceCurrency: orDefault(pj.ReferenceCurrency, currency.USD),
		CanonicalCurrency: orDefault(pj.CanonicalCurrency, currency.MMK),
		ContributionRate:  defaultContributionRate,
	}
	if pj.ContributionRate != nil {
		cfg.ContributionRate = *pj.ContributionRate
	}
	engine, err := payroll.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	return &Policy{Rates: rates, Tax: calc, Statuses: statuses, Engine: engine}, nil
}

// ToJSON converts a Policy back to its document form.
func (f *PolicyFactory) ToJSON(p *Policy) PolicyJSON {
	cfg := p.Engine.Config()
	rate := cfg.ContributionRate
	pj := PolicyJSON{
		ReferenceCurrency: string(cfg.ReferenceCurrency),
		CanonicalCurrency: string(cfg.CanonicalCurrency),
		ContributionRate:  &rate,
	}

	for _, c := range p.Rates.Currencies() {
		pj.Currencies = append(pj.Currencies, CurrencyJSON{
			Code:   string(c.Code),
			Name:   c.Name,
			Symbol: c.Symbol,
			Rate:   c.Rate,
		})
	}

	tp := p.Tax.Policy()
	pj.Tax.Allowances = AllowancesJSON{
		PersonalRate: tp.Allowances.PersonalRate,
		PersonalCap:  tp.Allowances.PersonalCap,
		Spouse:       tp.Allowances.Spouse,
		PerChild:     tp.Allowances.PerChild,
		PerParent:    tp.Allowances.PerParent,
	}
	for _, b := range tp.Brackets {
		bj := BracketJSON{Rate: b.Rate}
		if !b.Width.IsZero() {
			w := b.Width
			bj.Width = &w
		}
		pj.Tax.Brackets = append(pj.Tax.Brackets, bj)
	}

	pj.Attendance = &AttendanceJSON{Padding: string(p.Statuses.Padding())}
	for _, s := range p.Statuses.Statuses() {
		pj.Attendance.Statuses = append(pj.Attendance.Statuses, StatusJSON{
			Code:  string(s.Code),
			Label: s.Label,
			Paid:  s.Paid,
		})
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseTaxPolicy(tj TaxJSON) tax.Policy {
	p := tax.Policy{
		Allowances: tax.Allowances{
			PersonalRate: tj.Allowances.PersonalRate,
			PersonalCap:  tj.Allowances.PersonalCap,
			Spouse:       tj.Allowances.Spouse,
			PerChild:     tj.Allowances.PerChild,
			PerParent:    tj.Allowances.PerParent,
		},
	}
	for _, bj := range tj.Brackets {
		b := tax.Bracket{Rate: bj.Rate}
		if bj.Width != nil {
			b.Width = *bj.Width
		}
		p.Brackets = append(p.Brackets, b)
	}
	return p
}

func parseStatusTable(aj *AttendanceJSON) (*attendance.StatusTable, error) {
	if aj == nil {
		return attendance.DefaultStatusTable(), nil
	}
	statuses := make([]attendance.Status, 0, len(aj.Statuses))
	for _, sj := range aj.Statuses {
		statuses = append(statuses, attendance.Status{
			Code:  attendance.Code(sj.Code),
			Label: sj.Label,
			Paid:  sj.Paid,
		})
	}
	padding := attendance.Code(aj.Padding)
	if padding == "" {
		padding = attendance.Present
	}
	return attendance.NewStatusTable(statuses, padding)
}

func orDefault(code string, def generic.CurrencyCode) generic.CurrencyCode {
	if code == "" {
		return def
	}
	return generic.CurrencyCode(code)
}

// =============================================================================
// PRESET POLICY
// =============================================================================

// DefaultPolicyJSON is the built-in hotel payroll policy: six currencies
// against USD, a 2% contribution and the six-bracket progressive tax.
func DefaultPolicyJSON() string {
	return `{
  "reference_currency": "USD",
  "canonical_currency": "MMK",
  "contribution_rate": "0.02",
  "currencies": [
    {"code": "USD", "name": "US Dollar", "symbol": "$", "rate": "1"},
    {"code": "MMK", "name": "Myanmar Kyat", "symbol": "K", "rate": "3500"},
    {"code": "EUR", "name": "Euro", "symbol": "€", "rate": "0.92"},
    {"code": "SGD", "name": "Singapore Dollar", "symbol": "S$", "rate": "1.35"},
    {"code": "THB", "name": "Thai Baht", "symbol": "฿", "rate": "36.5"},
    {"code": "CNY", "name": "Chinese Yuan", "symbol": "¥", "rate": "7.25"}
  ],
  "tax": {
    "allowances": {
      "personal_rate": "0.20",
      "personal_cap": "10000000",
      "spouse": "1000000",
      "per_child": "500000",
      "per_parent": "1000000"
    },
    "brackets": [
      {"width": "2000000", "rate": "0"},
      {"width": "3000000", "rate": "0.05"},
      {"width": "5000000", "rate": "0.10"},
      {"width": "10000000", "rate": "0.15"},
      {"width": "10000000", "rate": "0.20"},
      {"rate": "0.25"}
    ]
  },
  "attendance": {
    "padding": "P",
    "statuses": [
      {"code": "P", "label": "Present Day", "paid": true},
      {"code": "O", "label": "Off Day", "paid": true},
      {"code": "S", "label": "Sick Leave", "paid": true},
      {"code": "L", "label": "Leave With Pay", "paid": true},
      {"code": "LW", "label": "Leave Without Pay", "paid": false},
      {"code": "A", "label": "Absent", "paid": false}
    ]
  }
}`
}
