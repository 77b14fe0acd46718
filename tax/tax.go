/*
Package tax implements the progressive income tax used by payroll.

PURPOSE:
  Tax is assessed on annual income after allowances, through brackets
  consumed in ascending order, and then spread evenly over twelve months.

CALCULATION:
  allowances = min(PersonalRate * gross, PersonalCap)
             + Spouse (if any)
             + PerChild * children
             + PerParent * parents
             + annual contribution
  taxable    = max(0, gross - allowances)
  annual tax = sum over brackets of min(remaining, width) * rate
  monthly    = annual / 12

BRACKETS:
  A bracket is a width and a rate. Widths stack, so the default policy
  (2M@0%, 3M@5%, 5M@10%, 10M@15%, 10M@20%, rest@25%) taxes income up to
  2M at 0%, the next 3M at 5%, and so on. The final bracket has width zero,
  meaning unbounded; it is the only one allowed to.

SEE ALSO:
  - payroll/engine.go: Annualizes the monthly figures before calling Compute
  - factory/policy.go: Parses a Policy from JSON
*/
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// POLICY
// =============================================================================

type Bracket struct {
	Width decimal.Decimal // zero on the final, unbounded bracket
	Rate  decimal.Decimal // 0.05 for 5%
}

type Allowances struct {
	PersonalRate decimal.Decimal
	PersonalCap  decimal.Decimal
	Spouse       decimal.Decimal
	PerChild     decimal.Decimal
	PerParent    decimal.Decimal
}

// Policy is expressed in the canonical computation currency.
type Policy struct {
	Allowances Allowances
	Brackets   []Bracket
}

var months = decimal.NewFromInt(12)

func DefaultPolicy() Policy {
	m := func(n int64) decimal.Decimal { return decimal.NewFromInt(n * 1_000_000) }
	pct := func(n int64) decimal.Decimal { return decimal.New(n, -2) }
	return Policy{
		Allowances: Allowances{
			PersonalRate: pct(20),
			PersonalCap:  m(10),
			Spouse:       m(1),
			PerChild:     decimal.NewFromInt(500_000),
			PerParent:    m(1),
		},
		Brackets: []Bracket{
			{Width: m(2), Rate: pct(0)},
			{Width: m(3), Rate: pct(5)},
			{Width: m(5), Rate: pct(10)},
			{Width: m(10), Rate: pct(15)},
			{Width: m(10), Rate: pct(20)},
			{Width: decimal.Zero, Rate: pct(25)},
		},
	}
}

// Validate rejects policies the calculator cannot apply exactly.
func (p Policy) Validate() error {
	if len(p.Brackets) == 0 {
		return fmt.Errorf("%w: no tax brackets", generic.ErrInvalidPolicy)
	}
	a := p.Allowances
	for name, v := range map[string]decimal.Decimal{
		"personal rate": a.PersonalRate,
		"personal cap":  a.PersonalCap,
		"spouse":        a.Spouse,
		"child":         a.PerChild,
		"parent":        a.PerParent,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative %s allowance", generic.ErrInvalidPolicy, name)
		}
	}
	last := len(p.Brackets) - 1
	for i, b := range p.Brackets {
		if b.Rate.IsNegative() || b.Width.IsNegative() {
			return fmt.Errorf("%w: bracket %d has a negative width or rate", generic.ErrInvalidPolicy, i+1)
		}
		if i < last && b.Width.IsZero() {
			return fmt.Errorf("%w: only the final bracket may be unbounded", generic.ErrInvalidPolicy)
		}
	}
	if !p.Brackets[last].Width.IsZero() {
		return fmt.Errorf("%w: final bracket must be unbounded", generic.ErrInvalidPolicy)
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

type AllowanceBreakdown struct {
	Personal     decimal.Decimal
	Spouse       decimal.Decimal
	Children     decimal.Decimal
	Parents      decimal.Decimal
	Contribution decimal.Decimal
	Total        decimal.Decimal
}

// BandTax is the tax charged inside one bracket.
type BandTax struct {
	From    decimal.Decimal
	To      *decimal.Decimal // nil for the unbounded bracket
	Rate    decimal.Decimal
	Taxable decimal.Decimal
	Tax     decimal.Decimal
}

type Result struct {
	AnnualGross   decimal.Decimal
	Allowances    AllowanceBreakdown
	TaxableIncome decimal.Decimal
	Bands         []BandTax
	AnnualTax     decimal.Decimal
	MonthlyTax    decimal.Decimal
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) (*Calculator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{policy: policy}, nil
}

func (c *Calculator) Policy() Policy { return c.policy }

// Compute assesses annual tax. All inputs are annual amounts in the
// canonical currency.
func (c *Calculator) Compute(annualGross decimal.Decimal, deps generic.DependentProfile, annualContribution decimal.Decimal) Result {
	a := c.policy.Allowances

	br := AllowanceBreakdown{
		Personal:     decimal.Min(a.PersonalRate.Mul(annualGross), a.PersonalCap),
		Children:     a.PerChild.Mul(decimal.NewFromInt(int64(deps.Children))),
		Parents:      a.PerParent.Mul(decimal.NewFromInt(int64(deps.Parents))),
		Contribution: annualContribution,
	}
	if br.Personal.IsNegative() {
		br.Personal = decimal.Zero
	}
	if deps.HasSpouse {
		br.Spouse = a.Spouse
	}
	br.Total = br.Personal.Add(br.Spouse).Add(br.Children).Add(br.Parents).Add(br.Contribution)

	res := Result{
		AnnualGross:   annualGross,
		Allowances:    br,
		TaxableIncome: annualGross.Sub(br.Total),
		AnnualTax:     decimal.Zero,
	}
	if !res.TaxableIncome.IsPositive() {
		res.TaxableIncome = decimal.Zero
		res.MonthlyTax = decimal.Zero
		return res
	}

	remaining := res.TaxableIncome
	lower := decimal.Zero
	for _, b := range c.policy.Brackets {
		if !remaining.IsPositive() {
			break
		}
		band := BandTax{From: lower, Rate: b.Rate, Taxable: remaining}
		if !b.Width.IsZero() {
			upper := lower.Add(b.Width)
			band.To = &upper
			band.Taxable = decimal.Min(remaining, b.Width)
			lower = upper
		}
		band.Tax = band.Taxable.Mul(b.Rate)
		res.Bands = append(res.Bands, band)
		res.AnnualTax = res.AnnualTax.Add(band.Tax)
		remaining = remaining.Sub(band.Taxable)
	}
	res.MonthlyTax = res.AnnualTax.Div(months)
	return res
}

// MonthlyTax is Compute reduced to the figure payroll deducts each month.
func (c *Calculator) MonthlyTax(annualGross decimal.Decimal, deps generic.DependentProfile, annualContribution decimal.Decimal) decimal.Decimal {
	return c.Compute(annualGross, deps, annualContribution).MonthlyTax
}
