/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are decimal strings ("1517783"). Current payroll and payslips are
  shown in the display currency, rounded to whole units. Finalized runs are
  returned exactly as stored, in the canonical currency.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Department     string          `json:"department"`
	Position       string          `json:"position"`
	JoinDate       string          `json:"joinDate"`
	BaseSalary     decimal.Decimal `json:"baseSalary"`
	SalaryCurrency string          `json:"salaryCurrency"`
	ServicePoints  int             `json:"servicePoints"`
	HasSpouse      bool            `json:"hasSpouse"`
	Children       int             `json:"children"`
	Parents        int             `json:"parents"`
}

// EmployeeRequest is the body of create and update. ID is optional on
// create; an ID is generated when it is empty.
type EmployeeRequest struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Department     string          `json:"department"`
	Position       string          `json:"position"`
	JoinDate       string          `json:"joinDate"`
	BaseSalary     decimal.Decimal `json:"baseSalary"`
	SalaryCurrency string          `json:"salaryCurrency,omitempty"`
	ServicePoints  int             `json:"servicePoints"`
	HasSpouse      bool            `json:"hasSpouse"`
	Children       int             `json:"children"`
	Parents        int             `json:"parents"`
}

type ImportResponse struct {
	Added []EmployeeDTO `json:"added"`
}

type EventDTO struct {
	ID          string           `json:"id"`
	EmployeeID  string           `json:"employeeId"`
	Date        string           `json:"date"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

type CreateEventRequest struct {
	Date        string           `json:"date"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceDTO struct {
	EmployeeID string         `json:"employeeId"`
	Statuses   []string       `json:"statuses"`
	Counts     map[string]int `json:"counts"`
	TotalDays  int            `json:"totalDays"`
	PaidDays   int            `json:"paidDays"`
	UnpaidDays int            `json:"unpaidDays"`
}

type StatusDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Paid  bool   `json:"paid"`
}

type AttendanceSheetResponse struct {
	Period   string          `json:"period"`
	Statuses []StatusDTO     `json:"statuses"`
	Records  []AttendanceDTO `json:"records"`
}

type SetDayRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollConfigDTO struct {
	Period               string                     `json:"period"`
	Days                 int                        `json:"days"`
	DisplayCurrency      string                     `json:"displayCurrency"`
	ServiceMoneyPerPoint decimal.Decimal            `json:"serviceMoneyPerPoint"`
	Deductions           map[string]DeductionDTO    `json:"deductions"`
	Overtime             map[string]decimal.Decimal `json:"overtime"`
	Finalized            bool                       `json:"finalized"`
	Version              uint64                     `json:"version"`
}

// UpdateConfigRequest changes only the fields that are present.
type UpdateConfigRequest struct {
	Period               *string          `json:"period,omitempty"`
	DisplayCurrency      *string          `json:"displayCurrency,omitempty"`
	ServiceMoneyPerPoint *decimal.Decimal `json:"serviceMoneyPerPoint,omitempty"`
}

type DeductionDTO struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type OvertimeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// StatementDTO is one entry in a single currency.
type StatementDTO struct {
	EmployeeID            string          `json:"employeeId"`
	Period                string          `json:"period"`
	Currency              string          `json:"currency"`
	PaidDays              int             `json:"paidDays"`
	UnpaidDays            int             `json:"unpaidDays"`
	BaseSalary            decimal.Decimal `json:"baseSalary"`
	ServiceCharge         decimal.Decimal `json:"serviceCharge"`
	Overtime              decimal.Decimal `json:"overtime"`
	UnpaidLeaveDeduction  decimal.Decimal `json:"unpaidLeaveDeduction"`
	GrossPay              decimal.Decimal `json:"grossPay"`
	Tax                   decimal.Decimal `json:"tax"`
	Contribution          decimal.Decimal `json:"contribution"`
	ManualDeduction       decimal.Decimal `json:"manualDeduction"`
	ManualDeductionReason string          `json:"manualDeductionReason,omitempty"`
	TotalDeductions       decimal.Decimal `json:"totalDeductions"`
	NetPay                decimal.Decimal `json:"netPay"`
}

type TotalsDTO struct {
	Period          string          `json:"period"`
	Currency        string          `json:"currency"`
	Headcount       int             `json:"headcount"`
	GrossPay        decimal.Decimal `json:"grossPay"`
	Tax             decimal.Decimal `json:"tax"`
	Contribution    decimal.Decimal `json:"contribution"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetPay          decimal.Decimal `json:"netPay"`
}

type PayrollResponse struct {
	Period   string         `json:"period"`
	Currency string         `json:"currency"`
	Entries  []StatementDTO `json:"entries"`
	Totals   TotalsDTO      `json:"totals"`
}

type BandDTO struct {
	From    decimal.Decimal  `json:"from"`
	To      *decimal.Decimal `json:"to,omitempty"`
	Rate    decimal.Decimal  `json:"rate"`
	Taxable decimal.Decimal  `json:"taxable"`
	Tax     decimal.Decimal  `json:"tax"`
}

// TaxDTO is the annual tax working, in the canonical currency.
type TaxDTO struct {
	AnnualGross   decimal.Decimal `json:"annualGross"`
	Allowances    decimal.Decimal `json:"allowances"`
	TaxableIncome decimal.Decimal `json:"taxableIncome"`
	Bands         []BandDTO       `json:"bands"`
	AnnualTax     decimal.Decimal `json:"annualTax"`
	MonthlyTax    decimal.Decimal `json:"monthlyTax"`
}

type PayslipDTO struct {
	Organization string       `json:"organization"`
	Employee     EmployeeDTO  `json:"employee"`
	Statement    StatementDTO `json:"statement"`
	NetPayText   string       `json:"netPayText"`
	Tax          TaxDTO       `json:"tax"`
}

// =============================================================================
// RUNS
// =============================================================================

type RunSummaryDTO struct {
	Period      string    `json:"period"`
	FinalizedAt time.Time `json:"finalizedAt"`
	Totals      TotalsDTO `json:"totals"`
}

type RunDTO struct {
	Period      string         `json:"period"`
	FinalizedAt time.Time      `json:"finalizedAt"`
	Entries     []StatementDTO `json:"entries"`
	Employees   []EmployeeDTO  `json:"employees"`
	Totals      TotalsDTO      `json:"totals"`
}

// ReportRow is one line of a run's CSV export.
type ReportRow struct {
	EmployeeID      string `csv:"employeeId"`
	Name            string `csv:"name"`
	Department      string `csv:"department"`
	Position        string `csv:"position"`
	Currency        string `csv:"currency"`
	PaidDays        int    `csv:"paidDays"`
	UnpaidDays      int    `csv:"unpaidDays"`
	BaseSalary      string `csv:"baseSalary"`
	ServiceCharge   string `csv:"serviceCharge"`
	Overtime        string `csv:"overtime"`
	GrossPay        string `csv:"grossPay"`
	Tax             string `csv:"tax"`
	Contribution    string `csv:"contribution"`
	UnpaidLeave     string `csv:"unpaidLeaveDeduction"`
	ManualDeduction string `csv:"manualDeduction"`
	TotalDeductions string `csv:"totalDeductions"`
	NetPay          string `csv:"netPay"`
}

// =============================================================================
// CURRENCIES / SETTINGS
// =============================================================================

type CurrencyDTO struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
}

type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Result    decimal.Decimal `json:"result"`
	Formatted string          `json:"formatted"`
}

type SettingsDTO struct {
	OrganizationName string `json:"organizationName"`
	DisplayCurrency  string `json:"displayCurrency"`
}

type UpdateSettingsRequest struct {
	OrganizationName string `json:"organizationName"`
}

type SeedResponse struct {
	Employees int `json:"employees"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`

	// Set on rejected imports.
	MissingColumns []string      `json:"missingColumns,omitempty"`
	Rows           []RowErrorDTO `json:"rows,omitempty"`
}

type RowErrorDTO struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e generic.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             string(e.ID),
		Name:           e.Name,
		Department:     e.Department,
		Position:       e.Position,
		JoinDate:       e.JoinDate.String(),
		BaseSalary:     e.BaseSalary.Value,
		SalaryCurrency: string(e.BaseSalary.Currency),
		ServicePoints:  e.ServicePoints,
		HasSpouse:      e.Dependents.HasSpouse,
		Children:       e.Dependents.Children,
		Parents:        e.Dependents.Parents,
	}
}

func toEmployeeDTOs(emps []generic.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, len(emps))
	for i, e := range emps {
		dtos[i] = toEmployeeDTO(e)
	}
	return dtos
}

// toEmployee parses a request. reference is used when no salary currency
// is given.
func (req EmployeeRequest) toEmployee(reference generic.CurrencyCode) (generic.Employee, error) {
	var joinDate generic.TimePoint
	if req.JoinDate != "" {
		var err error
		if joinDate, err = generic.ParseDate(req.JoinDate); err != nil {
			return generic.Employee{}, &generic.EmployeeValidationError{EmployeeID: generic.EmployeeID(req.ID), Fields: []string{"joinDate"}}
		}
	}
	cur := generic.CurrencyCode(req.SalaryCurrency)
	if cur == "" {
		cur = reference
	}
	if req.BaseSalary.IsNegative() {
		return generic.Employee{}, &generic.EmployeeValidationError{EmployeeID: generic.EmployeeID(req.ID), Fields: []string{"baseSalary"}}
	}
	return generic.Employee{
		ID:            generic.EmployeeID(req.ID),
		Name:          req.Name,
		Department:    req.Department,
		Position:      req.Position,
		JoinDate:      joinDate,
		BaseSalary:    generic.Money{Value: req.BaseSalary, Currency: cur},
		ServicePoints: req.ServicePoints,
		Dependents: generic.DependentProfile{
			HasSpouse: req.HasSpouse,
			Children:  req.Children,
			Parents:   req.Parents,
		},
	}, nil
}

func toEventDTO(ev generic.EmployeeEvent) EventDTO {
	return EventDTO{
		ID:          string(ev.ID),
		EmployeeID:  string(ev.EmployeeID),
		Date:        ev.Date.String(),
		Type:        string(ev.Type),
		Description: ev.Description,
		Amount:      ev.Amount,
	}
}

func toAttendanceDTO(rec attendance.Record) AttendanceDTO {
	dto := AttendanceDTO{
		EmployeeID: string(rec.EmployeeID),
		Statuses:   make([]string, len(rec.Statuses)),
		Counts:     make(map[string]int, len(rec.Summary.Counts)),
		TotalDays:  rec.Summary.TotalDays,
		PaidDays:   rec.Summary.TotalPaidDays,
		UnpaidDays: rec.Summary.UnpaidDays,
	}
	for i, s := range rec.Statuses {
		dto.Statuses[i] = string(s)
	}
	for code, n := range rec.Summary.Counts {
		dto.Counts[string(code)] = n
	}
	return dto
}

func toConfigDTO(cfg payroll.PeriodConfig, finalized bool, version uint64) PayrollConfigDTO {
	dto := PayrollConfigDTO{
		Period:               cfg.Period.String(),
		Days:                 cfg.Period.Days(),
		DisplayCurrency:      string(cfg.DisplayCurrency),
		ServiceMoneyPerPoint: cfg.ServiceMoneyPerPoint,
		Deductions:           make(map[string]DeductionDTO, len(cfg.Deductions)),
		Overtime:             make(map[string]decimal.Decimal, len(cfg.Overtime)),
		Finalized:            finalized,
		Version:              version,
	}
	for id, d := range cfg.Deductions {
		dto.Deductions[string(id)] = DeductionDTO{Amount: d.Amount, Reason: d.Reason}
	}
	for id, amount := range cfg.Overtime {
		dto.Overtime[string(id)] = amount
	}
	return dto
}

func toStatementDTO(st currency.Statement) StatementDTO {
	return StatementDTO{
		EmployeeID:            string(st.EmployeeID),
		Period:                st.Period.String(),
		Currency:              string(st.Currency.Code),
		PaidDays:              st.PaidDays,
		UnpaidDays:            st.UnpaidDays,
		BaseSalary:            st.BaseSalary,
		ServiceCharge:         st.ServiceCharge,
		Overtime:              st.Overtime,
		UnpaidLeaveDeduction:  st.UnpaidLeaveDeduction,
		GrossPay:              st.GrossPay,
		Tax:                   st.Tax,
		Contribution:          st.Contribution,
		ManualDeduction:       st.ManualDeduction,
		ManualDeductionReason: st.ManualDeductionReason,
		TotalDeductions:       st.TotalDeductions,
		NetPay:                st.NetPay,
	}
}

// toEntryDTO keeps the stored, unrounded canonical amounts.
func toEntryDTO(e generic.PayrollEntry) StatementDTO {
	return StatementDTO{
		EmployeeID:            string(e.EmployeeID),
		Period:                e.Period.String(),
		Currency:              string(e.Currency),
		PaidDays:              e.PaidDays,
		UnpaidDays:            e.UnpaidDays,
		BaseSalary:            e.BaseSalary,
		ServiceCharge:         e.ServiceCharge,
		Overtime:              e.Overtime,
		UnpaidLeaveDeduction:  e.UnpaidLeaveDeduction,
		GrossPay:              e.GrossPay,
		Tax:                   e.Tax,
		Contribution:          e.Contribution,
		ManualDeduction:       e.ManualDeduction,
		ManualDeductionReason: e.ManualDeductionReason,
		TotalDeductions:       e.TotalDeductions,
		NetPay:                e.NetPay,
	}
}

func toTotalsDTO(t generic.RunTotals, cur generic.CurrencyCode) TotalsDTO {
	return TotalsDTO{
		Period:          t.Period.String(),
		Currency:        string(cur),
		Headcount:       t.Headcount,
		GrossPay:        t.GrossPay,
		Tax:             t.Tax,
		Contribution:    t.Contribution,
		TotalDeductions: t.TotalDeductions,
		NetPay:          t.NetPay,
	}
}

func toTaxDTO(r tax.Result) TaxDTO {
	dto := TaxDTO{
		AnnualGross:   r.AnnualGross,
		Allowances:    r.Allowances.Total,
		TaxableIncome: r.TaxableIncome,
		Bands:         make([]BandDTO, len(r.Bands)),
		AnnualTax:     r.AnnualTax,
		MonthlyTax:    r.MonthlyTax,
	}
	for i, b := range r.Bands {
		dto.Bands[i] = BandDTO{From: b.From, To: b.To, Rate: b.Rate, Taxable: b.Taxable, Tax: b.Tax}
	}
	return dto
}

func toCurrencyDTO(c currency.Currency) CurrencyDTO {
	return CurrencyDTO{Code: string(c.Code), Name: c.Name, Symbol: c.Symbol, Rate: c.Rate}
}
