package api

// Payroll and ledger handlers.
//
//   GET  /api/payroll/config                 Period inputs and finalized flag
//   PUT  /api/payroll/config                 Change period, display currency, service money
//   PUT  /api/payroll/deductions/{id}        Manual deduction, display currency
//   PUT  /api/payroll/overtime/{id}          Overtime pay, display currency
//   POST /api/payroll/calculate              Compute entries for the roster
//   GET  /api/payroll                        Current entries, display currency
//   GET  /api/payroll/{id}/payslip           One payslip with the tax working
//   POST /api/payroll/finalize               Freeze the current entries as a run
//   GET  /api/runs                           Finalized runs with totals
//   GET  /api/runs/trend                     Totals per period, oldest first
//   GET  /api/runs/{year}/{month}            One run, canonical currency
//   GET  /api/runs/{year}/{month}/report.csv Run report in ?currency=

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PERIOD INPUTS
// =============================================================================

// GetPayrollConfig returns the inputs of the current period.
func (h *Handler) GetPayrollConfig(w http.ResponseWriter, r *http.Request) {
	finalized, err := h.Payroll.IsFinalized(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to check ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(h.Payroll.Config(), finalized, h.Payroll.Version()))
}

// UpdatePayrollConfig applies the fields present in the body. Every field is
// checked before any is applied.
func (h *Handler) UpdatePayrollConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var period generic.Period
	if req.Period != nil {
		p, err := generic.ParsePeriod(*req.Period)
		if err != nil {
			h.writeDomainError(w, "Invalid period (use YYYY-MM)", err)
			return
		}
		period = p
	}
	if req.DisplayCurrency != nil {
		if _, err := h.rates().Lookup(generic.CurrencyCode(*req.DisplayCurrency)); err != nil {
			h.writeDomainError(w, "Invalid display currency", err)
			return
		}
	}
	if req.ServiceMoneyPerPoint != nil && req.ServiceMoneyPerPoint.IsNegative() {
		writeError(w, http.StatusBadRequest, "Service money per point cannot be negative", nil)
		return
	}

	if req.Period != nil {
		if err := h.Payroll.SetPeriod(period); err != nil {
			h.writeDomainError(w, "Failed to set period", err)
			return
		}
	}
	if req.DisplayCurrency != nil {
		if err := h.Payroll.SetDisplayCurrency(r.Context(), generic.CurrencyCode(*req.DisplayCurrency)); err != nil {
			h.writeDomainError(w, "Failed to set display currency", err)
			return
		}
	}
	if req.ServiceMoneyPerPoint != nil {
		if err := h.Payroll.SetServiceMoneyPerPoint(*req.ServiceMoneyPerPoint); err != nil {
			h.writeDomainError(w, "Failed to set service money", err)
			return
		}
	}

	h.GetPayrollConfig(w, r)
}

// SetDeduction sets or clears an employee's manual deduction.
func (h *Handler) SetDeduction(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	var req DeductionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Payroll.SetDeduction(id, generic.Deduction{Amount: req.Amount, Reason: req.Reason}); err != nil {
		h.writeDomainError(w, "Failed to set deduction", err)
		return
	}
	h.GetPayrollConfig(w, r)
}

// SetOvertime sets or clears an employee's overtime pay.
func (h *Handler) SetOvertime(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	var req OvertimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Payroll.SetOvertime(id, req.Amount); err != nil {
		h.writeDomainError(w, "Failed to set overtime", err)
		return
	}
	h.GetPayrollConfig(w, r)
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculatePayroll computes the roster and returns it in the display currency.
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Payroll.Calculate()
	if err != nil {
		h.writeDomainError(w, "Failed to calculate payroll", err)
		return
	}
	h.writePayroll(w, entries)
}

// GetPayroll returns the current entries, or 409 if inputs changed since
// the last calculation.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Payroll.Entries()
	if err != nil {
		h.writeDomainError(w, "Failed to get payroll", err)
		return
	}
	h.writePayroll(w, entries)
}

func (h *Handler) writePayroll(w http.ResponseWriter, entries []generic.PayrollEntry) {
	cfg := h.Payroll.Config()
	statements, err := h.present(entries, cfg.DisplayCurrency)
	if err != nil {
		h.writeDomainError(w, "Failed to present payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, PayrollResponse{
		Period:   cfg.Period.String(),
		Currency: string(cfg.DisplayCurrency),
		Entries:  statements,
		Totals:   sumStatements(cfg.Period, cfg.DisplayCurrency, statements),
	})
}

// GetPayslip returns one employee's payslip.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	slip, err := h.Payroll.Payslip(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get payslip", err)
		return
	}
	writeJSON(w, http.StatusOK, PayslipDTO{
		Organization: slip.Organization,
		Employee:     toEmployeeDTO(slip.Employee),
		Statement:    toStatementDTO(slip.Statement),
		NetPayText:   currency.Format(slip.Statement.NetPay, slip.Statement.Currency, 0),
		Tax:          toTaxDTO(slip.Tax),
	})
}

// FinalizePayroll stores the current entries as the period's run.
func (h *Handler) FinalizePayroll(w http.ResponseWriter, r *http.Request) {
	run, err := h.Payroll.Finalize(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to finalize payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toRunSummary(run))
}

// =============================================================================
// LEDGER
// =============================================================================

// ListRuns returns every finalized run, oldest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ledger := h.Payroll.Ledger()
	periods, err := ledger.ListPeriods(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, 0, len(periods))
	for _, p := range periods {
		run, err := ledger.Retrieve(r.Context(), p)
		if err != nil {
			h.writeDomainError(w, "Failed to retrieve run", err)
			return
		}
		dtos = append(dtos, h.toRunSummary(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTrend returns run totals per period in the canonical currency.
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Payroll.Ledger().Trend(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to compute trend", err)
		return
	}
	canonical := h.Payroll.Engine().Canonical()
	dtos := make([]TotalsDTO, len(totals))
	for i, t := range totals {
		dtos[i] = toTotalsDTO(t, canonical)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a run exactly as stored.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.retrieveRun(w, r)
	if !ok {
		return
	}

	dto := RunDTO{
		Period:      run.Period.String(),
		FinalizedAt: run.FinalizedAt,
		Entries:     make([]StatementDTO, len(run.Entries)),
		Employees:   toEmployeeDTOs(run.Employees),
		Totals:      toTotalsDTO(run.Totals(), h.Payroll.Engine().Canonical()),
	}
	for i, e := range run.Entries {
		dto.Entries[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetRunReport exports a run as CSV in ?currency=, or the display currency.
// Names come from the roster frozen with the run.
func (h *Handler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := h.retrieveRun(w, r)
	if !ok {
		return
	}

	display := generic.CurrencyCode(r.URL.Query().Get("currency"))
	if display == "" {
		display = h.Payroll.Config().DisplayCurrency
	}
	statements, err := h.presentAll(run.Entries, display)
	if err != nil {
		h.writeDomainError(w, "Failed to present run", err)
		return
	}

	rows := make([]ReportRow, len(statements))
	for i, st := range statements {
		emp, _ := run.Employee(st.EmployeeID)
		rows[i] = ReportRow{
			EmployeeID:      string(st.EmployeeID),
			Name:            emp.Name,
			Department:      emp.Department,
			Position:        emp.Position,
			Currency:        string(st.Currency.Code),
			PaidDays:        st.PaidDays,
			UnpaidDays:      st.UnpaidDays,
			BaseSalary:      st.BaseSalary.String(),
			ServiceCharge:   st.ServiceCharge.String(),
			Overtime:        st.Overtime.String(),
			GrossPay:        st.GrossPay.String(),
			Tax:             st.Tax.String(),
			Contribution:    st.Contribution.String(),
			UnpaidLeave:     st.UnpaidLeaveDeduction.String(),
			ManualDeduction: st.ManualDeduction.String(),
			TotalDeductions: st.TotalDeductions.String(),
			NetPay:          st.NetPay.String(),
		}
	}

	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		h.writeDomainError(w, "Failed to write report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-%s.csv", run.Period))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// retrieveRun loads the run named by {year}/{month}, writing the error
// response itself when it fails.
func (h *Handler) retrieveRun(w http.ResponseWriter, r *http.Request) (generic.PayrollRun, bool) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	period := generic.NewPeriod(year, time.Month(month))
	if yerr != nil || merr != nil || !period.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid period", generic.ErrInvalidPeriod)
		return generic.PayrollRun{}, false
	}

	run, err := h.Payroll.Ledger().Retrieve(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, "Failed to retrieve run", err)
		return generic.PayrollRun{}, false
	}
	return run, true
}

// =============================================================================
// PRESENTATION HELPERS
// =============================================================================

func (h *Handler) presentAll(entries []generic.PayrollEntry, display generic.CurrencyCode) ([]currency.Statement, error) {
	out := make([]currency.Statement, len(entries))
	for i, e := range entries {
		st, err := h.rates().Present(e, display)
		if err != nil {
			return nil, err
		}
		out[i] = st
	}
	return out, nil
}

func (h *Handler) present(entries []generic.PayrollEntry, display generic.CurrencyCode) ([]StatementDTO, error) {
	statements, err := h.presentAll(entries, display)
	if err != nil {
		return nil, err
	}
	dtos := make([]StatementDTO, len(statements))
	for i, st := range statements {
		dtos[i] = toStatementDTO(st)
	}
	return dtos, nil
}

// sumStatements totals rounded display amounts, so the totals match the
// rows a user sees.
func sumStatements(period generic.Period, cur generic.CurrencyCode, statements []StatementDTO) TotalsDTO {
	t := TotalsDTO{
		Period:    period.String(),
		Currency:  string(cur),
		Headcount: len(statements),
	}
	for _, st := range statements {
		t.GrossPay = t.GrossPay.Add(st.GrossPay)
		t.Tax = t.Tax.Add(st.Tax)
		t.Contribution = t.Contribution.Add(st.Contribution)
		t.TotalDeductions = t.TotalDeductions.Add(st.TotalDeductions)
		t.NetPay = t.NetPay.Add(st.NetPay)
	}
	return t
}

func (h *Handler) toRunSummary(run generic.PayrollRun) RunSummaryDTO {
	return RunSummaryDTO{
		Period:      run.Period.String(),
		FinalizedAt: run.FinalizedAt,
		Totals:      toTotalsDTO(run.Totals(), h.Payroll.Engine().Canonical()),
	}
}
