/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll coordinator via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees               List the roster in order
    POST   /api/employees               Add an employee (records a Hired event)
    POST   /api/employees/import        Append a CSV roster (all or nothing)
    GET    /api/employees/{id}          Get one employee
    PUT    /api/employees/{id}          Update an employee
    DELETE /api/employees/{id}          Remove an employee, keeping history
    GET    /api/employees/{id}/events   Employee history
    POST   /api/employees/{id}/events   Record a promotion, penalty, ...

  Attendance:
    GET    /api/attendance              Whole sheet for the current period
    GET    /api/attendance/{id}         One employee's record
    PUT    /api/attendance/{id}/days/{day}  Set one day's status

  Payroll, runs: see payroll.go
  Currencies, settings, seed: below

ARCHITECTURE:
  Handler holds the payroll coordinator. Every input change goes through
  the coordinator so the current payroll is dropped when it goes stale.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, rejected imports, unknown codes
  - 404: Employee or run not found
  - 409: No current payroll (calculate first)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - payroll.go: Calculation, payslip, finalize and ledger handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// maxImportBytes bounds a CSV roster upload.
const maxImportBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Payroll *payroll.Coordinator
	log     zerolog.Logger
}

// NewHandler creates a new handler around the given coordinator.
func NewHandler(coordinator *payroll.Coordinator, log zerolog.Logger) *Handler {
	return &Handler{Payroll: coordinator, log: log}
}

func (h *Handler) rates() *currency.RateTable {
	return h.Payroll.Engine().Rates()
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster in insertion order.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEmployeeDTOs(h.Payroll.Roster().List()))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Payroll.Roster().Get(id)
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee adds an employee to the end of the roster.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := req.toEmployee(h.Payroll.Engine().Config().ReferenceCurrency)
	if err != nil {
		h.writeDomainError(w, "Invalid employee", err)
		return
	}

	added, err := h.Payroll.AddEmployee(r.Context(), emp)
	if err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(added))
}

// UpdateEmployee replaces an employee's record. The ID comes from the URL.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	emp, err := req.toEmployee(h.Payroll.Engine().Config().ReferenceCurrency)
	if err != nil {
		h.writeDomainError(w, "Invalid employee", err)
		return
	}
	if err := h.Payroll.UpdateEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee from the roster.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	if err := h.Payroll.DeleteEmployee(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportEmployees appends every row of a CSV body, or none of them.
func (h *Handler) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read CSV body", err)
		return
	}

	added, err := h.Payroll.ImportEmployees(r.Context(), data)
	if err != nil {
		h.writeDomainError(w, "Import rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Added: toEmployeeDTOs(added)})
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// ListEvents returns an employee's history, oldest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	events := h.Payroll.Roster().Events(r.Context(), id)
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEvent records a history entry for a rostered employee.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	ev, err := h.Payroll.Roster().AddEvent(r.Context(), generic.EmployeeEvent{
		EmployeeID:  id,
		Date:        date,
		Type:        generic.EventType(req.Type),
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record event", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// GetAttendanceSheet returns every record of the current period along with
// the status codes that may be used.
func (h *Handler) GetAttendanceSheet(w http.ResponseWriter, r *http.Request) {
	records := h.Payroll.Attendance()
	statuses := h.Payroll.StatusTable().Statuses()

	resp := AttendanceSheetResponse{
		Period:   h.Payroll.Config().Period.String(),
		Statuses: make([]StatusDTO, len(statuses)),
		Records:  make([]AttendanceDTO, len(records)),
	}
	for i, s := range statuses {
		resp.Statuses[i] = StatusDTO{Code: string(s.Code), Label: s.Label, Paid: s.Paid}
	}
	for i, rec := range records {
		resp.Records[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAttendance returns one employee's record.
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	rec, err := h.Payroll.AttendanceRecord(id)
	if err != nil {
		h.writeDomainError(w, "Failed to get attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(rec))
}

// SetAttendanceDay sets the status of one 1-based day and returns the
// updated record.
func (h *Handler) SetAttendanceDay(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day", err)
		return
	}

	var req SetDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Payroll.SetAttendance(id, day, attendance.Code(req.Status)); err != nil {
		h.writeDomainError(w, "Failed to set attendance", err)
		return
	}
	rec, err := h.Payroll.AttendanceRecord(id)
	if err != nil {
		h.writeDomainError(w, "Failed to get attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(rec))
}

// =============================================================================
// CURRENCY HANDLERS
// =============================================================================

// ListCurrencies returns the rate table in display order.
func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies := h.rates().Currencies()
	dtos := make([]CurrencyDTO, len(currencies))
	for i, c := range currencies {
		dtos[i] = toCurrencyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Convert converts ?amount= from one currency to another, unrounded.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	from := generic.CurrencyCode(q.Get("from"))
	to := generic.CurrencyCode(q.Get("to"))

	result, err := h.rates().Convert(amount, from, to)
	if err != nil {
		h.writeDomainError(w, "Conversion failed", err)
		return
	}
	target, err := h.rates().Lookup(to)
	if err != nil {
		h.writeDomainError(w, "Conversion failed", err)
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		Amount:    amount,
		From:      string(from),
		To:        string(to),
		Result:    result,
		Formatted: currency.Format(result, target, 2),
	})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SettingsDTO{
		OrganizationName: h.Payroll.Organization(r.Context()),
		DisplayCurrency:  string(h.Payroll.Config().DisplayCurrency),
	})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Payroll.SetOrganization(r.Context(), req.OrganizationName); err != nil {
		h.writeDomainError(w, "Failed to update settings", err)
		return
	}
	h.GetSettings(w, r)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to its HTTP status. Rejected imports
// carry their missing columns and row errors.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var importErr *generic.ImportError
	switch {
	case errors.As(err, &importErr):
		resp := ErrorResponse{
			Error:          message,
			Details:        err.Error(),
			MissingColumns: importErr.MissingColumns,
		}
		for _, row := range importErr.Rows {
			resp.Rows = append(resp.Rows, RowErrorDTO{Row: row.Row, Column: row.Column, Reason: row.Reason})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, generic.ErrNoPayroll):
		writeError(w, http.StatusConflict, "No payroll calculated for the current inputs. Calculate payroll first.", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
