package payroll

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/roster"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// COORDINATOR - Owner of the payroll inputs and the current entry set
// =============================================================================

// Coordinator serializes every mutation of the payroll inputs. Each mutation
// bumps the version and drops the current entries, so entries are only ever
// read for the exact inputs they were computed from.
type Coordinator struct {
	mu sync.Mutex

	engine *Engine
	roster *roster.Roster
	sheet  *attendance.Sheet
	ledger generic.HistoricalLedger
	prefs  generic.PreferenceStore
	log    zerolog.Logger

	cfg     PeriodConfig
	version uint64

	entries        []generic.PayrollEntry
	entriesVersion uint64
}

type CoordinatorConfig struct {
	Engine      *Engine
	Roster      *roster.Roster
	Statuses    *attendance.StatusTable
	Ledger      generic.HistoricalLedger
	Preferences generic.PreferenceStore
	Logger      zerolog.Logger

	Period          generic.Period
	DisplayCurrency generic.CurrencyCode
}

// NewCoordinator builds a coordinator for the configured period, with an
// attendance record of all padding days for every rostered employee.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Engine == nil || cfg.Roster == nil || cfg.Ledger == nil || cfg.Statuses == nil {
		return nil, fmt.Errorf("%w: coordinator needs an engine, roster, status table and ledger", generic.ErrInvalidPolicy)
	}
	if !cfg.Period.Valid() {
		return nil, fmt.Errorf("%w: %s", generic.ErrInvalidPeriod, cfg.Period)
	}
	display := cfg.DisplayCurrency
	if display == "" {
		display = cfg.Engine.Canonical()
	}
	if _, err := cfg.Engine.Rates().Lookup(display); err != nil {
		return nil, err
	}

	c := &Coordinator{
		engine: cfg.Engine,
		roster: cfg.Roster,
		sheet:  attendance.NewSheet(cfg.Statuses, cfg.Period),
		ledger: cfg.Ledger,
		prefs:  cfg.Preferences,
		log:    cfg.Logger,
		cfg:    NewPeriodConfig(cfg.Period, display),
	}
	c.sheet.Sync(c.roster.List())
	return c, nil
}

func (c *Coordinator) Engine() *Engine        { return c.engine }
func (c *Coordinator) Roster() *roster.Roster { return c.roster }

// Version is bumped by every mutation of the payroll inputs.
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// invalidateLocked must be called with c.mu held after any input change.
func (c *Coordinator) invalidateLocked() {
	c.version++
	c.entries = nil
}

// =============================================================================
// ROSTER MUTATIONS
// =============================================================================

func (c *Coordinator) AddEmployee(ctx context.Context, emp generic.Employee) (generic.Employee, error) {
	if err := c.checkSalaryCurrency(emp); err != nil {
		return generic.Employee{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	added, err := c.roster.Add(ctx, emp)
	if err != nil {
		return generic.Employee{}, err
	}
	c.rosterChangedLocked()
	return added, nil
}

func (c *Coordinator) UpdateEmployee(ctx context.Context, emp generic.Employee) error {
	if err := c.checkSalaryCurrency(emp); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.roster.Update(ctx, emp); err != nil {
		return err
	}
	c.rosterChangedLocked()
	return nil
}

func (c *Coordinator) DeleteEmployee(ctx context.Context, id generic.EmployeeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.roster.Delete(ctx, id); err != nil {
		return err
	}
	delete(c.cfg.Deductions, id)
	delete(c.cfg.Overtime, id)
	c.rosterChangedLocked()
	return nil
}

// ImportEmployees appends a CSV roster. Salaries are read in the engine's
// reference currency.
func (c *Coordinator) ImportEmployees(ctx context.Context, data []byte) ([]generic.Employee, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	added, err := c.roster.Import(ctx, data, c.engine.Config().ReferenceCurrency)
	if err != nil {
		return nil, err
	}
	c.rosterChangedLocked()
	return added, nil
}

// ReplaceRoster swaps the whole roster, clearing per-employee inputs.
func (c *Coordinator) ReplaceRoster(ctx context.Context, emps []generic.Employee) error {
	for _, emp := range emps {
		if err := c.checkSalaryCurrency(emp); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.roster.Replace(ctx, emps); err != nil {
		return err
	}
	c.cfg.Deductions = make(map[generic.EmployeeID]generic.Deduction)
	c.cfg.Overtime = make(map[generic.EmployeeID]decimal.Decimal)
	c.rosterChangedLocked()
	return nil
}

// checkSalaryCurrency rejects a record whose salary the engine could never
// convert, so one bad record cannot block the whole roster's payroll.
func (c *Coordinator) checkSalaryCurrency(emp generic.Employee) error {
	if _, err := c.engine.Rates().Lookup(emp.BaseSalary.Currency); err != nil {
		return &generic.EmployeeValidationError{EmployeeID: emp.ID, Fields: []string{"salaryCurrency"}}
	}
	return nil
}

func (c *Coordinator) rosterChangedLocked() {
	c.sheet.Sync(c.roster.List())
	c.invalidateLocked()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (c *Coordinator) SetAttendance(id generic.EmployeeID, day int, code attendance.Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sheet.SetStatus(id, day, code); err != nil {
		return err
	}
	c.invalidateLocked()
	return nil
}

func (c *Coordinator) SetAttendanceRecord(id generic.EmployeeID, statuses []attendance.Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sheet.SetStatuses(id, statuses); err != nil {
		return err
	}
	c.invalidateLocked()
	return nil
}

func (c *Coordinator) Attendance() []attendance.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sheet.Records()
}

func (c *Coordinator) AttendanceRecord(id generic.EmployeeID) (attendance.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.sheet.Record(id)
	if !ok {
		return attendance.Record{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return rec, nil
}

// StatusTable returns the attendance codes in use.
func (c *Coordinator) StatusTable() *attendance.StatusTable { return c.sheet.Table() }

// =============================================================================
// PERIOD CONFIGURATION
// =============================================================================

func (c *Coordinator) Config() PeriodConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Clone()
}

// SetPeriod starts a new period: attendance is resized, and the per-employee
// deductions and overtime are reset.
func (c *Coordinator) SetPeriod(period generic.Period) error {
	if !period.Valid() {
		return fmt.Errorf("%w: %s", generic.ErrInvalidPeriod, period)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if period == c.cfg.Period {
		return nil
	}
	c.cfg.Period = period
	c.cfg.Deductions = make(map[generic.EmployeeID]generic.Deduction)
	c.cfg.Overtime = make(map[generic.EmployeeID]decimal.Decimal)
	c.sheet.SetPeriod(period)
	c.invalidateLocked()
	return nil
}

// SetDisplayCurrency changes the currency inputs are entered in. Service
// money and deductions are display amounts, so payroll is invalidated.
func (c *Coordinator) SetDisplayCurrency(ctx context.Context, code generic.CurrencyCode) error {
	if _, err := c.engine.Rates().Lookup(code); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if code == c.cfg.DisplayCurrency {
		return nil
	}
	c.cfg.DisplayCurrency = code
	c.invalidateLocked()
	c.savePreference(ctx, generic.PrefSelectedCurrency, string(code))
	return nil
}

func (c *Coordinator) SetServiceMoneyPerPoint(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: service money per point cannot be negative", generic.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ServiceMoneyPerPoint = amount
	c.invalidateLocked()
	return nil
}

// SetDeduction sets an employee's manual deduction for the period, in the
// display currency. A zero amount with no reason clears it.
func (c *Coordinator) SetDeduction(id generic.EmployeeID, d generic.Deduction) error {
	if d.Amount.IsNegative() {
		return fmt.Errorf("%w: deduction cannot be negative", generic.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.roster.Get(id); err != nil {
		return err
	}
	if d.Amount.IsZero() && d.Reason == "" {
		delete(c.cfg.Deductions, id)
	} else {
		c.cfg.Deductions[id] = d
	}
	c.invalidateLocked()
	return nil
}

// SetOvertime sets an employee's overtime pay for the period, in the display
// currency. Zero clears it.
func (c *Coordinator) SetOvertime(id generic.EmployeeID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: overtime cannot be negative", generic.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.roster.Get(id); err != nil {
		return err
	}
	if amount.IsZero() {
		delete(c.cfg.Overtime, id)
	} else {
		c.cfg.Overtime[id] = amount
	}
	c.invalidateLocked()
	return nil
}

// =============================================================================
// CALCULATION
// =============================================================================

// Calculate computes entries for the whole roster against the current inputs.
func (c *Coordinator) Calculate() ([]generic.PayrollEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	emps := c.roster.List()
	summaries := make(map[generic.EmployeeID]attendance.Summary, len(emps))
	for _, rec := range c.sheet.Records() {
		summaries[rec.EmployeeID] = rec.Summary
	}
	entries, err := c.engine.ComputeAll(emps, summaries, c.cfg)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	c.entriesVersion = c.version

	c.log.Info().
		Str("period", c.cfg.Period.String()).
		Int("employees", len(entries)).
		Uint64("version", c.version).
		Msg("payroll calculated")
	return cloneEntries(entries), nil
}

// Entries returns the current entry set, or ErrNoPayroll if none was
// computed since the last input change.
func (c *Coordinator) Entries() ([]generic.PayrollEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked() {
		return nil, generic.ErrNoPayroll
	}
	return cloneEntries(c.entries), nil
}

func (c *Coordinator) currentLocked() bool {
	return c.entries != nil && c.entriesVersion == c.version
}

// Payslip is one employee's entry with everything needed to print it.
type Payslip struct {
	Organization string
	Employee     generic.Employee
	Entry        generic.PayrollEntry
	Statement    currency.Statement
	Tax          tax.Result
}

// Payslip presents an employee's current entry in the display currency.
func (c *Coordinator) Payslip(ctx context.Context, id generic.EmployeeID) (Payslip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked() {
		return Payslip{}, generic.ErrNoPayroll
	}
	emp, err := c.roster.Get(id)
	if err != nil {
		return Payslip{}, err
	}
	for _, e := range c.entries {
		if e.EmployeeID != id {
			continue
		}
		st, err := c.engine.Rates().Present(e, c.cfg.DisplayCurrency)
		if err != nil {
			return Payslip{}, err
		}
		return Payslip{
			Organization: c.organization(ctx),
			Employee:     emp,
			Entry:        e,
			Statement:    st,
			Tax:          c.engine.TaxDetail(emp, e),
		}, nil
	}
	return Payslip{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
}

// =============================================================================
// LEDGER
// =============================================================================

// Finalize freezes the current entries and roster as the run for the
// current period, replacing any earlier run for it.
func (c *Coordinator) Finalize(ctx context.Context) (generic.PayrollRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked() {
		return generic.PayrollRun{}, generic.ErrNoPayroll
	}
	run, err := c.ledger.Finalize(ctx, c.cfg.Period, c.entries, c.roster.List())
	if err != nil {
		return generic.PayrollRun{}, err
	}
	c.log.Info().
		Str("period", run.Period.String()).
		Int("entries", len(run.Entries)).
		Msg("payroll finalized")
	return run, nil
}

// IsFinalized reports whether the current period already has a stored run.
func (c *Coordinator) IsFinalized(ctx context.Context) (bool, error) {
	period := c.Config().Period
	_, err := c.ledger.Retrieve(ctx, period)
	if err == nil {
		return true, nil
	}
	if generic.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *Coordinator) Ledger() generic.HistoricalLedger { return c.ledger }

// =============================================================================
// PREFERENCES
// =============================================================================

// DefaultOrganizationName is shown until a name is saved.
const DefaultOrganizationName = "Hotel Empire"

func (c *Coordinator) Organization(ctx context.Context) string {
	return c.organization(ctx)
}

func (c *Coordinator) organization(ctx context.Context) string {
	if c.prefs == nil {
		return DefaultOrganizationName
	}
	name, ok, err := c.prefs.GetPreference(ctx, generic.PrefOrganizationName)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read organization name")
	}
	if !ok || name == "" {
		return DefaultOrganizationName
	}
	return name
}

func (c *Coordinator) SetOrganization(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: organization name is required", generic.ErrInvalidInput)
	}
	c.savePreference(ctx, generic.PrefOrganizationName, name)
	return nil
}

func (c *Coordinator) savePreference(ctx context.Context, key, value string) {
	if c.prefs == nil {
		return
	}
	if err := c.prefs.SetPreference(ctx, key, value); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("failed to save preference")
	}
}

func cloneEntries(in []generic.PayrollEntry) []generic.PayrollEntry {
	out := make([]generic.PayrollEntry, len(in))
	copy(out, in)
	return out
}
