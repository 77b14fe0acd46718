package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func employee(id, name string) generic.Employee {
	return generic.Employee{
		ID:            generic.EmployeeID(id),
		Name:          name,
		Department:    "Front Office",
		Position:      "Receptionist",
		JoinDate:      generic.NewTimePoint(2022, time.January, 15),
		BaseSalary:    generic.Money{Value: dec("400.50"), Currency: "USD"},
		ServicePoints: 5,
		Dependents:    generic.DependentProfile{HasSpouse: true, Children: 1, Parents: 2},
	}
}

// =============================================================================
// RUNS
// =============================================================================

func TestStore_RunUpsertPerPeriod(t *testing.T) {
	// GIVEN: A run saved for April
	// WHEN: A second run is saved for April
	// THEN: Only the second one is stored

	s := newTestStore(t)
	ctx := context.Background()
	april := generic.NewPeriod(2024, time.April)

	first := generic.PayrollRun{
		Period:      april,
		Entries:     []generic.PayrollEntry{{EmployeeID: "EMP001", Period: april, Currency: "MMK", NetPay: dec("100")}},
		Employees:   []generic.Employee{employee("EMP001", "Aung Aung")},
		FinalizedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRun(ctx, first))

	second := first.Clone()
	second.Entries[0].NetPay = dec("1517783.3333333333")
	second.FinalizedAt = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, second))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got, err := s.GetRun(ctx, april)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Entries[0].NetPay.Equal(dec("1517783.3333333333")), got.Entries[0].NetPay.String())
	assert.Equal(t, april, got.Entries[0].Period)
	assert.True(t, got.FinalizedAt.Equal(second.FinalizedAt))

	emp, ok := got.Employee("EMP001")
	require.True(t, ok)
	assert.Equal(t, "2022-01-15", emp.JoinDate.String())
	assert.True(t, emp.BaseSalary.Value.Equal(dec("400.50")))
}

func TestStore_RunsChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []generic.Period{
		generic.NewPeriod(2024, time.March),
		generic.NewPeriod(2023, time.December),
		generic.NewPeriod(2024, time.January),
	} {
		require.NoError(t, s.SaveRun(ctx, generic.PayrollRun{Period: p, FinalizedAt: time.Now()}))
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "2023-12", runs[0].Period.String())
	assert.Equal(t, "2024-01", runs[1].Period.String())
	assert.Equal(t, "2024-03", runs[2].Period.String())
}

func TestStore_GetRunMissing(t *testing.T) {
	s := newTestStore(t)
	run, err := s.GetRun(context.Background(), generic.NewPeriod(2024, time.April))
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestStore_WorksWithLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ledger := generic.NewLedger(s)
	april := generic.NewPeriod(2024, time.April)

	_, err := ledger.Finalize(ctx, april,
		[]generic.PayrollEntry{{EmployeeID: "EMP001", Period: april, GrossPay: dec("1650000")}},
		[]generic.Employee{employee("EMP001", "Aung Aung")})
	require.NoError(t, err)

	run, err := ledger.Retrieve(ctx, april)
	require.NoError(t, err)
	assert.True(t, run.Totals().GrossPay.Equal(dec("1650000")))

	_, err = ledger.Retrieve(ctx, generic.NewPeriod(2024, time.May))
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

// =============================================================================
// ROSTER
// =============================================================================

func TestStore_EmployeesKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEmployees(ctx, []generic.Employee{
		employee("EMP002", "Zaw Zaw"),
		employee("EMP001", "Aung Aung"),
	}))
	require.NoError(t, s.SaveEmployee(ctx, employee("EMP003", "Ma Mya")))

	// Updating does not move the record.
	updated := employee("EMP002", "Zaw Zaw")
	updated.ServicePoints = 9
	require.NoError(t, s.SaveEmployee(ctx, updated))

	emps, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 3)
	assert.Equal(t, generic.EmployeeID("EMP002"), emps[0].ID)
	assert.Equal(t, 9, emps[0].ServicePoints)
	assert.Equal(t, generic.EmployeeID("EMP001"), emps[1].ID)
	assert.Equal(t, generic.EmployeeID("EMP003"), emps[2].ID)

	got, err := s.GetEmployee(ctx, "EMP001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aung Aung", got.Name)
	assert.Equal(t, generic.CurrencyCode("USD"), got.BaseSalary.Currency)
	assert.True(t, got.Dependents.HasSpouse)
	assert.Equal(t, 2, got.Dependents.Parents)

	require.NoError(t, s.DeleteEmployee(ctx, "EMP001"))
	got, err = s.GetEmployee(ctx, "EMP001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// EVENTS / PREFERENCES
// =============================================================================

func TestStore_EventsOutliveEmployee(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("EMP001", "Aung Aung")))

	fine := dec("25000")
	require.NoError(t, s.AppendEvent(ctx, generic.EmployeeEvent{
		ID: "EVT-2", EmployeeID: "EMP001", Date: generic.NewTimePoint(2024, time.March, 3),
		Type: generic.EventPenalty, Description: "Late", Amount: &fine,
	}))
	require.NoError(t, s.AppendEvent(ctx, generic.EmployeeEvent{
		ID: "EVT-1", EmployeeID: "EMP001", Date: generic.NewTimePoint(2022, time.January, 15),
		Type: generic.EventHired, Description: "Hired as Receptionist in the Front Office department.",
	}))
	require.NoError(t, s.DeleteEmployee(ctx, "EMP001"))

	events, err := s.ListEvents(ctx, "EMP001")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, generic.EventHired, events[0].Type)
	assert.Nil(t, events[0].Amount)
	assert.Equal(t, generic.EventPenalty, events[1].Type)
	require.NotNil(t, events[1].Amount)
	assert.True(t, events[1].Amount.Equal(fine))

	err = s.AppendEvent(ctx, events[0])
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

// =============================================================================
// CORRUPT ROWS
// =============================================================================

func TestStore_CorruptRowsAreReported(t *testing.T) {
	// GIVEN: A database whose stored values were edited by hand
	// WHEN: Employees, events and runs are read back
	// THEN: Each read fails instead of returning zero values

	path := filepath.Join(t.TempDir(), "payroll.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	april := generic.NewPeriod(2024, time.April)
	fine := dec("25000")
	require.NoError(t, s.SaveEmployee(ctx, employee("EMP001", "Aung Aung")))
	require.NoError(t, s.AppendEvent(ctx, generic.EmployeeEvent{
		ID: "EVT-1", EmployeeID: "EMP001", Date: generic.NewTimePoint(2024, time.March, 3),
		Type: generic.EventPenalty, Description: "Late", Amount: &fine,
	}))
	require.NoError(t, s.SaveRun(ctx, generic.PayrollRun{
		Period:      april,
		Employees:   []generic.Employee{employee("EMP001", "Aung Aung")},
		FinalizedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}))

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()
	corrupt := func(query string) {
		t.Helper()
		_, err := raw.ExecContext(ctx, query)
		require.NoError(t, err)
	}

	corrupt(`UPDATE employees SET base_salary = '4OO' WHERE id = 'EMP001'`)
	_, err = s.ListEmployees(ctx)
	assert.ErrorContains(t, err, "base_salary")

	corrupt(`UPDATE employees SET base_salary = '400', join_date = 'not-a-date' WHERE id = 'EMP001'`)
	_, err = s.GetEmployee(ctx, "EMP001")
	assert.ErrorContains(t, err, "join_date")

	corrupt(`UPDATE employee_events SET amount = 'lots' WHERE id = 'EVT-1'`)
	_, err = s.ListEvents(ctx, "EMP001")
	assert.ErrorContains(t, err, "amount")

	corrupt(`UPDATE employee_events SET amount = NULL, event_date = '03/03/2024' WHERE id = 'EVT-1'`)
	_, err = s.ListEvents(ctx, "EMP001")
	assert.ErrorContains(t, err, "event_date")

	corrupt(`UPDATE payroll_runs SET finalized_at = 'yesterday'`)
	_, err = s.ListRuns(ctx)
	assert.ErrorContains(t, err, "finalized_at")
	_, err = s.GetRun(ctx, april)
	assert.ErrorContains(t, err, "finalized_at")
}

func TestStore_Preferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetPreference(ctx, generic.PrefOrganizationName)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetPreference(ctx, generic.PrefOrganizationName, "Hotel Empire"))
	require.NoError(t, s.SetPreference(ctx, generic.PrefOrganizationName, "Hotel Yangon"))

	v, ok, err := s.GetPreference(ctx, generic.PrefOrganizationName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hotel Yangon", v)
}
