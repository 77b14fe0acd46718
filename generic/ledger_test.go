package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestLedger() *generic.DefaultLedger {
	l := generic.NewLedger(store.NewMemory())
	l.Now = func() time.Time { return time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC) }
	return l
}

func entry(id string, p generic.Period, net int64) generic.PayrollEntry {
	return generic.PayrollEntry{
		EmployeeID:      generic.EmployeeID(id),
		Period:          p,
		Currency:        "MMK",
		GrossPay:        decimal.NewFromInt(net + 100),
		Tax:             decimal.NewFromInt(60),
		Contribution:    decimal.NewFromInt(40),
		TotalDeductions: decimal.NewFromInt(100),
		NetPay:          decimal.NewFromInt(net),
	}
}

func employee(id, name string) generic.Employee {
	return generic.Employee{
		ID:         generic.EmployeeID(id),
		Name:       name,
		Position:   "Clerk",
		JoinDate:   generic.NewTimePoint(2022, time.January, 15),
		BaseSalary: generic.NewMoney(400, "USD"),
	}
}

// =============================================================================
// FINALIZE / RETRIEVE
// =============================================================================

func TestLedger_FinalizeThenRetrieve(t *testing.T) {
	// GIVEN: A computed March payroll
	// WHEN: It is finalized
	// THEN: Retrieve returns the same entries and roster

	ledger := newTestLedger()
	ctx := context.Background()
	march := generic.NewPeriod(2024, time.March)

	entries := []generic.PayrollEntry{entry("EMP001", march, 1000), entry("EMP002", march, 2000)}
	emps := []generic.Employee{employee("EMP001", "Aung Aung"), employee("EMP002", "Su Su")}

	run, err := ledger.Finalize(ctx, march, entries, emps)
	require.NoError(t, err)
	assert.Equal(t, march, run.Period)

	got, err := ledger.Retrieve(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, entries, got.Entries)
	assert.Equal(t, emps, got.Employees)
	assert.Equal(t, time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC), got.FinalizedAt)
}

func TestLedger_FinalizeIsIsolatedFromLaterEdits(t *testing.T) {
	// GIVEN: A finalized run
	// WHEN: The caller's slices are mutated afterwards
	// THEN: The stored run is unchanged

	ledger := newTestLedger()
	ctx := context.Background()
	march := generic.NewPeriod(2024, time.March)

	entries := []generic.PayrollEntry{entry("EMP001", march, 1000)}
	emps := []generic.Employee{employee("EMP001", "Aung Aung")}

	_, err := ledger.Finalize(ctx, march, entries, emps)
	require.NoError(t, err)

	entries[0].NetPay = decimal.NewFromInt(1)
	emps[0].Name = "Renamed"
	emps[0].BaseSalary = generic.NewMoney(9999, "USD")

	got, err := ledger.Retrieve(ctx, march)
	require.NoError(t, err)
	assert.True(t, got.Entries[0].NetPay.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Aung Aung", got.Employees[0].Name)

	// Mutating a retrieved copy does not leak back either.
	got.Entries[0].NetPay = decimal.Zero
	again, err := ledger.Retrieve(ctx, march)
	require.NoError(t, err)
	assert.True(t, again.Entries[0].NetPay.Equal(decimal.NewFromInt(1000)))
}

func TestLedger_RefinalizeReplaces(t *testing.T) {
	// GIVEN: March already finalized
	// WHEN: March is finalized again with different entries
	// THEN: Exactly one March run exists and it holds the new entries

	ledger := newTestLedger()
	ctx := context.Background()
	march := generic.NewPeriod(2024, time.March)

	_, err := ledger.Finalize(ctx, march, []generic.PayrollEntry{entry("EMP001", march, 1000)}, nil)
	require.NoError(t, err)
	_, err = ledger.Finalize(ctx, march, []generic.PayrollEntry{entry("EMP001", march, 1500)}, nil)
	require.NoError(t, err)

	periods, err := ledger.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.Period{march}, periods)

	got, err := ledger.Retrieve(ctx, march)
	require.NoError(t, err)
	assert.True(t, got.Entries[0].NetPay.Equal(decimal.NewFromInt(1500)))
}

func TestLedger_RetrieveMissing(t *testing.T) {
	ledger := newTestLedger()
	_, err := ledger.Retrieve(context.Background(), generic.NewPeriod(2024, time.May))
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestLedger_FinalizeInvalidPeriod(t *testing.T) {
	ledger := newTestLedger()
	_, err := ledger.Finalize(context.Background(), generic.Period{Year: 2024, Month: 13}, nil, nil)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

// =============================================================================
// LIST / TREND
// =============================================================================

func TestLedger_ListPeriodsChronological(t *testing.T) {
	// GIVEN: Runs finalized out of order
	// THEN: ListPeriods and Trend are chronological

	ledger := newTestLedger()
	ctx := context.Background()

	order := []generic.Period{
		generic.NewPeriod(2024, time.March),
		generic.NewPeriod(2023, time.December),
		generic.NewPeriod(2024, time.January),
	}
	for i, p := range order {
		_, err := ledger.Finalize(ctx, p, []generic.PayrollEntry{entry("EMP001", p, int64(1000*(i+1)))}, nil)
		require.NoError(t, err)
	}

	periods, err := ledger.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.Period{
		generic.NewPeriod(2023, time.December),
		generic.NewPeriod(2024, time.January),
		generic.NewPeriod(2024, time.March),
	}, periods)

	trend, err := ledger.Trend(ctx)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, "2023-12", trend[0].Period.String())
	assert.True(t, trend[0].NetPay.Equal(decimal.NewFromInt(2000)))
	assert.True(t, trend[2].NetPay.Equal(decimal.NewFromInt(1000)))
}

func TestRunTotals(t *testing.T) {
	march := generic.NewPeriod(2024, time.March)
	totals := generic.PayrollRun{Period: march, Entries: []generic.PayrollEntry{
		entry("EMP001", march, 1000),
		entry("EMP002", march, 2000),
	}}.Totals()

	assert.Equal(t, 2, totals.Headcount)
	assert.True(t, totals.GrossPay.Equal(decimal.NewFromInt(3200)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(120)))
	assert.True(t, totals.Contribution.Equal(decimal.NewFromInt(80)))
	assert.True(t, totals.TotalDeductions.Equal(decimal.NewFromInt(200)))
	assert.True(t, totals.NetPay.Equal(decimal.NewFromInt(3000)))
}
