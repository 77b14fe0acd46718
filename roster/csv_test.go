package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/roster"
)

const header = "name,department,position,joinDate,baseSalaryUSD,servicePoints,hasSpouse,children,parents\n"

func TestParseCSV_Valid(t *testing.T) {
	data := header +
		"Aung Aung,Front Office,Receptionist,2022-01-15,400,5,true,1,0\n" +
		"\n" +
		" Ma Mya , Housekeeping , Room Attendant ,2021-11-20,300,4,FALSE,0,2\n"

	emps, err := roster.ParseCSV([]byte(data), "USD")
	require.NoError(t, err)
	require.Len(t, emps, 2)

	assert.Equal(t, "Aung Aung", emps[0].Name)
	assert.True(t, emps[0].Dependents.HasSpouse)
	assert.Equal(t, 1, emps[0].Dependents.Children)
	assert.Equal(t, generic.CurrencyCode("USD"), emps[0].BaseSalary.Currency)
	assert.True(t, emps[0].BaseSalary.Value.Equal(generic.MustParseDecimal("400")))

	assert.Equal(t, "Ma Mya", emps[1].Name)
	assert.Equal(t, "Room Attendant", emps[1].Position)
	assert.False(t, emps[1].Dependents.HasSpouse)
	assert.Equal(t, 2, emps[1].Dependents.Parents)
	assert.Equal(t, "2021-11-20", emps[1].JoinDate.String())
}

func TestParseCSV_ColumnOrderDoesNotMatter(t *testing.T) {
	data := "parents,children,hasSpouse,servicePoints,baseSalaryUSD,joinDate,position,department,name,notes\n" +
		"2,0,false,4,300,2021-11-20,Room Attendant,Housekeeping,Ma Mya,ignored\n"

	emps, err := roster.ParseCSV([]byte(data), "USD")
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, "Ma Mya", emps[0].Name)
	assert.Equal(t, 2, emps[0].Dependents.Parents)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	data := "name,department,position,joinDate\nAung Aung,Front Office,Receptionist,2022-01-15\n"

	_, err := roster.ParseCSV([]byte(data), "USD")
	var ierr *generic.ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, []string{"baseSalaryUSD", "servicePoints", "hasSpouse", "children", "parents"}, ierr.MissingColumns)
	assert.ErrorIs(t, err, generic.ErrImport)
}

func TestParseCSV_EmptyFile(t *testing.T) {
	_, err := roster.ParseCSV(nil, "USD")
	var ierr *generic.ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Len(t, ierr.MissingColumns, len(roster.RequiredColumns))
}

func TestParseCSV_BadCellsReportedWithRow(t *testing.T) {
	data := header +
		"Aung Aung,Front Office,Receptionist,2022-01-15,400,5,true,1,0\n" +
		"Kyaw Kyaw,F&B,Waiter,03/01/2023,abc,4,maybe,-1,2\n"

	_, err := roster.ParseCSV([]byte(data), "USD")
	var ierr *generic.ImportError
	require.ErrorAs(t, err, &ierr)

	cols := map[string]int{}
	for _, re := range ierr.Rows {
		assert.Equal(t, 3, re.Row)
		cols[re.Column]++
	}
	assert.Equal(t, map[string]int{"joinDate": 1, "baseSalaryUSD": 1, "hasSpouse": 1, "children": 1}, cols)
}

func TestImport_AllOrNothing(t *testing.T) {
	// GIVEN: A roster with one employee and a file with one bad row
	// WHEN: The file is imported
	// THEN: Nothing is added

	r, _ := newTestRoster(t)
	ctx := context.Background()
	_, err := r.Add(ctx, receptionist())
	require.NoError(t, err)

	data := header +
		"Su Su,Front Office,Concierge,2023-01-20,420,5,true,0,0\n" +
		",Security,Security Guard,2023-06-01,320,4,false,0,2\n"

	_, err = r.Import(ctx, []byte(data), "USD")
	assert.ErrorIs(t, err, generic.ErrImport)
	assert.Equal(t, 1, r.Len())
}

func TestImport_AppendsWithHiredEvents(t *testing.T) {
	r, mem := newTestRoster(t)
	ctx := context.Background()

	data := header +
		"Su Su,Front Office,Concierge,2023-01-20,420,5,true,0,0\n" +
		"Ba Oo,Security,Security Guard,2023-06-01,320,4,false,0,2\n"

	added, err := r.Import(ctx, []byte(data), "USD")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEqual(t, added[0].ID, added[1].ID)

	stored, err := mem.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	events := r.Events(ctx, added[1].ID)
	require.Len(t, events, 1)
	assert.Equal(t, "Hired as Security Guard via CSV import.", events[0].Description)
}
