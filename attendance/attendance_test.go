package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
)

func codes(s ...string) []attendance.Code {
	out := make([]attendance.Code, len(s))
	for i, c := range s {
		out[i] = attendance.Code(c)
	}
	return out
}

// =============================================================================
// DERIVE SUMMARY
// =============================================================================

func TestDeriveSummary_CountsPaidAndUnpaid(t *testing.T) {
	// GIVEN: A week with every status code
	// WHEN: The summary is derived
	// THEN: Counts add up and paid/unpaid follow the table

	table := attendance.DefaultStatusTable()
	statuses := codes("P", "P", "O", "S", "L", "LW", "A")

	s, err := attendance.DeriveSummary(statuses, table)
	require.NoError(t, err)

	assert.Equal(t, 7, s.TotalDays)
	assert.Equal(t, 5, s.TotalPaidDays)
	assert.Equal(t, 2, s.UnpaidDays)
	assert.Equal(t, 2, s.Counts[attendance.Present])
	assert.Equal(t, 1, s.Counts[attendance.LeaveWithoutPay])

	sum := 0
	for _, n := range s.Counts {
		sum += n
	}
	assert.Equal(t, len(statuses), sum)
}

func TestDeriveSummary_UnknownCode(t *testing.T) {
	table := attendance.DefaultStatusTable()

	_, err := attendance.DeriveSummary(codes("P", "X"), table)
	assert.ErrorIs(t, err, generic.ErrUnknownStatus)
	assert.Contains(t, err.Error(), "day 2")
}

func TestDeriveSummary_Empty(t *testing.T) {
	s, err := attendance.DeriveSummary(nil, attendance.DefaultStatusTable())
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalDays)
	assert.Equal(t, 0, s.UnpaidDays)
}

func TestDeriveSummary_PaidFlagFlipMovesOnlyThatCode(t *testing.T) {
	// GIVEN: A fixed record and the default table
	// WHEN: One non-padding code's paid flag is flipped
	// THEN: TotalPaidDays moves by exactly that code's count

	statuses := codes("P", "P", "O", "S", "S", "L", "LW", "LW", "LW", "A")
	base, err := attendance.DeriveSummary(statuses, attendance.DefaultStatusTable())
	require.NoError(t, err)

	for i, st := range attendance.DefaultStatuses() {
		if st.Code == attendance.Present {
			continue
		}
		t.Run(string(st.Code), func(t *testing.T) {
			flipped := attendance.DefaultStatuses()
			flipped[i].Paid = !flipped[i].Paid
			table, err := attendance.NewStatusTable(flipped, attendance.Present)
			require.NoError(t, err)

			got, err := attendance.DeriveSummary(statuses, table)
			require.NoError(t, err)

			delta := base.Counts[st.Code]
			if st.Paid {
				delta = -delta
			}
			assert.Equal(t, base.TotalPaidDays+delta, got.TotalPaidDays)
			assert.Equal(t, base.UnpaidDays-delta, got.UnpaidDays)
			assert.Equal(t, base.TotalDays, got.TotalDays)
		})
	}
}

// =============================================================================
// RESIZE
// =============================================================================

func TestResize_GrowPadsWithPresent(t *testing.T) {
	got := attendance.Resize(codes("A", "LW"), 4, attendance.Present)
	assert.Equal(t, codes("A", "LW", "P", "P"), got)
}

func TestResize_ShrinkKeepsPrefix(t *testing.T) {
	// GIVEN: A 31-day record (March)
	// WHEN: Resized to February 2024 (29 days)
	// THEN: Days 1-29 keep their values

	march := attendance.Fill(31, attendance.Present)
	march[0] = attendance.Absent
	march[28] = attendance.SickLeave
	march[30] = attendance.LeaveWithoutPay

	got := attendance.Resize(march, 29, attendance.Present)
	require.Len(t, got, 29)
	assert.Equal(t, attendance.Absent, got[0])
	assert.Equal(t, attendance.SickLeave, got[28])
}

func TestResize_DoesNotAliasInput(t *testing.T) {
	in := codes("A", "A")
	out := attendance.Resize(in, 2, attendance.Present)
	out[0] = attendance.Present
	assert.Equal(t, attendance.Absent, in[0])
}

// =============================================================================
// STATUS TABLE
// =============================================================================

func TestNewStatusTable_PaddingMustBePaid(t *testing.T) {
	_, err := attendance.NewStatusTable(attendance.DefaultStatuses(), attendance.Absent)
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)

	_, err = attendance.NewStatusTable(attendance.DefaultStatuses(), "Z")
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)
}

func TestNewStatusTable_RejectsDuplicates(t *testing.T) {
	statuses := append(attendance.DefaultStatuses(), attendance.Status{Code: "P", Label: "dup", Paid: true})
	_, err := attendance.NewStatusTable(statuses, attendance.Present)
	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)
}

// =============================================================================
// SHEET
// =============================================================================

func roster(ids ...string) []generic.Employee {
	out := make([]generic.Employee, len(ids))
	for i, id := range ids {
		out[i] = generic.Employee{ID: generic.EmployeeID(id), Name: id}
	}
	return out
}

func TestSheet_SyncCreatesAndDrops(t *testing.T) {
	// GIVEN: A sheet for April 2024 with two employees
	// WHEN: The roster loses one and gains one
	// THEN: The sheet follows, keeping the survivor's edits

	sheet := attendance.NewSheet(attendance.DefaultStatusTable(), generic.NewPeriod(2024, time.April))
	sheet.Sync(roster("EMP001", "EMP002"))
	require.NoError(t, sheet.SetStatus("EMP002", 3, attendance.Absent))

	sheet.Sync(roster("EMP002", "EMP003"))

	_, ok := sheet.Record("EMP001")
	assert.False(t, ok)

	rec, ok := sheet.Record("EMP002")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Summary.UnpaidDays)

	rec, ok = sheet.Record("EMP003")
	require.True(t, ok)
	assert.Len(t, rec.Statuses, 30)
	assert.Equal(t, 30, rec.Summary.TotalPaidDays)

	records := sheet.Records()
	require.Len(t, records, 2)
	assert.Equal(t, generic.EmployeeID("EMP002"), records[0].EmployeeID)
}

func TestSheet_SetPeriodResizes(t *testing.T) {
	sheet := attendance.NewSheet(attendance.DefaultStatusTable(), generic.NewPeriod(2024, time.January))
	sheet.Sync(roster("EMP001"))
	require.NoError(t, sheet.SetStatus("EMP001", 31, attendance.Absent))
	require.NoError(t, sheet.SetStatus("EMP001", 2, attendance.LeaveWithoutPay))

	sheet.SetPeriod(generic.NewPeriod(2024, time.February))

	rec, _ := sheet.Record("EMP001")
	assert.Len(t, rec.Statuses, 29)
	assert.Equal(t, 29, rec.Summary.TotalDays)
	// Day 31 fell off; day 2 survived.
	assert.Equal(t, 1, rec.Summary.UnpaidDays)
}

func TestSheet_SetStatusValidation(t *testing.T) {
	sheet := attendance.NewSheet(attendance.DefaultStatusTable(), generic.NewPeriod(2024, time.April))
	sheet.Sync(roster("EMP001"))

	assert.ErrorIs(t, sheet.SetStatus("EMP001", 1, "X"), generic.ErrUnknownStatus)
	assert.ErrorIs(t, sheet.SetStatus("EMP001", 31, attendance.Absent), generic.ErrInvalidPeriod)
	assert.ErrorIs(t, sheet.SetStatus("EMP001", 0, attendance.Absent), generic.ErrInvalidPeriod)
	assert.ErrorIs(t, sheet.SetStatus("EMP999", 1, attendance.Absent), generic.ErrEmployeeNotFound)
}

func TestSheet_SetStatusesLengthMustMatch(t *testing.T) {
	sheet := attendance.NewSheet(attendance.DefaultStatusTable(), generic.NewPeriod(2024, time.April))
	sheet.Sync(roster("EMP001"))

	err := sheet.SetStatuses("EMP001", attendance.Fill(31, attendance.Present))
	assert.ErrorIs(t, err, generic.ErrAttendanceMismatch)

	full := attendance.Fill(30, attendance.Present)
	full[0] = attendance.Absent
	require.NoError(t, sheet.SetStatuses("EMP001", full))

	// The sheet holds its own copy.
	full[1] = attendance.Absent
	rec, _ := sheet.Record("EMP001")
	assert.Equal(t, 1, rec.Summary.UnpaidDays)
}

func TestSheet_RecordIsACopy(t *testing.T) {
	sheet := attendance.NewSheet(attendance.DefaultStatusTable(), generic.NewPeriod(2024, time.April))
	sheet.Sync(roster("EMP001"))

	rec, _ := sheet.Record("EMP001")
	rec.Statuses[0] = attendance.Absent
	rec.Summary.Counts[attendance.Absent] = 99

	again, _ := sheet.Record("EMP001")
	assert.Equal(t, attendance.Present, again.Statuses[0])
	assert.Equal(t, 0, again.Summary.Counts[attendance.Absent])
}
