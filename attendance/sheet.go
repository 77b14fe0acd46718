package attendance

import (
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// RECORD
// =============================================================================

type Record struct {
	EmployeeID generic.EmployeeID
	Statuses   []Code
	Summary    Summary
}

func (r Record) Clone() Record {
	out := r
	out.Statuses = make([]Code, len(r.Statuses))
	copy(out.Statuses, r.Statuses)
	out.Summary = r.Summary.Clone()
	return out
}

// =============================================================================
// SHEET - Every employee's record for one period
// =============================================================================

// Sheet is not safe for concurrent use; the payroll coordinator serializes
// access to it.
type Sheet struct {
	table   *StatusTable
	period  generic.Period
	records map[generic.EmployeeID]*Record
	order   []generic.EmployeeID
}

func NewSheet(table *StatusTable, period generic.Period) *Sheet {
	return &Sheet{
		table:   table,
		period:  period,
		records: make(map[generic.EmployeeID]*Record),
	}
}

func (s *Sheet) Table() *StatusTable { return s.table }

// Sync aligns the sheet with the roster: new employees get a record of all
// padding days, existing records are resized, removed employees are dropped.
// Sheet order follows roster order.
func (s *Sheet) Sync(employees []generic.Employee) {
	days := s.period.Days()
	next := make(map[generic.EmployeeID]*Record, len(employees))
	order := make([]generic.EmployeeID, 0, len(employees))

	for _, emp := range employees {
		rec, ok := s.records[emp.ID]
		if !ok {
			rec = &Record{EmployeeID: emp.ID, Statuses: Fill(days, s.table.padding)}
		} else if len(rec.Statuses) != days {
			rec.Statuses = Resize(rec.Statuses, days, s.table.padding)
		}
		s.resummarize(rec)
		next[emp.ID] = rec
		order = append(order, emp.ID)
	}
	s.records = next
	s.order = order
}

// SetPeriod moves the sheet to another period, resizing every record.
func (s *Sheet) SetPeriod(period generic.Period) {
	s.period = period
	days := period.Days()
	for _, id := range s.order {
		rec := s.records[id]
		rec.Statuses = Resize(rec.Statuses, days, s.table.padding)
		s.resummarize(rec)
	}
}

// SetStatus sets the status of one day. day is the 1-based day of month.
func (s *Sheet) SetStatus(id generic.EmployeeID, day int, code Code) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if _, known := s.table.Lookup(code); !known {
		return fmt.Errorf("%w: %q", generic.ErrUnknownStatus, code)
	}
	if day < 1 || day > len(rec.Statuses) {
		return fmt.Errorf("%w: day %d outside %s", generic.ErrInvalidPeriod, day, s.period)
	}
	rec.Statuses[day-1] = code
	s.resummarize(rec)
	return nil
}

// SetStatuses replaces a whole record. The slice must cover the period exactly.
func (s *Sheet) SetStatuses(id generic.EmployeeID, statuses []Code) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if len(statuses) != s.period.Days() {
		return fmt.Errorf("%w: got %d days, %s has %d",
			generic.ErrAttendanceMismatch, len(statuses), s.period, s.period.Days())
	}
	summary, err := DeriveSummary(statuses, s.table)
	if err != nil {
		return err
	}
	rec.Statuses = append([]Code(nil), statuses...)
	rec.Summary = summary
	return nil
}

func (s *Sheet) Record(id generic.EmployeeID) (Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Records returns copies of every record in roster order.
func (s *Sheet) Records() []Record {
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// resummarize recomputes a record's summary. Statuses in a sheet are
// validated on the way in, so a failure here is a broken invariant.
func (s *Sheet) resummarize(rec *Record) {
	summary, err := DeriveSummary(rec.Statuses, s.table)
	if err != nil {
		panic(fmt.Sprintf("attendance: record %s holds an unknown status: %v", rec.EmployeeID, err))
	}
	rec.Summary = summary
}
