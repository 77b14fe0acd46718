package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CSV IMPORT
// =============================================================================

// RequiredColumns are the headers an import file must carry. Extra columns
// are ignored; order does not matter.
var RequiredColumns = []string{
	"name", "department", "position", "joinDate", "baseSalaryUSD",
	"servicePoints", "hasSpouse", "children", "parents",
}

// importRow is one CSV line as text. Coercion is done by hand so that every
// bad cell can be reported with its row and column.
type importRow struct {
	Name          string `csv:"name"`
	Department    string `csv:"department"`
	Position      string `csv:"position"`
	JoinDate      string `csv:"joinDate"`
	BaseSalaryUSD string `csv:"baseSalaryUSD"`
	ServicePoints string `csv:"servicePoints"`
	HasSpouse     string `csv:"hasSpouse"`
	Children      string `csv:"children"`
	Parents       string `csv:"parents"`
}

// Import parses a CSV roster and appends every row as a new employee.
// Nothing is applied unless every row is valid. Salaries are read in the
// given reference currency.
func (r *Roster) Import(ctx context.Context, data []byte, reference generic.CurrencyCode) ([]generic.Employee, error) {
	emps, err := ParseCSV(data, reference)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	events := make([]generic.EmployeeEvent, 0, len(emps))
	for i := range emps {
		emps[i].ID = r.newIDLocked()
		r.employees = append(r.employees, emps[i])
		ev := hiredEvent(emps[i], fmt.Sprintf("Hired as %s via CSV import.", emps[i].Position))
		r.appendEventLocked(ev)
		events = append(events, ev)
	}
	r.mu.Unlock()

	r.persistEmployees(ctx, emps...)
	for _, ev := range events {
		r.persistEvent(ctx, ev)
	}
	return emps, nil
}

// ParseCSV turns CSV text into validated employees without IDs.
func ParseCSV(data []byte, reference generic.CurrencyCode) ([]generic.Employee, error) {
	rows, lines, err := readTrimmed(data)
	if err != nil {
		return nil, &generic.ImportError{Rows: []generic.RowError{{Row: 1, Reason: err.Error()}}}
	}
	if len(rows) == 0 {
		return nil, &generic.ImportError{MissingColumns: append([]string(nil), RequiredColumns...)}
	}

	if missing := missingColumns(rows[0]); len(missing) > 0 {
		return nil, &generic.ImportError{MissingColumns: missing}
	}
	width := len(rows[0])
	for i, rec := range rows {
		if len(rec) < width {
			rows[i] = append(rec, make([]string, width-len(rec))...)
		} else if len(rec) > width {
			rows[i] = rec[:width]
		}
	}

	var parsed []importRow
	if err := gocsv.UnmarshalCSV(&sliceReader{rows: rows}, &parsed); err != nil {
		return nil, &generic.ImportError{Rows: []generic.RowError{{Row: 1, Reason: err.Error()}}}
	}

	var (
		emps    = make([]generic.Employee, 0, len(parsed))
		rowErrs []generic.RowError
	)
	for i, row := range parsed {
		emp, errs := row.toEmployee(lines[i+1], reference)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		emps = append(emps, emp)
	}
	if len(rowErrs) > 0 {
		return nil, &generic.ImportError{Rows: rowErrs}
	}
	return emps, nil
}

func (row importRow) toEmployee(line int, reference generic.CurrencyCode) (generic.Employee, []generic.RowError) {
	var errs []generic.RowError
	fail := func(col, reason string) {
		errs = append(errs, generic.RowError{Row: line, Column: col, Reason: reason})
	}
	count := func(col, v string) int {
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(col, fmt.Sprintf("%q is not a non-negative whole number", v))
			return 0
		}
		return n
	}

	emp := generic.Employee{
		Name:       row.Name,
		Department: row.Department,
		Position:   row.Position,
	}

	if row.Name == "" {
		fail("name", "required")
	}
	if row.Position == "" {
		fail("position", "required")
	}

	if jd, err := generic.ParseDate(row.JoinDate); err != nil {
		fail("joinDate", fmt.Sprintf("%q is not a YYYY-MM-DD date", row.JoinDate))
	} else {
		emp.JoinDate = jd
	}

	salary, err := decimal.NewFromString(row.BaseSalaryUSD)
	if err != nil || salary.IsNegative() {
		fail("baseSalaryUSD", fmt.Sprintf("%q is not a non-negative amount", row.BaseSalaryUSD))
	}
	emp.BaseSalary = generic.Money{Value: salary, Currency: reference}

	emp.ServicePoints = count("servicePoints", row.ServicePoints)
	emp.Dependents.Children = count("children", row.Children)
	emp.Dependents.Parents = count("parents", row.Parents)

	if row.HasSpouse != "" {
		b, err := strconv.ParseBool(strings.ToLower(row.HasSpouse))
		if err != nil {
			fail("hasSpouse", fmt.Sprintf("%q is not true or false", row.HasSpouse))
		}
		emp.Dependents.HasSpouse = b
	}
	return emp, errs
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// readTrimmed reads every non-blank record with cells trimmed, and the
// 1-based file line each record started on.
func readTrimmed(data []byte) ([][]string, []int, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	var (
		rows  [][]string
		lines []int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

// sliceReader feeds pre-read records to gocsv.
type sliceReader struct {
	rows [][]string
	pos  int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	rec := s.rows[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceReader) ReadAll() ([][]string, error) {
	rest := s.rows[s.pos:]
	s.pos = len(s.rows)
	return rest, nil
}
