package generic

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// PERIOD - The key of one payroll cycle
// =============================================================================

// Period identifies one payroll cycle by calendar year and month.
// Payroll is ALWAYS computed for a period, and the historical ledger holds at
// most one finalized run per period.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing the given date.
func PeriodOf(tp TimePoint) Period {
	return Period{Year: tp.Year(), Month: tp.Month()}
}

// CurrentPeriod returns the period containing today.
func CurrentPeriod() Period {
	return PeriodOf(Today())
}

// Valid reports whether the period names a real calendar month.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// End returns the last day of the period.
func (p Period) End() TimePoint { return EndOfMonth(p.Year, p.Month) }

// Days returns the number of days in the period, or 0 for an invalid period.
func (p Period) Days() int {
	if !p.Valid() {
		return 0
	}
	return p.End().Day()
}

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod parses a YYYY-MM period key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// SortPeriods orders periods chronologically in place.
func SortPeriods(periods []Period) {
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
}
