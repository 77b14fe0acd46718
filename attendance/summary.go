package attendance

import (
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SUMMARY
// =============================================================================

type Summary struct {
	Counts        map[Code]int
	TotalDays     int
	TotalPaidDays int
	UnpaidDays    int
}

// DeriveSummary counts every status. An unknown code fails the whole record;
// the returned error names the code and its 1-based day.
func DeriveSummary(statuses []Code, table *StatusTable) (Summary, error) {
	s := Summary{Counts: make(map[Code]int, len(table.statuses)), TotalDays: len(statuses)}
	for i, code := range statuses {
		st, ok := table.Lookup(code)
		if !ok {
			return Summary{}, fmt.Errorf("%w: %q on day %d", generic.ErrUnknownStatus, code, i+1)
		}
		s.Counts[code]++
		if st.Paid {
			s.TotalPaidDays++
		} else {
			s.UnpaidDays++
		}
	}
	return s, nil
}

func (s Summary) Clone() Summary {
	out := s
	out.Counts = make(map[Code]int, len(s.Counts))
	for k, v := range s.Counts {
		out.Counts[k] = v
	}
	return out
}

// =============================================================================
// RESIZE
// =============================================================================

// Resize returns exactly days statuses. Existing days keep their index and
// value; added days are filled with pad. Shrinking drops trailing days.
func Resize(statuses []Code, days int, pad Code) []Code {
	if days < 0 {
		days = 0
	}
	out := make([]Code, days)
	n := copy(out, statuses)
	for i := n; i < days; i++ {
		out[i] = pad
	}
	return out
}

// Fill returns a record of days statuses, all set to pad.
func Fill(days int, pad Code) []Code {
	return Resize(nil, days, pad)
}
