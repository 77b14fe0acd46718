/*
seed.go - Demo roster for testing and demonstrations

PURPOSE:

	Replaces the roster with ten hotel employees across every department,
	with a spread of salaries, service points and dependents, so the
	payroll and tax screens have something realistic to show.

USAGE VIA API:

	POST /api/seed

NOTE:

	Seeding replaces the current roster and clears per-employee inputs.
	Finalized runs and employee history are untouched.

SEE ALSO:
  - handlers.go: Employee handlers
*/
package api

import (
	"net/http"
	"time"

	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
)

// DemoRoster returns the demo employees with USD salaries.
func DemoRoster() []generic.Employee {
	emp := func(id, name, dept, position string, joined generic.TimePoint, usd int64, points int, spouse bool, children, parents int) generic.Employee {
		return generic.Employee{
			ID:            generic.EmployeeID(id),
			Name:          name,
			Department:    dept,
			Position:      position,
			JoinDate:      joined,
			BaseSalary:    generic.NewMoneyFromInt(usd, currency.USD),
			ServicePoints: points,
			Dependents:    generic.DependentProfile{HasSpouse: spouse, Children: children, Parents: parents},
		}
	}
	date := generic.NewTimePoint

	return []generic.Employee{
		emp("EMP001", "Aung Aung", "Front Office", "Receptionist", date(2022, time.January, 15), 400, 5, true, 1, 0),
		emp("EMP002", "Ma Mya", "Housekeeping", "Room Attendant", date(2021, time.November, 20), 300, 4, false, 0, 2),
		emp("EMP003", "Kyaw Kyaw", "Food & Beverage", "Waiter", date(2023, time.March, 1), 350, 4, true, 2, 2),
		emp("EMP004", "Hla Hla", "Management", "Hotel Manager", date(2020, time.May, 10), 1500, 10, true, 3, 2),
		emp("EMP005", "Zaw Zaw", "Maintenance", "Technician", date(2022, time.August, 1), 500, 6, false, 0, 0),
		emp("EMP006", "Su Su", "Front Office", "Concierge", date(2023, time.January, 20), 420, 5, true, 0, 0),
		emp("EMP007", "Tin Tin", "Housekeeping", "Supervisor", date(2019, time.July, 15), 550, 8, true, 1, 1),
		emp("EMP008", "Ba Oo", "Security", "Security Guard", date(2023, time.June, 1), 320, 4, false, 0, 2),
		emp("EMP009", "Aye Aye", "Human Resources", "HR Coordinator", date(2022, time.September, 1), 600, 7, true, 2, 0),
		emp("EMP010", "Myo Myo", "Food & Beverage", "Chef", date(2021, time.April, 12), 800, 8, true, 1, 2),
	}
}

// SeedDemo replaces the roster with DemoRoster, converted to the reference
// currency when that is not USD.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	reference := h.Payroll.Engine().Config().ReferenceCurrency
	roster := DemoRoster()
	for i, e := range roster {
		salary, err := h.rates().ConvertMoney(e.BaseSalary, reference)
		if err != nil {
			h.writeDomainError(w, "Failed to convert demo salaries", err)
			return
		}
		roster[i].BaseSalary = salary
	}

	if err := h.Payroll.ReplaceRoster(r.Context(), roster); err != nil {
		h.writeDomainError(w, "Failed to load demo roster", err)
		return
	}
	h.log.Info().Int("employees", len(roster)).Msg("demo roster loaded")
	writeJSON(w, http.StatusCreated, SeedResponse{Employees: len(roster)})
}
