/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. httplog:    Structured request logging (slog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a browser frontend
  5. Heartbeat:  GET /health for liveness probes

ROUTE GROUPS:
  /api/employees/*      Roster and employee history
  /api/attendance/*     Attendance sheet for the current period
  /api/payroll/*        Period inputs, calculation, payslips, finalize
  /api/runs/*           Finalized runs, trend, CSV reports
  /api/currencies/*     Rate table and conversion
  /api/settings         Organization name
  /api/seed             Demo roster

SECURITY NOTE:
  No authentication middleware. The server is meant for a single
  organization on a trusted network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRequestLogger returns the slog logger used for access logs, writing
// ECS-formatted JSON to w.
func NewRequestLogger(w io.Writer) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
	)
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Post("/import", h.ImportEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/events", h.ListEvents)
			r.Post("/{id}/events", h.CreateEvent)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.GetAttendanceSheet)
			r.Get("/{id}", h.GetAttendance)
			r.Put("/{id}/days/{day}", h.SetAttendanceDay)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.GetPayroll)
			r.Get("/config", h.GetPayrollConfig)
			r.Put("/config", h.UpdatePayrollConfig)
			r.Put("/deductions/{id}", h.SetDeduction)
			r.Put("/overtime/{id}", h.SetOvertime)
			r.Post("/calculate", h.CalculatePayroll)
			r.Get("/{id}/payslip", h.GetPayslip)
			r.Post("/finalize", h.FinalizePayroll)
		})

		// Ledger routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/trend", h.GetTrend)
			r.Get("/{year}/{month}", h.GetRun)
			r.Get("/{year}/{month}/report.csv", h.GetRunReport)
		})

		// Currency routes
		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", h.ListCurrencies)
			r.Get("/convert", h.Convert)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Post("/seed", h.SeedDemo)
	})

	return r
}
