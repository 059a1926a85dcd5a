package http

import (
	"net/http"
)

type RouterConfig struct {
	Availability *AvailabilityHandler
	Calendar     *CalendarHandler
	Recurring    *RecurringTaskHandler
	// TriggerMiddleware wraps only the manual batch trigger route.
	TriggerMiddleware []func(http.Handler) http.Handler
	Middleware        []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Availability != nil {
		mux.HandleFunc("GET /workers/{id}/conflicts", cfg.Availability.Conflicts)
		mux.HandleFunc("GET /workers/{id}/availability", cfg.Availability.Day)
		mux.HandleFunc("GET /workers/{id}/availability/week", cfg.Availability.Week)
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("GET /workers/{id}/absences", cfg.Calendar.ListAbsences)
		mux.HandleFunc("POST /workers/{id}/absences", cfg.Calendar.RecordAbsence)
		mux.HandleFunc("DELETE /absences/{id}", cfg.Calendar.CancelAbsence)
		mux.HandleFunc("PUT /workers/{id}/fixed-days-off", cfg.Calendar.SetFixedDayOff)
		mux.HandleFunc("PUT /workers/{id}/maintenance-blocks", cfg.Calendar.SetMaintenanceBlock)
	}

	if cfg.Recurring != nil {
		mux.HandleFunc("POST /recurring-tasks", cfg.Recurring.Create)
		if cfg.Recurring.TriggerEnabled() {
			mux.Handle("POST /recurring-tasks/run", chain(http.HandlerFunc(cfg.Recurring.Run), cfg.TriggerMiddleware))
		}
	}

	return chain(mux, cfg.Middleware)
}

// chain applies middleware so the first entry is outermost.
func chain(handler http.Handler, middleware []func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}
