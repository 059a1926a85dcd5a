package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation overrides the zone used for recurrence arithmetic.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// WithLogger overrides the logger handed to services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles the application services wired over one harness and a
// shared projection cache.
type Services struct {
	Availability *application.AvailabilityService
	Calendar     *application.WorkerCalendarService
	Recurring    *application.RecurringTaskService
	Cache        *application.ProjectionCache
}

// NewServices wires every application service over the harness repositories.
func (f *ServiceFactory) NewServices(h *Harness) Services {
	cache := application.NewProjectionCache(time.Minute, 0, f.Clock.NowFunc())
	return Services{
		Availability: application.NewAvailabilityServiceWithLogger(h.Absences, h.Schedules, cache, f.Logger),
		Calendar: application.NewWorkerCalendarServiceWithLogger(
			h.Absences,
			h.Schedules,
			cache,
			f.IDGenerator.NextFunc(),
			f.Clock.NowFunc(),
			f.Logger,
		),
		Recurring: f.NewRecurringTaskService(h),
		Cache:     cache,
	}
}

// NewRecurringTaskService builds a recurring task service over the harness.
func (f *ServiceFactory) NewRecurringTaskService(h *Harness) *application.RecurringTaskService {
	return application.NewRecurringTaskServiceWithLogger(
		h.Definitions,
		h.Tasks,
		recurrence.NewEngine(f.Location),
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}
