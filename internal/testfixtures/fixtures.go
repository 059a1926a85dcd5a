package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

var (
	absenceCounter     uint64
	dayOffCounter      uint64
	maintenanceCounter uint64
	definitionCounter  uint64
)

// referenceTime is a Monday so weekday based fixtures line up predictably.
var referenceTime = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime at midnight UTC.
func ReferenceDate() time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ----------------------------- Absence fixtures -----------------------------

// AbsenceOption configures the generated absence.
type AbsenceOption func(*persistence.Absence)

// NewAbsence returns a full-day vacation on ReferenceDate with optional overrides.
func NewAbsence(opts ...AbsenceOption) persistence.Absence {
	idx := atomic.AddUint64(&absenceCounter, 1)
	absence := persistence.Absence{
		ID:          fmt.Sprintf("absence-%03d", idx),
		WorkerID:    "worker-001",
		StartDate:   ReferenceDate(),
		EndDate:     ReferenceDate(),
		AbsenceType: "vacation",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&absence)
	}
	return absence
}

// WithAbsenceID overrides the generated absence ID.
func WithAbsenceID(id string) AbsenceOption {
	return func(a *persistence.Absence) { a.ID = id }
}

// WithAbsenceWorker overrides the absent worker.
func WithAbsenceWorker(workerID string) AbsenceOption {
	return func(a *persistence.Absence) { a.WorkerID = workerID }
}

// WithAbsenceDates sets the inclusive date range.
func WithAbsenceDates(start, end time.Time) AbsenceOption {
	return func(a *persistence.Absence) {
		a.StartDate = start
		a.EndDate = end
	}
}

// WithAbsenceHours turns the absence into an hourly one.
func WithAbsenceHours(start, end string) AbsenceOption {
	return func(a *persistence.Absence) {
		a.StartTime = &start
		a.EndTime = &end
	}
}

// WithAbsenceType overrides the absence type.
func WithAbsenceType(absenceType string) AbsenceOption {
	return func(a *persistence.Absence) { a.AbsenceType = absenceType }
}

// WithAbsenceReason sets the free text reason.
func WithAbsenceReason(reason string) AbsenceOption {
	return func(a *persistence.Absence) { a.Reason = &reason }
}

// WithAbsenceLocation sets the location.
func WithAbsenceLocation(location string) AbsenceOption {
	return func(a *persistence.Absence) { a.Location = &location }
}

// ------------------------- Worker schedule fixtures -------------------------

// NewFixedDayOff returns an active fixed day off for the worker.
func NewFixedDayOff(workerID string, day time.Weekday) persistence.FixedDayOff {
	idx := atomic.AddUint64(&dayOffCounter, 1)
	return persistence.FixedDayOff{
		ID:        fmt.Sprintf("dayoff-%03d", idx),
		WorkerID:  workerID,
		DayOfWeek: day,
		Active:    true,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// MaintenanceOption configures the generated maintenance block.
type MaintenanceOption func(*persistence.MaintenanceBlock)

// NewMaintenanceBlock returns an active Monday 13:00-15:00 block with optional overrides.
func NewMaintenanceBlock(opts ...MaintenanceOption) persistence.MaintenanceBlock {
	idx := atomic.AddUint64(&maintenanceCounter, 1)
	block := persistence.MaintenanceBlock{
		ID:         fmt.Sprintf("maintenance-%03d", idx),
		WorkerID:   "worker-001",
		DaysOfWeek: []time.Weekday{time.Monday},
		StartTime:  "13:00",
		EndTime:    "15:00",
		Location:   "Head office",
		Active:     true,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&block)
	}
	return block
}

// WithMaintenanceWorker overrides the worker.
func WithMaintenanceWorker(workerID string) MaintenanceOption {
	return func(b *persistence.MaintenanceBlock) { b.WorkerID = workerID }
}

// WithMaintenanceDays overrides the weekdays.
func WithMaintenanceDays(days ...time.Weekday) MaintenanceOption {
	return func(b *persistence.MaintenanceBlock) { b.DaysOfWeek = days }
}

// WithMaintenanceWindow overrides the HH:MM window.
func WithMaintenanceWindow(start, end string) MaintenanceOption {
	return func(b *persistence.MaintenanceBlock) {
		b.StartTime = start
		b.EndTime = end
	}
}

// ------------------------ Recurring definition fixtures ------------------------

// DefinitionOption configures the generated recurring definition.
type DefinitionOption func(*persistence.RecurringTaskDefinition)

// NewDefinition returns an active daily definition due at ReferenceTime with
// optional overrides.
func NewDefinition(opts ...DefinitionOption) persistence.RecurringTaskDefinition {
	idx := atomic.AddUint64(&definitionCounter, 1)
	next := referenceTime
	def := persistence.RecurringTaskDefinition{
		ID:   fmt.Sprintf("definition-%03d", idx),
		Name: fmt.Sprintf("Recurring clean %03d", idx),
		Template: persistence.TaskTemplate{
			PropertyID:       "property-001",
			ClientID:         "client-001",
			TaskType:         "standard_clean",
			Description:      "Common areas",
			EstimatedMinutes: 60,
			CostCents:        6000,
		},
		Frequency:     "daily",
		Interval:      1,
		StartDate:     ReferenceDate(),
		Active:        true,
		NextExecution: &next,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&def)
	}
	return def
}

// WithDefinitionID overrides the generated definition ID.
func WithDefinitionID(id string) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.ID = id }
}

// WithDefinitionRule overrides frequency and interval.
func WithDefinitionRule(frequency string, interval int) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) {
		d.Frequency = frequency
		d.Interval = interval
	}
}

// WithDefinitionWeekdays sets the weekly weekday selection.
func WithDefinitionWeekdays(days ...time.Weekday) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.DaysOfWeek = days }
}

// WithDefinitionDayOfMonth sets the monthly target day.
func WithDefinitionDayOfMonth(day int) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.DayOfMonth = &day }
}

// WithDefinitionNextExecution overrides the next execution instant.
func WithDefinitionNextExecution(next time.Time) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.NextExecution = &next }
}

// WithDefinitionEndDate sets the inclusive end date.
func WithDefinitionEndDate(end time.Time) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.EndDate = &end }
}

// WithDefinitionAssignee sets the worker copied onto generated tasks.
func WithDefinitionAssignee(workerID string) DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.Template.AssignedWorkerID = &workerID }
}

// Inactive marks the definition inactive.
func Inactive() DefinitionOption {
	return func(d *persistence.RecurringTaskDefinition) { d.Active = false }
}
