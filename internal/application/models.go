package application

import (
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
	"github.com/example/cleanops-scheduler/internal/persistence"
)

// AssignmentCheck describes a candidate worker booking.
type AssignmentCheck struct {
	WorkerID string
	Date     time.Time
	Start    string
	End      string
}

// AssignmentResult is the outcome of an assignment check. Warnings holds one
// rendered line per conflict for the confirmation prompt. A caller that
// proceeds despite conflicts is not remembered.
type AssignmentResult struct {
	WorkerID  string
	Date      time.Time
	Available bool
	Conflicts []availability.Conflict
	Warnings  []string
}

// RecordAbsenceInput captures caller provided absence fields. StartTime and
// EndTime must be given together for hourly absences and left nil for full-day ones.
type RecordAbsenceInput struct {
	WorkerID  string
	StartDate time.Time
	EndDate   time.Time
	StartTime *string
	EndTime   *string
	Type      string
	Location  *string
	Reason    *string
}

// FixedDayOffInput sets a worker's standing weekly day off.
type FixedDayOffInput struct {
	WorkerID  string
	DayOfWeek int
	Active    bool
}

// MaintenanceBlockInput creates or replaces a maintenance commitment. An
// empty ID creates a new block.
type MaintenanceBlockInput struct {
	ID         string
	WorkerID   string
	DaysOfWeek []int
	StartTime  string
	EndTime    string
	Location   string
	Active     bool
}

// DefinitionInput captures caller provided recurring task definition fields.
type DefinitionInput struct {
	Name          string
	Template      persistence.TaskTemplate
	Frequency     string
	Interval      int
	DaysOfWeek    []int
	DayOfMonth    *int
	StartDate     time.Time
	EndDate       *time.Time
	ExecutionTime string
	PreviewLimit  int
}

// CreatedDefinition pairs a stored definition with its upcoming executions.
type CreatedDefinition struct {
	Definition persistence.RecurringTaskDefinition
	Preview    []time.Time
}

// ProcessFailure records a definition that could not be fully processed.
type ProcessFailure struct {
	DefinitionID string
	Err          error
}

// ProcessResult reports the outcome of one batch pass.
type ProcessResult struct {
	Materialized []persistence.Task
	Advanced     []string
	Deactivated  []string
	Failed       []ProcessFailure
}

// HasFailures reports whether any definition failed during the pass.
func (r ProcessResult) HasFailures() bool {
	return len(r.Failed) > 0
}
