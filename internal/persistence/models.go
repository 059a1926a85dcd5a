package persistence

import "time"

// FixedDayOff represents a worker's standing weekly day off.
type FixedDayOff struct {
	ID        string
	WorkerID  string
	DayOfWeek time.Weekday
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Absence represents a dated absence. StartTime and EndTime are both nil for
// full-day absences and both set (HH:MM) for hourly ones.
type Absence struct {
	ID          string
	WorkerID    string
	StartDate   time.Time
	EndDate     time.Time
	StartTime   *string
	EndTime     *string
	AbsenceType string
	Location    *string
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaintenanceBlock represents a recurring weekly maintenance commitment.
type MaintenanceBlock struct {
	ID         string
	WorkerID   string
	DaysOfWeek []time.Weekday
	StartTime  string
	EndTime    string
	Location   string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TaskTemplate holds the fields copied onto every generated task.
type TaskTemplate struct {
	PropertyID       string
	ClientID         string
	TaskType         string
	Description      string
	EstimatedMinutes int
	CostCents        int64
	AssignedWorkerID *string
}

// RecurringTaskDefinition represents a recurring task configuration.
type RecurringTaskDefinition struct {
	ID            string
	Name          string
	Template      TaskTemplate
	Frequency     string
	Interval      int
	DaysOfWeek    []time.Weekday
	DayOfMonth    *int
	StartDate     time.Time
	EndDate       *time.Time
	Active        bool
	NextExecution *time.Time
	LastExecution *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefinitionScheduleUpdate carries the fields the batch processor rewrites.
type DefinitionScheduleUpdate struct {
	LastExecution time.Time
	NextExecution *time.Time
	Active        bool
}

// TaskStatusPending is the initial status of generated tasks.
const TaskStatusPending = "pending"

// Task represents a concrete task row.
type Task struct {
	ID           string
	DefinitionID *string
	Name         string
	Template     TaskTemplate
	ScheduledFor time.Time
	Status       string
	CreatedAt    time.Time
}
