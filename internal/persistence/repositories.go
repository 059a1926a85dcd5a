package persistence

import (
	"context"
	"time"
)

// AbsenceRepository stores worker absences.
type AbsenceRepository interface {
	CreateAbsence(ctx context.Context, absence Absence) error
	GetAbsence(ctx context.Context, id string) (Absence, error)
	DeleteAbsence(ctx context.Context, id string) error
	// ListAbsences returns the worker's absences intersecting the inclusive
	// [from, to] date range, ordered by start date.
	ListAbsences(ctx context.Context, workerID string, from, to time.Time) ([]Absence, error)
}

// WorkerScheduleRepository stores standing weekly commitments of workers.
type WorkerScheduleRepository interface {
	UpsertFixedDayOff(ctx context.Context, dayOff FixedDayOff) error
	ListFixedDaysOff(ctx context.Context, workerID string) ([]FixedDayOff, error)
	UpsertMaintenanceBlock(ctx context.Context, block MaintenanceBlock) error
	ListMaintenanceBlocks(ctx context.Context, workerID string) ([]MaintenanceBlock, error)
}

// RecurringDefinitionRepository stores recurring task definitions.
type RecurringDefinitionRepository interface {
	CreateDefinition(ctx context.Context, def RecurringTaskDefinition) error
	GetDefinition(ctx context.Context, id string) (RecurringTaskDefinition, error)
	// ListDueDefinitions returns active definitions whose next execution is at
	// or before now, ordered by next execution.
	ListDueDefinitions(ctx context.Context, now time.Time) ([]RecurringTaskDefinition, error)
	UpdateDefinitionSchedule(ctx context.Context, id string, update DefinitionScheduleUpdate) error
}

// TaskRepository stores concrete tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	ListTasksForDefinition(ctx context.Context, definitionID string) ([]Task, error)
}

// LeaseRepository stores named, expiring run leases.
type LeaseRepository interface {
	// AcquireLease claims name for holder until now+ttl. It succeeds when the
	// lease is free, expired, or already held by holder.
	AcquireLease(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Store is a complete storage backend.
type Store interface {
	AbsenceRepository
	WorkerScheduleRepository
	RecurringDefinitionRepository
	TaskRepository
	LeaseRepository
	Close() error
}
