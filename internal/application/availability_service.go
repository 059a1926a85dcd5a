package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
	"github.com/example/cleanops-scheduler/internal/persistence"
)

// DaysPerWeek is the number of projections returned by ProjectWeek.
const DaysPerWeek = 7

// AvailabilityService answers booking checks and calendar projections from
// stored worker records.
type AvailabilityService struct {
	absences  persistence.AbsenceRepository
	schedules persistence.WorkerScheduleRepository
	cache     *ProjectionCache
	logger    *slog.Logger
}

// NewAvailabilityService constructs an availability service. cache may be nil.
func NewAvailabilityService(absences persistence.AbsenceRepository, schedules persistence.WorkerScheduleRepository, cache *ProjectionCache) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(absences, schedules, cache, nil)
}

// NewAvailabilityServiceWithLogger constructs an availability service with a specified logger.
func NewAvailabilityServiceWithLogger(absences persistence.AbsenceRepository, schedules persistence.WorkerScheduleRepository, cache *ProjectionCache, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{absences: absences, schedules: schedules, cache: cache, logger: defaultLogger(logger)}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// CheckAssignment gathers every reason the worker cannot take the candidate
// window. Conflicts are returned as data; the caller decides whether to ask
// for confirmation.
func (s *AvailabilityService) CheckAssignment(ctx context.Context, check AssignmentCheck) (result AssignmentResult, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckAssignment",
		"worker_id", check.WorkerID,
		"date", check.Date.Format(time.DateOnly),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check assignment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("available", result.Available, "conflict_count", len(result.Conflicts)).InfoContext(ctx, "assignment checked")
	}()

	var candidate availability.TimeRange
	candidate, err = validateAssignmentCheck(check)
	if err != nil {
		return
	}

	date := dateOnly(check.Date)
	var records availability.Records
	records, err = s.loadRecords(ctx, check.WorkerID, date, date)
	if err != nil {
		return
	}

	resolution := availability.ResolveConflicts(date, candidate, records)
	warnings := make([]string, 0, len(resolution.Conflicts))
	for _, conflict := range resolution.Conflicts {
		warnings = append(warnings, availability.WarningLine(conflict))
	}

	result = AssignmentResult{
		WorkerID:  check.WorkerID,
		Date:      date,
		Available: resolution.Available,
		Conflicts: resolution.Conflicts,
		Warnings:  warnings,
	}
	return
}

// ProjectDay summarises the worker's availability on date for calendar rendering.
func (s *AvailabilityService) ProjectDay(ctx context.Context, workerID string, date time.Time) (day availability.DayAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ProjectDay",
		"worker_id", workerID,
		"date", date.Format(time.DateOnly),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to project day", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = validateWorkerID(workerID); err != nil {
		return
	}

	date = dateOnly(date)
	if cached, ok := s.cache.Get(workerID, date); ok {
		day = cached
		return
	}

	generation := s.cache.Generation(workerID)
	var records availability.Records
	records, err = s.loadRecords(ctx, workerID, date, date)
	if err != nil {
		return
	}

	day = availability.ProjectDay(date, records)
	s.cache.StoreIfCurrent(workerID, generation, day)
	logger.DebugContext(ctx, "day projected", "full_day_blocked", day.FullDayBlocked, "block_count", len(day.HourlyBlocks))
	return
}

// ProjectWeek returns seven consecutive day projections starting at weekStart,
// reading the worker's absences once for the whole range.
func (s *AvailabilityService) ProjectWeek(ctx context.Context, workerID string, weekStart time.Time) (days []availability.DayAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ProjectWeek",
		"worker_id", workerID,
		"week_start", weekStart.Format(time.DateOnly),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to project week", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = validateWorkerID(workerID); err != nil {
		return
	}

	start := dateOnly(weekStart)
	end := start.AddDate(0, 0, DaysPerWeek-1)

	days = make([]availability.DayAvailability, 0, DaysPerWeek)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		cached, ok := s.cache.Get(workerID, date)
		if !ok {
			break
		}
		days = append(days, cached)
	}
	if len(days) == DaysPerWeek {
		return
	}

	generation := s.cache.Generation(workerID)
	var records availability.Records
	records, err = s.loadRecords(ctx, workerID, start, end)
	if err != nil {
		days = nil
		return
	}

	days = days[:0]
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		day := availability.ProjectDay(date, records)
		s.cache.StoreIfCurrent(workerID, generation, day)
		days = append(days, day)
	}
	logger.DebugContext(ctx, "week projected")
	return
}

func (s *AvailabilityService) loadRecords(ctx context.Context, workerID string, from, to time.Time) (availability.Records, error) {
	if s.absences == nil || s.schedules == nil {
		return availability.Records{}, errors.New("worker record repositories not configured")
	}

	absences, err := s.absences.ListAbsences(ctx, workerID, from, to)
	if err != nil {
		return availability.Records{}, mapRepoError(err, "worker_id")
	}
	days, err := s.schedules.ListFixedDaysOff(ctx, workerID)
	if err != nil {
		return availability.Records{}, mapRepoError(err, "worker_id")
	}
	blocks, err := s.schedules.ListMaintenanceBlocks(ctx, workerID)
	if err != nil {
		return availability.Records{}, mapRepoError(err, "worker_id")
	}
	return toAvailabilityRecords(absences, days, blocks)
}

func validateWorkerID(workerID string) error {
	if strings.TrimSpace(workerID) == "" {
		return newFieldError("worker_id", "worker id is required")
	}
	return nil
}

func validateAssignmentCheck(check AssignmentCheck) (availability.TimeRange, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(check.WorkerID) == "" {
		vErr.add("worker_id", "worker id is required")
	}
	if check.Date.IsZero() {
		vErr.add("date", "date is required")
	}

	start, startErr := availability.ParseTimeOfDay(check.Start)
	if startErr != nil {
		vErr.add("start", "start must be HH:MM")
	}
	end, endErr := availability.ParseTimeOfDay(check.End)
	if endErr != nil {
		vErr.add("end", "end must be HH:MM")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("end", "end must be after start")
	}

	if vErr.HasErrors() {
		return availability.TimeRange{}, vErr
	}
	return availability.TimeRange{Start: start, End: end}, nil
}
