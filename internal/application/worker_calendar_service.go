package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
	"github.com/example/cleanops-scheduler/internal/persistence"
)

// WorkerCalendarService maintains the absence, day off, and maintenance
// records availability is computed from.
type WorkerCalendarService struct {
	absences    persistence.AbsenceRepository
	schedules   persistence.WorkerScheduleRepository
	cache       *ProjectionCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewWorkerCalendarService constructs a worker calendar service with the provided dependencies.
func NewWorkerCalendarService(absences persistence.AbsenceRepository, schedules persistence.WorkerScheduleRepository, cache *ProjectionCache, idGenerator func() string, now func() time.Time) *WorkerCalendarService {
	return NewWorkerCalendarServiceWithLogger(absences, schedules, cache, idGenerator, now, nil)
}

// NewWorkerCalendarServiceWithLogger constructs a worker calendar service with a specified logger.
func NewWorkerCalendarServiceWithLogger(absences persistence.AbsenceRepository, schedules persistence.WorkerScheduleRepository, cache *ProjectionCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkerCalendarService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &WorkerCalendarService{
		absences:    absences,
		schedules:   schedules,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *WorkerCalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkerCalendarService", operation, attrs...)
}

// RecordAbsence validates and stores a full-day or hourly absence.
func (s *WorkerCalendarService) RecordAbsence(ctx context.Context, input RecordAbsenceInput) (absence persistence.Absence, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerCalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RecordAbsence",
		"worker_id", input.WorkerID,
		"absence_type", input.Type,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record absence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("absence_id", absence.ID).InfoContext(ctx, "absence recorded")
	}()

	var startTime, endTime *string
	startTime, endTime, err = validateAbsenceInput(input)
	if err != nil {
		return
	}
	if s.absences == nil {
		err = fmt.Errorf("absence repository not configured")
		return
	}

	now := s.now()
	absence = persistence.Absence{
		ID:          s.idGenerator(),
		WorkerID:    strings.TrimSpace(input.WorkerID),
		StartDate:   dateOnly(input.StartDate),
		EndDate:     dateOnly(input.EndDate),
		StartTime:   startTime,
		EndTime:     endTime,
		AbsenceType: input.Type,
		Location:    normalizeOptionalString(input.Location),
		Reason:      normalizeOptionalString(input.Reason),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.absences.CreateAbsence(ctx, absence); err != nil {
		err = mapRepoError(err, "absence")
		absence = persistence.Absence{}
		return
	}
	s.cache.InvalidateWorker(absence.WorkerID)
	return
}

// CancelAbsence removes an absence.
func (s *WorkerCalendarService) CancelAbsence(ctx context.Context, absenceID string) (err error) {
	if s == nil {
		return fmt.Errorf("WorkerCalendarService is nil")
	}
	if s.absences == nil {
		return fmt.Errorf("absence repository not configured")
	}

	logger := s.loggerWith(ctx, "CancelAbsence", "absence_id", absenceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel absence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "absence cancelled")
	}()

	var existing persistence.Absence
	existing, err = s.absences.GetAbsence(ctx, absenceID)
	if err != nil {
		err = mapRepoError(err, "absence_id")
		return
	}
	if err = s.absences.DeleteAbsence(ctx, absenceID); err != nil {
		err = mapRepoError(err, "absence_id")
		return
	}
	s.cache.InvalidateWorker(existing.WorkerID)
	return
}

// ListAbsences returns the worker's absences intersecting the inclusive date range.
func (s *WorkerCalendarService) ListAbsences(ctx context.Context, workerID string, from, to time.Time) (absences []persistence.Absence, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerCalendarService is nil")
		return
	}
	if s.absences == nil {
		err = fmt.Errorf("absence repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListAbsences", "worker_id", workerID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list absences", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = validateWorkerID(workerID); err != nil {
		return
	}
	if to.Before(from) {
		err = newFieldError("to", "to must not be before from")
		return
	}

	absences, err = s.absences.ListAbsences(ctx, workerID, dateOnly(from), dateOnly(to))
	if err != nil {
		err = mapRepoError(err, "worker_id")
		return
	}
	return
}

// SetFixedDayOff creates or updates the worker's standing day off for a weekday.
func (s *WorkerCalendarService) SetFixedDayOff(ctx context.Context, input FixedDayOffInput) (dayOff persistence.FixedDayOff, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerCalendarService is nil")
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("worker schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetFixedDayOff",
		"worker_id", input.WorkerID,
		"day_of_week", input.DayOfWeek,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set fixed day off", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("day_off_id", dayOff.ID, "active", dayOff.Active).InfoContext(ctx, "fixed day off set")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(input.WorkerID) == "" {
		vErr.add("worker_id", "worker id is required")
	}
	if input.DayOfWeek < int(time.Sunday) || input.DayOfWeek > int(time.Saturday) {
		vErr.add("day_of_week", "day of week must be between 0 (Sunday) and 6 (Saturday)")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	weekday := time.Weekday(input.DayOfWeek)
	var existing []persistence.FixedDayOff
	existing, err = s.schedules.ListFixedDaysOff(ctx, input.WorkerID)
	if err != nil {
		err = mapRepoError(err, "worker_id")
		return
	}

	now := s.now()
	dayOff = persistence.FixedDayOff{
		ID:        s.idGenerator(),
		WorkerID:  input.WorkerID,
		DayOfWeek: weekday,
		Active:    input.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, current := range existing {
		if current.DayOfWeek == weekday {
			dayOff.ID = current.ID
			dayOff.CreatedAt = current.CreatedAt
			break
		}
	}

	if err = s.schedules.UpsertFixedDayOff(ctx, dayOff); err != nil {
		err = mapRepoError(err, "day_of_week")
		dayOff = persistence.FixedDayOff{}
		return
	}
	s.cache.InvalidateWorker(dayOff.WorkerID)
	return
}

// SetMaintenanceBlock creates a maintenance block, or replaces the one named by input.ID.
func (s *WorkerCalendarService) SetMaintenanceBlock(ctx context.Context, input MaintenanceBlockInput) (block persistence.MaintenanceBlock, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerCalendarService is nil")
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("worker schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetMaintenanceBlock",
		"worker_id", input.WorkerID,
		"block_id", input.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set maintenance block", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("block_id", block.ID, "active", block.Active).InfoContext(ctx, "maintenance block set")
	}()

	var (
		days   []time.Weekday
		window availability.TimeRange
	)
	days, window, err = validateMaintenanceInput(input)
	if err != nil {
		return
	}

	now := s.now()
	block = persistence.MaintenanceBlock{
		ID:         input.ID,
		WorkerID:   input.WorkerID,
		DaysOfWeek: days,
		StartTime:  window.Start.String(),
		EndTime:    window.End.String(),
		Location:   strings.TrimSpace(input.Location),
		Active:     input.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if input.ID == "" {
		block.ID = s.idGenerator()
	} else {
		var existing []persistence.MaintenanceBlock
		existing, err = s.schedules.ListMaintenanceBlocks(ctx, input.WorkerID)
		if err != nil {
			err = mapRepoError(err, "worker_id")
			block = persistence.MaintenanceBlock{}
			return
		}
		found := false
		for _, current := range existing {
			if current.ID == input.ID {
				block.CreatedAt = current.CreatedAt
				found = true
				break
			}
		}
		if !found {
			err = ErrNotFound
			block = persistence.MaintenanceBlock{}
			return
		}
	}

	if err = s.schedules.UpsertMaintenanceBlock(ctx, block); err != nil {
		err = mapRepoError(err, "maintenance_block")
		block = persistence.MaintenanceBlock{}
		return
	}
	s.cache.InvalidateWorker(block.WorkerID)
	return
}

func validateAbsenceInput(input RecordAbsenceInput) (startTime, endTime *string, err error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.WorkerID) == "" {
		vErr.add("worker_id", "worker id is required")
	}
	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && dateOnly(input.EndDate).Before(dateOnly(input.StartDate)) {
		vErr.add("end_date", "end date must not be before start date")
	}
	if !availability.AbsenceType(input.Type).Valid() {
		vErr.add("absence_type", "absence type must be one of vacation, sick_leave, personal, training, other")
	}

	switch {
	case input.StartTime == nil && input.EndTime == nil:
	case input.StartTime == nil || input.EndTime == nil:
		vErr.add("start_time", "start and end time must be given together")
	default:
		start, startErr := availability.ParseTimeOfDay(*input.StartTime)
		if startErr != nil {
			vErr.add("start_time", "start time must be HH:MM")
		}
		end, endErr := availability.ParseTimeOfDay(*input.EndTime)
		if endErr != nil {
			vErr.add("end_time", "end time must be HH:MM")
		}
		if startErr == nil && endErr == nil {
			if start >= end {
				vErr.add("end_time", "end time must be after start time")
			} else {
				s, e := start.String(), end.String()
				startTime, endTime = &s, &e
			}
		}
	}

	if vErr.HasErrors() {
		return nil, nil, vErr
	}
	return startTime, endTime, nil
}

func validateMaintenanceInput(input MaintenanceBlockInput) ([]time.Weekday, availability.TimeRange, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.WorkerID) == "" {
		vErr.add("worker_id", "worker id is required")
	}

	days := parseWeekdays("days_of_week", input.DaysOfWeek, vErr)
	if input.Active && len(input.DaysOfWeek) == 0 {
		vErr.add("days_of_week", "an active block needs at least one weekday")
	}

	start, startErr := availability.ParseTimeOfDay(input.StartTime)
	if startErr != nil {
		vErr.add("start_time", "start time must be HH:MM")
	}
	end, endErr := availability.ParseTimeOfDay(input.EndTime)
	if endErr != nil {
		vErr.add("end_time", "end time must be HH:MM")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("end_time", "end time must be after start time")
	}

	if vErr.HasErrors() {
		return nil, availability.TimeRange{}, vErr
	}
	return days, availability.TimeRange{Start: start, End: end}, nil
}
