package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
	"github.com/example/cleanops-scheduler/internal/persistence"
)

func toAvailabilityAbsence(absence persistence.Absence) (availability.Absence, error) {
	out := availability.Absence{
		ID:        absence.ID,
		WorkerID:  absence.WorkerID,
		StartDate: absence.StartDate,
		EndDate:   absence.EndDate,
		Span:      availability.FullDay{},
		Type:      availability.AbsenceType(absence.AbsenceType),
		Location:  derefString(absence.Location),
		Reason:    derefString(absence.Reason),
	}
	if absence.StartTime != nil && absence.EndTime != nil {
		window, err := availability.ParseTimeRange(*absence.StartTime, *absence.EndTime)
		if err != nil {
			return availability.Absence{}, fmt.Errorf("absence %s: %w", absence.ID, err)
		}
		out.Span = availability.Hourly{Window: window}
	}
	return out, nil
}

func toAvailabilityMaintenance(block persistence.MaintenanceBlock) (availability.MaintenanceBlock, error) {
	window, err := availability.ParseTimeRange(block.StartTime, block.EndTime)
	if err != nil {
		return availability.MaintenanceBlock{}, fmt.Errorf("maintenance block %s: %w", block.ID, err)
	}
	return availability.MaintenanceBlock{
		ID:         block.ID,
		WorkerID:   block.WorkerID,
		DaysOfWeek: append([]time.Weekday(nil), block.DaysOfWeek...),
		Window:     window,
		Location:   block.Location,
		Active:     block.Active,
	}, nil
}

func toAvailabilityDayOff(day persistence.FixedDayOff) availability.FixedDayOff {
	return availability.FixedDayOff{
		ID:        day.ID,
		WorkerID:  day.WorkerID,
		DayOfWeek: day.DayOfWeek,
		Active:    day.Active,
	}
}

func toAvailabilityRecords(absences []persistence.Absence, days []persistence.FixedDayOff, blocks []persistence.MaintenanceBlock) (availability.Records, error) {
	records := availability.Records{
		Absences:          make([]availability.Absence, 0, len(absences)),
		FixedDaysOff:      make([]availability.FixedDayOff, 0, len(days)),
		MaintenanceBlocks: make([]availability.MaintenanceBlock, 0, len(blocks)),
	}
	for _, absence := range absences {
		converted, err := toAvailabilityAbsence(absence)
		if err != nil {
			return availability.Records{}, err
		}
		records.Absences = append(records.Absences, converted)
	}
	for _, day := range days {
		records.FixedDaysOff = append(records.FixedDaysOff, toAvailabilityDayOff(day))
	}
	for _, block := range blocks {
		converted, err := toAvailabilityMaintenance(block)
		if err != nil {
			return availability.Records{}, err
		}
		records.MaintenanceBlocks = append(records.MaintenanceBlocks, converted)
	}
	return records, nil
}

// mapRepoError translates persistence sentinels into application errors.
// field names the input the constraint most likely concerns.
func mapRepoError(err error, field string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return newFieldError(field, "violates a storage constraint")
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return newFieldError(field, "references a missing record")
	}
	return err
}

func parseWeekdays(field string, values []int, vErr *ValidationError) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(values))
	days := make([]time.Weekday, 0, len(values))
	for _, value := range values {
		if value < int(time.Sunday) || value > int(time.Saturday) {
			vErr.add(field, "weekdays must be between 0 (Sunday) and 6 (Saturday)")
			return nil
		}
		day := time.Weekday(value)
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// dateOnly keeps the calendar date of t as written, at midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
