package availability

import "time"

// ConflictType describes why a worker cannot be booked.
type ConflictType string

const (
	// ConflictTypeFixedDayOff indicates the date is the worker's weekly day off.
	ConflictTypeFixedDayOff ConflictType = "fixed_day_off"
	// ConflictTypeAbsence indicates a recorded absence covers the window.
	ConflictTypeAbsence ConflictType = "absence"
	// ConflictTypeMaintenance indicates a maintenance commitment overlaps the window.
	ConflictTypeMaintenance ConflictType = "maintenance"
)

// Conflict is implemented by FixedDayOffConflict, AbsenceConflict and
// MaintenanceConflict only.
type Conflict interface {
	Type() ConflictType
	conflict()
}

// FixedDayOffConflict reports a standing weekly day off.
type FixedDayOffConflict struct {
	DayOfWeek time.Weekday
}

// AbsenceConflict reports an absence. Window is nil for full-day absences.
type AbsenceConflict struct {
	AbsenceID   string
	AbsenceType AbsenceType
	Reason      string
	Window      *TimeRange
	Location    string
}

// MaintenanceConflict reports an overlapping maintenance commitment.
type MaintenanceConflict struct {
	BlockID  string
	Location string
	Window   TimeRange
}

func (FixedDayOffConflict) Type() ConflictType { return ConflictTypeFixedDayOff }
func (AbsenceConflict) Type() ConflictType     { return ConflictTypeAbsence }
func (MaintenanceConflict) Type() ConflictType { return ConflictTypeMaintenance }

func (FixedDayOffConflict) conflict() {}
func (AbsenceConflict) conflict()     {}
func (MaintenanceConflict) conflict() {}

// Resolution is the outcome of a booking check.
type Resolution struct {
	Available bool
	Conflicts []Conflict
}

// ResolveConflicts gathers every reason the worker whose records are given
// cannot take the candidate window on date. Records are assumed to be already
// filtered to a single worker. Conflicts are ordered fixed day off, then
// absences, then maintenance blocks, each in input order.
func ResolveConflicts(date time.Time, candidate TimeRange, records Records) Resolution {
	weekday := date.Weekday()
	conflicts := make([]Conflict, 0)

	if hasFixedDayOff(records.FixedDaysOff, weekday) {
		conflicts = append(conflicts, FixedDayOffConflict{DayOfWeek: weekday})
	}

	for _, absence := range absencesOn(records.Absences, date) {
		switch span := absence.Span.(type) {
		case Hourly:
			if !span.Window.Overlaps(candidate) {
				continue
			}
			window := span.Window
			conflicts = append(conflicts, absenceConflict(absence, &window))
		default:
			// A nil span is a full-day absence.
			conflicts = append(conflicts, absenceConflict(absence, nil))
		}
	}

	for _, block := range maintenanceOn(records.MaintenanceBlocks, weekday) {
		if block.Window.Overlaps(candidate) {
			conflicts = append(conflicts, MaintenanceConflict{
				BlockID:  block.ID,
				Location: block.Location,
				Window:   block.Window,
			})
		}
	}

	return Resolution{Available: len(conflicts) == 0, Conflicts: conflicts}
}

func absenceConflict(absence Absence, window *TimeRange) AbsenceConflict {
	return AbsenceConflict{
		AbsenceID:   absence.ID,
		AbsenceType: absence.Type,
		Reason:      absence.Reason,
		Window:      window,
		Location:    absence.Location,
	}
}

// WarningLine renders a conflict as a single line for a confirmation prompt.
func WarningLine(c Conflict) string {
	switch v := c.(type) {
	case FixedDayOffConflict:
		return "Fixed day off (" + v.DayOfWeek.String() + ")"
	case AbsenceConflict:
		line := v.AbsenceType.Label()
		if v.Reason != "" {
			line += ": " + v.Reason
		}
		if v.Window != nil {
			line += " [" + v.Window.String() + "]"
		} else {
			line += " [all day]"
		}
		if v.Location != "" {
			line += " @ " + v.Location
		}
		return line
	case MaintenanceConflict:
		line := "Maintenance cleaning [" + v.Window.String() + "]"
		if v.Location != "" {
			line += " @ " + v.Location
		}
		return line
	default:
		return string(c.Type())
	}
}
