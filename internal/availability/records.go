package availability

import "time"

// FixedDayOff is a standing weekly non-availability.
type FixedDayOff struct {
	ID        string
	WorkerID  string
	DayOfWeek time.Weekday
	Active    bool
}

// AbsenceType tags the cause of an absence.
type AbsenceType string

const (
	AbsenceTypeVacation  AbsenceType = "vacation"
	AbsenceTypeSickLeave AbsenceType = "sick_leave"
	AbsenceTypePersonal  AbsenceType = "personal"
	AbsenceTypeTraining  AbsenceType = "training"
	AbsenceTypeOther     AbsenceType = "other"
)

// Label returns the human readable name of the absence type.
func (t AbsenceType) Label() string {
	switch t {
	case AbsenceTypeVacation:
		return "Vacation"
	case AbsenceTypeSickLeave:
		return "Sick leave"
	case AbsenceTypePersonal:
		return "Personal leave"
	case AbsenceTypeTraining:
		return "Training"
	case AbsenceTypeOther:
		return "Other"
	default:
		if t == "" {
			return "Absence"
		}
		return string(t)
	}
}

// ColorHint returns the calendar color used to paint absences of this type.
func (t AbsenceType) ColorHint() string {
	switch t {
	case AbsenceTypeVacation:
		return "#3b82f6"
	case AbsenceTypeSickLeave:
		return "#ef4444"
	case AbsenceTypePersonal:
		return "#f59e0b"
	case AbsenceTypeTraining:
		return "#10b981"
	default:
		return "#6b7280"
	}
}

// Valid reports whether t is one of the known absence types.
func (t AbsenceType) Valid() bool {
	switch t {
	case AbsenceTypeVacation, AbsenceTypeSickLeave, AbsenceTypePersonal, AbsenceTypeTraining, AbsenceTypeOther:
		return true
	}
	return false
}

// AbsenceSpan distinguishes full-day from hourly absences. It is implemented
// only by FullDay and Hourly.
type AbsenceSpan interface {
	absenceSpan()
}

// FullDay marks an absence covering every hour of each date in its range.
type FullDay struct{}

// Hourly marks an absence covering only Window on each date in its range.
type Hourly struct {
	Window TimeRange
}

func (FullDay) absenceSpan() {}
func (Hourly) absenceSpan()  {}

// Absence is a dated non-availability. StartDate and EndDate are inclusive
// and only their calendar date is significant.
type Absence struct {
	ID        string
	WorkerID  string
	StartDate time.Time
	EndDate   time.Time
	Span      AbsenceSpan
	Type      AbsenceType
	Location  string
	Reason    string
}

// Covers reports whether date falls inside the absence's inclusive range.
func (a Absence) Covers(date time.Time) bool {
	day := civilDate(date)
	return !day.Before(civilDate(a.StartDate)) && !day.After(civilDate(a.EndDate))
}

// MaintenanceBlock is a recurring weekly commitment that blocks Window on
// each listed weekday.
type MaintenanceBlock struct {
	ID         string
	WorkerID   string
	DaysOfWeek []time.Weekday
	Window     TimeRange
	Location   string
	Active     bool
}

// OccursOn reports whether the block is active on the given weekday.
func (m MaintenanceBlock) OccursOn(day time.Weekday) bool {
	if !m.Active {
		return false
	}
	for _, d := range m.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// Records bundles the per-worker record sets the resolver and projector read.
type Records struct {
	Absences          []Absence
	FixedDaysOff      []FixedDayOff
	MaintenanceBlocks []MaintenanceBlock
}

// civilDate strips the clock and zone so dates compare by calendar day in the
// zone they were expressed in.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hasFixedDayOff(days []FixedDayOff, weekday time.Weekday) bool {
	for _, d := range days {
		if d.Active && d.DayOfWeek == weekday {
			return true
		}
	}
	return false
}

func absencesOn(absences []Absence, date time.Time) []Absence {
	var out []Absence
	for _, a := range absences {
		if a.Covers(date) {
			out = append(out, a)
		}
	}
	return out
}

func maintenanceOn(blocks []MaintenanceBlock, weekday time.Weekday) []MaintenanceBlock {
	var out []MaintenanceBlock
	for _, b := range blocks {
		if b.OccursOn(weekday) {
			out = append(out, b)
		}
	}
	return out
}
