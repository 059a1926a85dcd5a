package availability

import "time"

// BlockSource identifies which record type produced an hourly block.
type BlockSource string

const (
	BlockSourceAbsence     BlockSource = "absence"
	BlockSourceMaintenance BlockSource = "maintenance"
)

// MaintenanceColorHint is the calendar color for maintenance blocks.
const MaintenanceColorHint = "#8b5cf6"

// FixedDayOffReason is the reason type reported for a weekly day off.
const FixedDayOffReason = "fixed_day_off"

// Block is one blocked band of a partially available day.
type Block struct {
	Window    TimeRange
	Reason    string
	Source    BlockSource
	ColorHint string
}

// DayAvailability summarises a worker's day for calendar rendering. When
// FullDayBlocked is set, ReasonType and ReasonLabel explain why and
// HourlyBlocks is empty.
type DayAvailability struct {
	Date           time.Time
	FullDayBlocked bool
	ReasonType     string
	ReasonLabel    string
	HourlyBlocks   []Block
}

// ProjectDay reduces the worker's records to a single explanation for date.
// A weekly day off wins over a full-day absence; otherwise every hourly
// absence and maintenance window of the day is listed, absences first.
func ProjectDay(date time.Time, records Records) DayAvailability {
	day := DayAvailability{Date: civilDate(date)}
	weekday := date.Weekday()

	if hasFixedDayOff(records.FixedDaysOff, weekday) {
		day.FullDayBlocked = true
		day.ReasonType = FixedDayOffReason
		day.ReasonLabel = "Fixed day off"
		return day
	}

	covering := absencesOn(records.Absences, date)
	for _, absence := range covering {
		if _, hourly := absence.Span.(Hourly); hourly {
			continue
		}
		day.FullDayBlocked = true
		day.ReasonType = string(absence.Type)
		day.ReasonLabel = absence.Type.Label()
		if absence.Location != "" {
			day.ReasonLabel = absence.Location
		}
		return day
	}

	blocks := make([]Block, 0)
	for _, absence := range covering {
		span, ok := absence.Span.(Hourly)
		if !ok {
			continue
		}
		reason := absence.Type.Label()
		if absence.Reason != "" {
			reason = absence.Reason
		}
		blocks = append(blocks, Block{
			Window:    span.Window,
			Reason:    reason,
			Source:    BlockSourceAbsence,
			ColorHint: absence.Type.ColorHint(),
		})
	}
	for _, block := range maintenanceOn(records.MaintenanceBlocks, weekday) {
		reason := "Maintenance cleaning"
		if block.Location != "" {
			reason += ": " + block.Location
		}
		blocks = append(blocks, Block{
			Window:    block.Window,
			Reason:    reason,
			Source:    BlockSourceMaintenance,
			ColorHint: MaintenanceColorHint,
		})
	}
	day.HourlyBlocks = blocks
	return day
}
