package availability

import (
	"reflect"
	"testing"
	"time"
)

func TestProjectDay(t *testing.T) {
	t.Parallel()

	hourly := Absence{
		ID:        "abs-hourly",
		StartDate: monday,
		EndDate:   monday,
		Span:      Hourly{Window: window("08:00", "09:00")},
		Type:      AbsenceTypePersonal,
		Reason:    "school run",
	}
	fullDay := Absence{
		ID:        "abs-full",
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 4),
		Span:      FullDay{},
		Type:      AbsenceTypeVacation,
	}
	maintenance := MaintenanceBlock{
		ID:         "mnt-1",
		DaysOfWeek: []time.Weekday{time.Monday},
		Window:     window("15:00", "17:00"),
		Location:   "North Tower",
		Active:     true,
	}

	t.Run("fixed day off wins over absences", func(t *testing.T) {
		t.Parallel()
		day := ProjectDay(monday, Records{
			FixedDaysOff: []FixedDayOff{{DayOfWeek: time.Monday, Active: true}},
			Absences:     []Absence{fullDay},
		})
		if !day.FullDayBlocked || day.ReasonType != FixedDayOffReason {
			t.Fatalf("expected fixed day off block, got %#v", day)
		}
		if len(day.HourlyBlocks) != 0 {
			t.Fatalf("expected no hourly blocks on a full-day block")
		}
	})

	t.Run("full day absence uses type label", func(t *testing.T) {
		t.Parallel()
		day := ProjectDay(monday.AddDate(0, 0, 2), Records{Absences: []Absence{fullDay}})
		if !day.FullDayBlocked || day.ReasonType != "vacation" || day.ReasonLabel != "Vacation" {
			t.Fatalf("unexpected projection: %#v", day)
		}
	})

	t.Run("full day absence prefers location label", func(t *testing.T) {
		t.Parallel()
		withLocation := fullDay
		withLocation.Location = "Training camp Lisbon"
		day := ProjectDay(monday, Records{Absences: []Absence{hourly, withLocation}})
		if !day.FullDayBlocked || day.ReasonLabel != "Training camp Lisbon" {
			t.Fatalf("unexpected projection: %#v", day)
		}
	})

	t.Run("hourly absences precede maintenance blocks", func(t *testing.T) {
		t.Parallel()
		day := ProjectDay(monday, Records{
			Absences:          []Absence{hourly},
			MaintenanceBlocks: []MaintenanceBlock{maintenance},
		})
		if day.FullDayBlocked {
			t.Fatalf("expected partial day")
		}
		if len(day.HourlyBlocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(day.HourlyBlocks))
		}
		first, second := day.HourlyBlocks[0], day.HourlyBlocks[1]
		if first.Source != BlockSourceAbsence || first.Reason != "school run" || first.ColorHint != AbsenceTypePersonal.ColorHint() {
			t.Fatalf("unexpected absence block: %#v", first)
		}
		if second.Source != BlockSourceMaintenance || second.ColorHint != MaintenanceColorHint || second.Window.String() != "15:00 - 17:00" {
			t.Fatalf("unexpected maintenance block: %#v", second)
		}
	})

	t.Run("free day has no blocks", func(t *testing.T) {
		t.Parallel()
		day := ProjectDay(monday.AddDate(0, 0, 1), Records{Absences: []Absence{hourly}, MaintenanceBlocks: []MaintenanceBlock{maintenance}})
		if day.FullDayBlocked || len(day.HourlyBlocks) != 0 {
			t.Fatalf("expected free day, got %#v", day)
		}
	})

	t.Run("identical inputs yield identical results", func(t *testing.T) {
		t.Parallel()
		records := Records{Absences: []Absence{hourly}, MaintenanceBlocks: []MaintenanceBlock{maintenance}}
		if !reflect.DeepEqual(ProjectDay(monday, records), ProjectDay(monday, records)) {
			t.Fatalf("expected repeatable projection")
		}
	})
}

func TestPureFunctionsAreRepeatable(t *testing.T) {
	t.Parallel()

	records := Records{
		Absences: []Absence{{
			ID:        "abs-1",
			StartDate: monday,
			EndDate:   monday,
			Span:      Hourly{Window: window("12:00", "14:00")},
			Type:      AbsenceTypeSickLeave,
		}},
		MaintenanceBlocks: []MaintenanceBlock{{
			ID:         "mnt-1",
			DaysOfWeek: []time.Weekday{time.Monday},
			Window:     window("13:00", "15:00"),
			Active:     true,
		}},
	}
	candidate := window("13:00", "15:00")

	if first, second := ResolveConflicts(monday, candidate, records), ResolveConflicts(monday, candidate, records); !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical resolutions, got %+v and %+v", first, second)
	}
	if first, second := ProjectDay(monday, records), ProjectDay(monday, records); !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical projections, got %+v and %+v", first, second)
	}
}
