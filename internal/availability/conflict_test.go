package availability

import (
	"reflect"
	"testing"
	"time"
)

// 2024-03-04 is a Monday.
var monday = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func window(start, end string) TimeRange {
	return TimeRange{Start: MustTimeOfDay(start), End: MustTimeOfDay(end)}
}

func TestResolveConflicts(t *testing.T) {
	t.Parallel()

	t.Run("fixed day off conflicts regardless of window", func(t *testing.T) {
		t.Parallel()
		records := Records{FixedDaysOff: []FixedDayOff{{ID: "off-1", WorkerID: "w1", DayOfWeek: time.Monday, Active: true}}}

		for _, candidate := range []TimeRange{window("00:00", "00:30"), window("09:00", "17:00"), window("22:00", "23:59")} {
			res := ResolveConflicts(monday, candidate, records)
			if res.Available {
				t.Fatalf("expected worker to be unavailable for %s", candidate)
			}
			if len(res.Conflicts) != 1 || res.Conflicts[0].Type() != ConflictTypeFixedDayOff {
				t.Fatalf("expected a single fixed day off conflict, got %#v", res.Conflicts)
			}
		}
	})

	t.Run("inactive fixed day off is ignored", func(t *testing.T) {
		t.Parallel()
		records := Records{FixedDaysOff: []FixedDayOff{{DayOfWeek: time.Monday, Active: false}}}
		if res := ResolveConflicts(monday, window("09:00", "10:00"), records); !res.Available {
			t.Fatalf("expected inactive day off to be ignored, got %#v", res.Conflicts)
		}
	})

	t.Run("hourly absence boundary is exclusive", func(t *testing.T) {
		t.Parallel()
		records := Records{Absences: []Absence{{
			ID:        "abs-1",
			StartDate: monday,
			EndDate:   monday,
			Span:      Hourly{Window: window("12:00", "14:00")},
			Type:      AbsenceTypePersonal,
		}}}

		if res := ResolveConflicts(monday, window("14:00", "16:00"), records); !res.Available {
			t.Fatalf("expected no conflict for adjacent window, got %#v", res.Conflicts)
		}

		res := ResolveConflicts(monday, window("13:00", "15:00"), records)
		if len(res.Conflicts) != 1 {
			t.Fatalf("expected exactly one conflict, got %d", len(res.Conflicts))
		}
		got, ok := res.Conflicts[0].(AbsenceConflict)
		if !ok {
			t.Fatalf("expected absence conflict, got %T", res.Conflicts[0])
		}
		if got.Window == nil || got.Window.String() != "12:00 - 14:00" {
			t.Fatalf("expected hourly window on conflict, got %v", got.Window)
		}
	})

	t.Run("full day absence covers inclusive range", func(t *testing.T) {
		t.Parallel()
		records := Records{Absences: []Absence{{
			ID:        "abs-2",
			StartDate: monday.AddDate(0, 0, -2),
			EndDate:   monday,
			Span:      FullDay{},
			Type:      AbsenceTypeVacation,
			Reason:    "family trip",
		}}}

		res := ResolveConflicts(monday.Add(15*time.Hour), window("06:00", "07:00"), records)
		if len(res.Conflicts) != 1 {
			t.Fatalf("expected end date to be inclusive, got %#v", res.Conflicts)
		}
		if got := res.Conflicts[0].(AbsenceConflict); got.Window != nil || got.Reason != "family trip" {
			t.Fatalf("unexpected conflict: %#v", got)
		}

		if res := ResolveConflicts(monday.AddDate(0, 0, 1), window("06:00", "07:00"), records); !res.Available {
			t.Fatalf("expected day after range to be free")
		}
	})

	t.Run("gathers conflicts of every type", func(t *testing.T) {
		t.Parallel()
		records := Records{
			Absences: []Absence{{
				ID:        "abs-3",
				StartDate: monday,
				EndDate:   monday,
				Span:      Hourly{Window: window("09:00", "11:00")},
				Type:      AbsenceTypeTraining,
			}},
			MaintenanceBlocks: []MaintenanceBlock{{
				ID:         "mnt-1",
				DaysOfWeek: []time.Weekday{time.Monday, time.Thursday},
				Window:     window("10:00", "12:00"),
				Location:   "Harbor Office",
				Active:     true,
			}},
		}

		res := ResolveConflicts(monday, window("10:30", "11:30"), records)
		if len(res.Conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d", len(res.Conflicts))
		}
		if res.Conflicts[0].Type() != ConflictTypeAbsence || res.Conflicts[1].Type() != ConflictTypeMaintenance {
			t.Fatalf("unexpected conflict order: %#v", res.Conflicts)
		}
		if got := res.Conflicts[1].(MaintenanceConflict); got.Location != "Harbor Office" {
			t.Fatalf("unexpected maintenance conflict: %#v", got)
		}
	})

	t.Run("maintenance on other weekdays is ignored", func(t *testing.T) {
		t.Parallel()
		records := Records{MaintenanceBlocks: []MaintenanceBlock{{
			DaysOfWeek: []time.Weekday{time.Tuesday},
			Window:     window("08:00", "18:00"),
			Active:     true,
		}}}
		if res := ResolveConflicts(monday, window("09:00", "10:00"), records); !res.Available {
			t.Fatalf("expected no conflicts, got %#v", res.Conflicts)
		}
	})

	t.Run("identical inputs yield identical results", func(t *testing.T) {
		t.Parallel()
		records := Records{
			FixedDaysOff: []FixedDayOff{{DayOfWeek: time.Monday, Active: true}},
			Absences:     []Absence{{StartDate: monday, EndDate: monday, Span: FullDay{}, Type: AbsenceTypeSickLeave}},
		}
		first := ResolveConflicts(monday, window("09:00", "10:00"), records)
		second := ResolveConflicts(monday, window("09:00", "10:00"), records)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected repeatable output, got %#v and %#v", first, second)
		}
	})
}

func TestWarningLine(t *testing.T) {
	t.Parallel()

	w := window("12:00", "14:00")
	tests := []struct {
		conflict Conflict
		want     string
	}{
		{conflict: FixedDayOffConflict{DayOfWeek: time.Monday}, want: "Fixed day off (Monday)"},
		{conflict: AbsenceConflict{AbsenceType: AbsenceTypeSickLeave}, want: "Sick leave [all day]"},
		{
			conflict: AbsenceConflict{AbsenceType: AbsenceTypePersonal, Reason: "dentist", Window: &w, Location: "Downtown"},
			want:     "Personal leave: dentist [12:00 - 14:00] @ Downtown",
		},
		{conflict: MaintenanceConflict{Window: w, Location: "Plaza"}, want: "Maintenance cleaning [12:00 - 14:00] @ Plaza"},
	}

	for _, tc := range tests {
		if got := WarningLine(tc.conflict); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
