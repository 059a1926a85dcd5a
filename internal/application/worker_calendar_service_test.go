package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
	"github.com/example/cleanops-scheduler/internal/persistence/memory"
)

func newCalendarService(store *memory.Storage) *WorkerCalendarService {
	return NewWorkerCalendarService(store, store, NewProjectionCache(time.Minute, 0, nil), sequentialIDs("rec"), fixedNow(monday))
}

func TestWorkerCalendarService_RecordAbsence(t *testing.T) {
	t.Parallel()

	store := memory.Open()
	svc := newCalendarService(store)
	ctx := context.Background()

	absence, err := svc.RecordAbsence(ctx, RecordAbsenceInput{
		WorkerID:  " worker-1 ",
		StartDate: monday,
		EndDate:   monday,
		StartTime: strPtr("09:00:00"),
		EndTime:   strPtr("11:30"),
		Type:      "personal",
		Reason:    strPtr("  Dentist "),
		Location:  strPtr("   "),
	})
	if err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}
	if absence.ID != "rec-1" || absence.WorkerID != "worker-1" {
		t.Fatalf("unexpected identity: %+v", absence)
	}
	if absence.StartTime == nil || *absence.StartTime != "09:00" || *absence.EndTime != "11:30" {
		t.Fatalf("expected normalized hours, got %v-%v", absence.StartTime, absence.EndTime)
	}
	if absence.Reason == nil || *absence.Reason != "Dentist" {
		t.Fatalf("expected trimmed reason, got %v", absence.Reason)
	}
	if absence.Location != nil {
		t.Fatalf("expected blank location to be dropped, got %q", *absence.Location)
	}

	stored, err := store.GetAbsence(ctx, absence.ID)
	if err != nil {
		t.Fatalf("GetAbsence returned error: %v", err)
	}
	if !stored.CreatedAt.Equal(monday) {
		t.Fatalf("expected created at from clock, got %s", stored.CreatedAt)
	}
}

func TestWorkerCalendarService_RecordAbsenceValidation(t *testing.T) {
	t.Parallel()

	svc := newCalendarService(memory.Open())
	valid := RecordAbsenceInput{WorkerID: "worker-1", StartDate: monday, EndDate: monday, Type: "vacation"}

	cases := []struct {
		name   string
		mutate func(*RecordAbsenceInput)
		field  string
	}{
		{name: "missing worker", mutate: func(in *RecordAbsenceInput) { in.WorkerID = "" }, field: "worker_id"},
		{name: "missing start date", mutate: func(in *RecordAbsenceInput) { in.StartDate = time.Time{} }, field: "start_date"},
		{name: "inverted dates", mutate: func(in *RecordAbsenceInput) { in.EndDate = monday.AddDate(0, 0, -1) }, field: "end_date"},
		{name: "unknown type", mutate: func(in *RecordAbsenceInput) { in.Type = "holiday" }, field: "absence_type"},
		{name: "half hourly window", mutate: func(in *RecordAbsenceInput) { in.StartTime = strPtr("09:00") }, field: "start_time"},
		{name: "bad start time", mutate: func(in *RecordAbsenceInput) {
			in.StartTime, in.EndTime = strPtr("9:00"), strPtr("10:00")
		}, field: "start_time"},
		{name: "inverted hours", mutate: func(in *RecordAbsenceInput) {
			in.StartTime, in.EndTime = strPtr("11:00"), strPtr("10:00")
		}, field: "end_time"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := valid
			tc.mutate(&input)
			_, err := svc.RecordAbsence(context.Background(), input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestWorkerCalendarService_CancelAndListAbsences(t *testing.T) {
	t.Parallel()

	store := memory.Open()
	svc := newCalendarService(store)
	ctx := context.Background()

	first, err := svc.RecordAbsence(ctx, RecordAbsenceInput{WorkerID: "worker-1", StartDate: monday, EndDate: monday.AddDate(0, 0, 1), Type: "vacation"})
	if err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}
	if _, err := svc.RecordAbsence(ctx, RecordAbsenceInput{WorkerID: "worker-1", StartDate: monday.AddDate(0, 0, 10), EndDate: monday.AddDate(0, 0, 10), Type: "other"}); err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}

	listed, err := svc.ListAbsences(ctx, "worker-1", monday, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != first.ID {
		t.Fatalf("expected only the first absence in range, got %+v", listed)
	}

	if _, err := svc.ListAbsences(ctx, "worker-1", monday, monday.AddDate(0, 0, -1)); err == nil {
		t.Fatalf("expected inverted range to be rejected")
	}

	if err := svc.CancelAbsence(ctx, first.ID); err != nil {
		t.Fatalf("CancelAbsence returned error: %v", err)
	}
	if err := svc.CancelAbsence(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second cancel, got %v", err)
	}
}

func TestWorkerCalendarService_SetFixedDayOff(t *testing.T) {
	t.Parallel()

	store := memory.Open()
	svc := newCalendarService(store)
	ctx := context.Background()

	created, err := svc.SetFixedDayOff(ctx, FixedDayOffInput{WorkerID: "worker-1", DayOfWeek: int(time.Saturday), Active: true})
	if err != nil {
		t.Fatalf("SetFixedDayOff returned error: %v", err)
	}

	updated, err := svc.SetFixedDayOff(ctx, FixedDayOffInput{WorkerID: "worker-1", DayOfWeek: int(time.Saturday), Active: false})
	if err != nil {
		t.Fatalf("SetFixedDayOff returned error: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected weekday record to be reused, got %s and %s", created.ID, updated.ID)
	}

	days, err := store.ListFixedDaysOff(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ListFixedDaysOff returned error: %v", err)
	}
	if len(days) != 1 || days[0].Active {
		t.Fatalf("expected one inactive day off, got %+v", days)
	}

	_, err = svc.SetFixedDayOff(ctx, FixedDayOffInput{WorkerID: "worker-1", DayOfWeek: 7})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["day_of_week"] == "" {
		t.Fatalf("expected day_of_week validation error, got %v", err)
	}
}

func TestWorkerCalendarService_SetMaintenanceBlock(t *testing.T) {
	t.Parallel()

	store := memory.Open()
	svc := newCalendarService(store)
	ctx := context.Background()

	block, err := svc.SetMaintenanceBlock(ctx, MaintenanceBlockInput{
		WorkerID: "worker-1", DaysOfWeek: []int{1, 3, 3}, StartTime: "13:00", EndTime: "15:00", Location: " HQ ", Active: true,
	})
	if err != nil {
		t.Fatalf("SetMaintenanceBlock returned error: %v", err)
	}
	if len(block.DaysOfWeek) != 2 || block.Location != "HQ" {
		t.Fatalf("expected deduplicated weekdays and trimmed location, got %+v", block)
	}

	replaced, err := svc.SetMaintenanceBlock(ctx, MaintenanceBlockInput{
		ID: block.ID, WorkerID: "worker-1", DaysOfWeek: []int{5}, StartTime: "08:00", EndTime: "09:00", Active: true,
	})
	if err != nil {
		t.Fatalf("SetMaintenanceBlock replace returned error: %v", err)
	}
	blocks, err := store.ListMaintenanceBlocks(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ListMaintenanceBlocks returned error: %v", err)
	}
	if len(blocks) != 1 || blocks[0].ID != replaced.ID || blocks[0].DaysOfWeek[0] != time.Friday {
		t.Fatalf("expected block to be replaced in place, got %+v", blocks)
	}

	if _, err := svc.SetMaintenanceBlock(ctx, MaintenanceBlockInput{
		ID: "missing", WorkerID: "worker-1", DaysOfWeek: []int{1}, StartTime: "08:00", EndTime: "09:00", Active: true,
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown block, got %v", err)
	}

	cases := []struct {
		name  string
		input MaintenanceBlockInput
		field string
	}{
		{name: "no weekdays while active", input: MaintenanceBlockInput{WorkerID: "w", StartTime: "08:00", EndTime: "09:00", Active: true}, field: "days_of_week"},
		{name: "weekday out of range", input: MaintenanceBlockInput{WorkerID: "w", DaysOfWeek: []int{9}, StartTime: "08:00", EndTime: "09:00"}, field: "days_of_week"},
		{name: "inverted window", input: MaintenanceBlockInput{WorkerID: "w", DaysOfWeek: []int{1}, StartTime: "10:00", EndTime: "09:00"}, field: "end_time"},
		{name: "bad time", input: MaintenanceBlockInput{WorkerID: "w", DaysOfWeek: []int{1}, StartTime: "noon", EndTime: "13:00"}, field: "start_time"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SetMaintenanceBlock(ctx, tc.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, vErr.FieldErrors)
			}
		})
	}

	inactive, err := svc.SetMaintenanceBlock(ctx, MaintenanceBlockInput{WorkerID: "worker-2", StartTime: "08:00", EndTime: "09:00"})
	if err != nil {
		t.Fatalf("expected inactive block without weekdays to be accepted, got %v", err)
	}
	if inactive.Active {
		t.Fatalf("expected inactive block")
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	if err := mapRepoError(persistence.ErrNotFound, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mapRepoError(persistence.ErrDuplicate, "x"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var vErr *ValidationError
	if err := mapRepoError(persistence.ErrForeignKeyViolation, "definition_id"); !errors.As(err, &vErr) || vErr.FieldErrors["definition_id"] == "" {
		t.Fatalf("expected field validation error, got %v", err)
	}
	other := errors.New("io")
	if err := mapRepoError(other, "x"); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}
