package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Now().Weekday() != time.Monday {
		t.Fatalf("expected the reference week to start on a monday, got %s", clock.Now().Weekday())
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2024, time.March, 9, 7, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	nowFn := clock.NowFunc()

	if got := clock.Advance(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", got)
	}

	clock.Set(start)
	got := clock.AdvanceDays(1)
	if got.Day() != 10 || got.Hour() != 7 {
		t.Fatalf("expected next day at 07:00, got %v", got)
	}
	if !nowFn().Equal(got) {
		t.Fatalf("expected NowFunc to follow the clock, got %v", nowFn())
	}
}
