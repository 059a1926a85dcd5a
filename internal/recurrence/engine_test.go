package recurrence

import (
	"errors"
	"testing"
	"time"
)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func anchored(rule Rule, last time.Time) Definition {
	return Definition{ID: "def-1", Rule: rule, LastExecution: &last}
}

func TestEngine_NextExecution(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	t.Run("daily advances by interval days", func(t *testing.T) {
		t.Parallel()
		anchor := at(2024, time.March, 4, 9)
		got, err := engine.NextExecution(anchored(Rule{Frequency: FrequencyDaily, Interval: 3}, anchor))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2024, time.March, 7, 9); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("weekly picks the next selected weekday", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Thursday}}

		monday := at(2024, time.March, 4, 8)
		got, err := engine.NextExecution(anchored(rule, monday))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := monday.AddDate(0, 0, 3); !got.Equal(want) || got.Weekday() != time.Thursday {
			t.Fatalf("expected Thursday %s, got %s", want, got)
		}

		thursday := at(2024, time.March, 7, 8)
		got, err = engine.NextExecution(anchored(rule, thursday))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := thursday.AddDate(0, 0, 4); !got.Equal(want) || got.Weekday() != time.Monday {
			t.Fatalf("expected Monday %s, got %s", want, got)
		}
	})

	t.Run("weekly without weekdays advances by whole weeks", func(t *testing.T) {
		t.Parallel()
		anchor := at(2024, time.March, 4, 8)
		got, err := engine.NextExecution(anchored(Rule{Frequency: FrequencyWeekly, Interval: 2}, anchor))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := anchor.AddDate(0, 0, 14); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("weekly with out of range weekdays terminates with error", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Weekday(9)}}
		_, err := engine.NextExecution(anchored(rule, at(2024, time.March, 4, 8)))
		if !errors.Is(err, ErrWeekdayScanExhausted) {
			t.Fatalf("expected ErrWeekdayScanExhausted, got %v", err)
		}
	})

	t.Run("monthly clamps day of month", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: 31}

		got, err := engine.NextExecution(anchored(rule, at(2024, time.January, 31, 10)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2024, time.February, 29, 10); !got.Equal(want) {
			t.Fatalf("expected leap-year %s, got %s", want, got)
		}

		got, err = engine.NextExecution(anchored(rule, at(2023, time.January, 31, 10)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2023, time.February, 28, 10); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}

		got, err = engine.NextExecution(anchored(rule, at(2024, time.February, 29, 10)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2024, time.March, 31, 10); !got.Equal(want) {
			t.Fatalf("expected target day to be restored, got %s", got)
		}
	})

	t.Run("monthly interval crosses year boundary", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Frequency: FrequencyMonthly, Interval: 3, DayOfMonth: 15}
		got, err := engine.NextExecution(anchored(rule, at(2024, time.November, 15, 7)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2025, time.February, 15, 7); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("monthly without target keeps anchor day", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Frequency: FrequencyMonthly, Interval: 1}
		got, err := engine.NextExecution(anchored(rule, at(2024, time.April, 12, 7)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2024, time.May, 12, 7); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("falls back to next execution as anchor", func(t *testing.T) {
		t.Parallel()
		next := at(2024, time.March, 4, 9)
		def := Definition{Rule: Rule{Frequency: FrequencyDaily, Interval: 1}, NextExecution: &next}
		got, err := engine.NextExecution(def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := at(2024, time.March, 5, 9); !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("rejects malformed definitions", func(t *testing.T) {
		t.Parallel()
		anchor := at(2024, time.March, 4, 9)
		if _, err := engine.NextExecution(Definition{Rule: Rule{Frequency: FrequencyDaily, Interval: 1}}); !errors.Is(err, ErrNoAnchor) {
			t.Fatalf("expected ErrNoAnchor, got %v", err)
		}
		if _, err := engine.NextExecution(anchored(Rule{Frequency: FrequencyDaily}, anchor)); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
		if _, err := engine.NextExecution(anchored(Rule{Interval: 1}, anchor)); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("expected ErrInvalidFrequency, got %v", err)
		}
	})

	t.Run("normalizes to the engine location", func(t *testing.T) {
		t.Parallel()
		tokyo := time.FixedZone("JST", 9*60*60)
		local := NewEngine(tokyo)
		// 2024-03-31 20:00 UTC is already April 1st in Tokyo.
		anchor := time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)
		got, err := local.NextExecution(anchored(Rule{Frequency: FrequencyMonthly, Interval: 1}, anchor))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Location() != tokyo || got.Month() != time.May || got.Day() != 1 {
			t.Fatalf("expected May 1st in JST, got %s", got)
		}
	})
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	for _, f := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly} {
		parsed, err := ParseFrequency(f.String())
		if err != nil || parsed != f {
			t.Fatalf("expected %s to parse, got %v (%v)", f, parsed, err)
		}
	}
	if _, err := ParseFrequency("yearly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}
