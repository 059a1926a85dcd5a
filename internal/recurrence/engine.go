package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily repeats every Interval days.
	FrequencyDaily
	// FrequencyWeekly repeats on the selected weekdays, or every Interval weeks
	// when no weekdays are selected.
	FrequencyWeekly
	// FrequencyMonthly repeats every Interval months.
	FrequencyMonthly
)

// String returns the storage name of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	default:
		return ""
	}
}

// ParseFrequency maps a storage name to a Frequency.
func ParseFrequency(value string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return FrequencyUnspecified, fmt.Errorf("%w: %q", ErrInvalidFrequency, value)
	}
}

// WeekdayScanLimit bounds the day-by-day search for the next selected weekday.
// Weekly patterns are assumed never to leave more than two weeks between
// consecutive matching weekdays; the limit does not scale with Interval.
const WeekdayScanLimit = 14

// Rule describes how a recurring task repeats.
type Rule struct {
	Frequency  Frequency
	Interval   int
	Weekdays   []time.Weekday
	DayOfMonth int // 1-31, zero when unset
}

// Definition is the scheduling state of a recurring task definition.
type Definition struct {
	ID            string
	Rule          Rule
	StartsOn      time.Time
	EndsOn        *time.Time
	NextExecution *time.Time
	LastExecution *time.Time
}

// Anchor returns the last known fire time: LastExecution when present,
// otherwise NextExecution.
func (d Definition) Anchor() (time.Time, error) {
	if d.LastExecution != nil {
		return *d.LastExecution, nil
	}
	if d.NextExecution != nil {
		return *d.NextExecution, nil
	}
	return time.Time{}, ErrNoAnchor
}

// Engine computes execution instants for recurring task definitions.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that performs calendar arithmetic in loc.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the zone used for calendar arithmetic.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidInterval indicates the interval is below one.
	ErrInvalidInterval = errors.New("recurrence: interval must be at least 1")
	// ErrNoAnchor indicates the definition has neither a last nor a next execution.
	ErrNoAnchor = errors.New("recurrence: definition has no execution anchor")
	// ErrWeekdayScanExhausted indicates no selected weekday was found within WeekdayScanLimit days.
	ErrWeekdayScanExhausted = errors.New("recurrence: no matching weekday within scan limit")
)

// NextExecution computes the execution following the definition's anchor.
//
// The engine enforces the following semantics:
//   - daily rules advance the anchor by Interval days.
//   - weekly rules with weekdays pick the first selected weekday after the
//     anchor, scanning at most WeekdayScanLimit days; Interval is not applied.
//   - weekly rules without weekdays advance by Interval weeks.
//   - monthly rules advance by Interval months, targeting DayOfMonth (or the
//     anchor's day) clamped to the last day of the resulting month.
//
// The anchor's time of day is preserved in the engine's location.
func (e *Engine) NextExecution(def Definition) (time.Time, error) {
	anchor, err := def.Anchor()
	if err != nil {
		return time.Time{}, err
	}
	return e.Next(def.Rule, anchor)
}

// Next computes the execution following anchor under rule.
func (e *Engine) Next(rule Rule, anchor time.Time) (time.Time, error) {
	if rule.Interval < 1 {
		return time.Time{}, ErrInvalidInterval
	}
	anchor = anchor.In(e.Location())

	switch rule.Frequency {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, rule.Interval), nil
	case FrequencyWeekly:
		if len(rule.Weekdays) == 0 {
			return anchor.AddDate(0, 0, 7*rule.Interval), nil
		}
		return nextSelectedWeekday(anchor, rule.Weekdays)
	case FrequencyMonthly:
		day := rule.DayOfMonth
		if day <= 0 {
			day = anchor.Day()
		}
		return addMonthsClamped(anchor, rule.Interval, day), nil
	case FrequencyUnspecified:
		fallthrough
	default:
		return time.Time{}, ErrInvalidFrequency
	}
}

func nextSelectedWeekday(anchor time.Time, weekdays []time.Weekday) (time.Time, error) {
	weekdaySet := make(map[time.Weekday]struct{}, len(weekdays))
	for _, day := range weekdays {
		weekdaySet[day] = struct{}{}
	}

	candidate := anchor
	for step := 0; step < WeekdayScanLimit; step++ {
		candidate = candidate.AddDate(0, 0, 1)
		if _, ok := weekdaySet[candidate.Weekday()]; ok {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: weekdays %v after %s", ErrWeekdayScanExhausted, weekdays, anchor.Format(time.DateOnly))
}

// addMonthsClamped moves t forward by months, landing on day or on the last
// day of the target month when day does not exist there.
func addMonthsClamped(t time.Time, months, day int) time.Time {
	year, month, _ := t.Date()
	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)

	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
