package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTime indicates a time of day is not in HH:MM (or HH:MM:SS) form.
var ErrInvalidTime = errors.New("availability: invalid time of day")

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" with hour 0-23 and minute 0-59. A trailing
// seconds component ("HH:MM:SS") is accepted and truncated.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	hour, err := parseClockField(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	minute, err := parseClockField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	if len(parts) == 3 {
		if _, err := parseClockField(parts[2], 59); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
		}
	}
	return TimeOfDay(hour*60 + minute), nil
}

func parseClockField(field string, max int) (int, error) {
	if len(field) != 2 {
		return 0, ErrInvalidTime
	}
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 || n > max {
		return 0, ErrInvalidTime
	}
	return n, nil
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// TimeRange is a half-open [Start, End) window within a single day.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseTimeRange parses both bounds of a window.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: s, End: e}, nil
}

// Overlaps reports whether the two windows intersect. Touching endpoints do
// not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && r.End > other.Start
}

// String renders the window as "HH:MM - HH:MM".
func (r TimeRange) String() string {
	return r.Start.String() + " - " + r.End.String()
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect, with
// each bound given as HH:MM. Unparseable input never overlaps.
func Overlaps(startA, endA, startB, endB string) bool {
	a, err := ParseTimeRange(startA, endA)
	if err != nil {
		return false
	}
	b, err := ParseTimeRange(startB, endB)
	if err != nil {
		return false
	}
	return a.Overlaps(b)
}

// FormatRange renders a stored window for display, dropping any seconds
// component: "09:00:00", "10:30" becomes "09:00 - 10:30".
func FormatRange(start, end string) string {
	return truncateSeconds(start) + " - " + truncateSeconds(end)
}

func truncateSeconds(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 5 {
		return value[:5]
	}
	return value
}
