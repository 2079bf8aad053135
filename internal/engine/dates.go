package engine

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire and storage format for times of day. HH:MM
	// strings compare correctly with plain string comparison.
	ClockLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD date into a UTC midnight instant. All engine
// date arithmetic happens on these normalized instants so weekday stepping is
// immune to DST transitions in the calendar's display timezone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date instant back to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock parses an HH:MM string into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
