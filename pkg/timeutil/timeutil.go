// Package timeutil provides the date/time normalization helpers used by
// the schedule parser: clock strings in minutes since midnight, the
// change-of-day boundary, and absolute timestamps as UTC instants.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted for absolute date/time values. Upstream
// schedule generators are inconsistent about zone formatting and
// seconds, so a couple of fallbacks are tried after RFC 3339.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseClock parses a "HH:MM" (or "HH:MM:SS", seconds ignored) clock
// string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return hours*60 + minutes, nil
}

// ParseDateTime parses an absolute timestamp and returns it as a UTC
// instant.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseDayChange parses a day's change-of-day boundary into minutes
// since midnight. The value is either a full timestamp (the day's end
// instant, whose local clock time is the boundary) or a bare clock
// string.
func ParseDayChange(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return ParseClock(s)
}
