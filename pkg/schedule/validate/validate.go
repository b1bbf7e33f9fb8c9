// Package validate runs a post-parse structural check over the date
// fields of parsed sessions. Findings are advisory: they are reported
// to the caller for logging and never block the schedule from being
// produced or mutate the sessions.
package validate

import (
	"fmt"
	"time"

	"github.com/openconf/schedtrack/pkg/schedule"
)

// Issue describes one validation finding on a single session.
type Issue struct {
	SessionID string
	Field     string
	Message   string
}

func (i Issue) String() string {
	return fmt.Sprintf("session %s: %s: %s", i.SessionID, i.Field, i.Message)
}

// Validate checks every session's date-related fields for internal
// consistency and returns the collected issues.
func Validate(sessions []*schedule.Session) []Issue {
	var issues []Issue
	for _, s := range sessions {
		issues = append(issues, checkSession(s)...)
	}
	return issues
}

func checkSession(s *schedule.Session) []Issue {
	var issues []Issue

	if s.Day < 1 {
		issues = append(issues, Issue{
			SessionID: s.ID,
			Field:     "day",
			Message:   fmt.Sprintf("day number %d is not 1-based", s.Day),
		})
	}

	if s.Duration <= 0 {
		issues = append(issues, Issue{
			SessionID: s.ID,
			Field:     "duration",
			Message:   fmt.Sprintf("duration of %d minutes implies an empty or negative slot", s.Duration),
		})
	}

	if s.StartTime < 0 || s.StartTime >= 24*60 {
		issues = append(issues, Issue{
			SessionID: s.ID,
			Field:     "start",
			Message:   fmt.Sprintf("start time %d is outside the day", s.StartTime),
		})
	}

	if s.DateUTC.IsZero() {
		issues = append(issues, Issue{
			SessionID: s.ID,
			Field:     "date",
			Message:   "absolute timestamp is missing or unparsable",
		})
		return issues
	}

	// The timestamp is a UTC instant while the start time is the local
	// clock, so they must differ by a whole timezone offset. Zone
	// offsets are multiples of 15 minutes.
	if s.StartTime >= 0 && s.StartTime < 24*60 {
		utcMinute := s.DateUTC.Hour()*60 + s.DateUTC.Minute()
		diff := (utcMinute - s.StartTime) % (24 * 60)
		if diff < 0 {
			diff += 24 * 60
		}
		if diff%15 != 0 {
			issues = append(issues, Issue{
				SessionID: s.ID,
				Field:     "start",
				Message: fmt.Sprintf("start time %d does not line up with timestamp %s",
					s.StartTime, s.DateUTC.Format(time.RFC3339)),
			})
		}
	}

	// The absolute timestamp should land on the stated calendar day.
	// Late-night sessions legitimately spill past midnight, so one day
	// of slack is allowed before the mismatch is reported.
	if s.Date != "" {
		if day, err := time.Parse("2006-01-02", s.Date); err == nil {
			diff := s.DateUTC.Sub(day)
			if diff < -24*time.Hour || diff > 48*time.Hour {
				issues = append(issues, Issue{
					SessionID: s.ID,
					Field:     "date",
					Message: fmt.Sprintf("timestamp %s does not fall on calendar day %s",
						s.DateUTC.Format(time.RFC3339), s.Date),
				})
			}
		}
	}

	return issues
}
