// Package schedule parses conference schedule XML documents into an
// in-memory session model. The parser is a single forward pass over the
// document; it never materializes a DOM, so arbitrarily large schedules
// can be handled with constant memory overhead per element.
package schedule

import "time"

// ChangeFlags records which fields of a session differ from the
// previously stored copy. The flags are independent: a session that
// moved rooms and got a new title carries both bits. They default to
// false on a fresh parse and are only set by the reconcile package.
type ChangeFlags struct {
	New             bool
	Canceled        bool
	Title           bool
	Subtitle        bool
	Speakers        bool
	Language        bool
	Room            bool
	Track           bool
	Day             bool
	Time            bool
	Duration        bool
	RecordingOptOut bool
}

// Any reports whether any change flag is set.
func (f ChangeFlags) Any() bool {
	return f != ChangeFlags{}
}

// Session is a single scheduled session within the conference.
//
// ID is the document-provided identifier. It is unique within one
// document and is the sole key used to match the same session across
// repeated downloads of an evolving schedule.
type Session struct {
	ID string

	Title       string
	Subtitle    string
	Slug        string
	Track       string
	Type        string
	Language    string
	Abstract    string
	Description string

	// Speakers is the display form: names in encounter order joined
	// with ";". Links is a comma-joined list of [name](url) tokens.
	Speakers string
	Links    string

	// StartTime is minutes since local midnight. RelStartTime is
	// StartTime shifted +1440 when the session starts before the day's
	// change-of-day boundary, so late-night sessions sort after their
	// nominal day.
	StartTime    int
	RelStartTime int
	Duration     int
	DateUTC      time.Time

	Day       int    // 1-based day number
	Date      string // the day's calendar date as given in the document
	Room      string
	RoomIndex int // first-seen order of the room within the document

	RecordingLicense string
	RecordingOptOut  bool

	Changes ChangeFlags
}

// Cancel marks the session as canceled.
func (s *Session) Cancel() {
	s.Changes.Canceled = true
}

// Meta carries conference-level metadata from the document plus the
// freshness token the caller attached to the parse.
type Meta struct {
	Title    string
	Subtitle string
	Version  string
	NumDays  int
	// DayChange is the document's global change-of-day boundary in
	// minutes since midnight. A per-day end attribute always wins over
	// it; it is retained here for display.
	DayChange int
	// ETag is the opaque freshness token, passed through verbatim.
	ETag string
}
