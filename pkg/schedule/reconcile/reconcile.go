// Package reconcile diffs a freshly parsed session list against the
// previously stored one. Matching is by session ID only, so a session
// that moved rooms shows up as one flagged field instead of a
// disappeared/new pair; that distinction is what drives incremental
// highlighting across repeated schedule downloads.
package reconcile

import "github.com/openconf/schedtrack/pkg/schedule"

// Apply compares sessions against prior, sets per-field change flags on
// the new sessions, and appends a canceled copy of every prior session
// whose ID no longer appears. It returns the combined list and whether
// anything changed at all.
//
// prior is treated as an immutable snapshot; entries already flagged
// canceled in a previous run are not eligible to be matched or
// re-canceled. An empty prior set reports no changes: there is nothing
// to diff against on the very first download.
func Apply(sessions []*schedule.Session, prior []*schedule.Session) ([]*schedule.Session, bool) {
	if len(prior) == 0 {
		return sessions, false
	}

	changed := false

	pool := make(map[string]*schedule.Session, len(prior))
	order := make([]string, 0, len(prior))
	for _, old := range prior {
		if old.Changes.Canceled {
			continue
		}
		pool[old.ID] = old
		order = append(order, old.ID)
	}

	for _, session := range sessions {
		old, ok := pool[session.ID]
		if !ok {
			session.Changes.New = true
			changed = true
			continue
		}
		delete(pool, session.ID)

		flagDifferences(session, old)
		if session.Changes.Any() {
			changed = true
		}
	}

	// Whatever is left in the pool vanished from the new schedule.
	// Keep it visible as a canceled entry, in prior order.
	for _, id := range order {
		old, ok := pool[id]
		if !ok {
			continue
		}
		old.Cancel()
		sessions = append(sessions, old)
		changed = true
	}

	return sessions, changed
}

// flagDifferences sets one flag per compared field that differs between
// the new and the stored session. The flags are independent; any number
// of them can be set on one session.
func flagDifferences(session, old *schedule.Session) {
	if session.Title != old.Title {
		session.Changes.Title = true
	}
	if session.Subtitle != old.Subtitle {
		session.Changes.Subtitle = true
	}
	if session.Speakers != old.Speakers {
		session.Changes.Speakers = true
	}
	if session.Language != old.Language {
		session.Changes.Language = true
	}
	if session.Room != old.Room {
		session.Changes.Room = true
	}
	if session.Track != old.Track {
		session.Changes.Track = true
	}
	if session.RecordingOptOut != old.RecordingOptOut {
		session.Changes.RecordingOptOut = true
	}
	if session.Day != old.Day {
		session.Changes.Day = true
	}
	if session.StartTime != old.StartTime {
		session.Changes.Time = true
	}
	if session.Duration != old.Duration {
		session.Changes.Duration = true
	}
}
