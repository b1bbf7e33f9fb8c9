package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconf/schedtrack/pkg/schedule"
)

func makeSession(id string) *schedule.Session {
	return &schedule.Session{
		ID:        id,
		Title:     "Talk " + id,
		Subtitle:  "Subtitle " + id,
		Speakers:  "Alice;Bob",
		Language:  "en",
		Room:      "Main Hall",
		RoomIndex: 0,
		Track:     "Systems",
		Day:       1,
		StartTime: 600,
		Duration:  60,
	}
}

func makeSessions(ids ...string) []*schedule.Session {
	out := make([]*schedule.Session, len(ids))
	for i, id := range ids {
		out[i] = makeSession(id)
	}
	return out
}

func TestApply_IdenticalSchedulesAreIdempotent(t *testing.T) {
	sessions := makeSessions("1", "2", "3")
	prior := makeSessions("1", "2", "3")

	out, changed := Apply(sessions, prior)

	assert.False(t, changed)
	require.Len(t, out, 3)
	for _, s := range out {
		assert.False(t, s.Changes.Any(), "session %s should carry no flags", s.ID)
	}
}

func TestApply_EmptyPriorSetsNoFlags(t *testing.T) {
	sessions := makeSessions("1", "2")

	out, changed := Apply(sessions, nil)

	assert.False(t, changed, "first import is not a change")
	for _, s := range out {
		assert.False(t, s.Changes.New)
	}
}

func TestApply_UnknownSessionIsNew(t *testing.T) {
	sessions := makeSessions("1", "2")
	prior := makeSessions("1")

	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	require.Len(t, out, 2)
	assert.False(t, out[0].Changes.New)
	assert.True(t, out[1].Changes.New)
	assert.False(t, out[1].Changes.Canceled)
}

func TestApply_RoomChangeSetsOnlyRoomFlag(t *testing.T) {
	sessions := makeSessions("1")
	sessions[0].Room = "Annex"
	prior := makeSessions("1")

	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	require.Len(t, out, 1)
	flags := out[0].Changes
	assert.True(t, flags.Room)
	assert.False(t, flags.New)
	assert.False(t, flags.Title)
	assert.False(t, flags.Time)
	assert.False(t, flags.Canceled)
}

func TestApply_EachFieldFlagsIndependently(t *testing.T) {
	sessions := makeSessions("1")
	sessions[0].Title = "Renamed"
	sessions[0].Speakers = "Alice"
	sessions[0].StartTime = 660
	sessions[0].Duration = 30
	sessions[0].Day = 2
	sessions[0].RecordingOptOut = true
	prior := makeSessions("1")

	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	flags := out[0].Changes
	assert.True(t, flags.Title)
	assert.True(t, flags.Speakers)
	assert.True(t, flags.Time)
	assert.True(t, flags.Duration)
	assert.True(t, flags.Day)
	assert.True(t, flags.RecordingOptOut)
	assert.False(t, flags.Subtitle)
	assert.False(t, flags.Language)
	assert.False(t, flags.Room)
	assert.False(t, flags.Track)
}

func TestApply_VanishedSessionAppendedAsCanceled(t *testing.T) {
	sessions := makeSessions("1")
	prior := makeSessions("1", "2")

	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[1].ID)
	assert.True(t, out[1].Changes.Canceled)
	assert.Equal(t, "Talk 2", out[1].Title, "canceled entry keeps its stored fields")
}

func TestApply_CanceledPriorIsNeverRematched(t *testing.T) {
	prior := makeSessions("1", "2")
	prior[1].Changes.Canceled = true

	// Session 2 is gone from the new schedule, but it was already
	// canceled last time; it must not be re-emitted.
	sessions := makeSessions("1")
	out, changed := Apply(sessions, prior)

	assert.False(t, changed)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestApply_CanceledPriorDoesNotSuppressNewFlag(t *testing.T) {
	prior := makeSessions("1")
	prior[0].Changes.Canceled = true

	// The same identity reappears: the canceled entry is not eligible
	// for matching, so the session counts as new again.
	sessions := makeSessions("1")
	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	require.Len(t, out, 1)
	assert.True(t, out[0].Changes.New)
}

func TestApply_CancellationPreservesPriorOrder(t *testing.T) {
	sessions := []*schedule.Session{}
	prior := makeSessions("a", "b", "c")

	out, changed := Apply(sessions, prior)

	assert.True(t, changed)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
}
