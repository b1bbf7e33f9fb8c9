package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconf/schedtrack/pkg/schedule"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sessions := []*schedule.Session{
		{ID: "1", Title: "Opening", Day: 1},
		{ID: "2", Title: "Closing", Day: 2},
	}
	meta := schedule.Meta{Title: "ExampleConf", Version: "1.0", NumDays: 2}
	require.NoError(t, store.ReplaceAll(ctx, sessions, meta))

	got, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Opening", got[0].Title)

	gotMeta, err := store.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta, gotMeta)
}

func TestMemoryStore_LoadDay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.ReplaceAll(ctx, []*schedule.Session{
		{ID: "1", Day: 1},
		{ID: "2", Day: 2},
		{ID: "3", Day: 1},
	}, schedule.Meta{}))

	got, err := store.LoadDay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestMemoryStore_LoadAllReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.ReplaceAll(ctx, []*schedule.Session{{ID: "1", Title: "Original"}}, schedule.Meta{}))

	first, err := store.LoadAll(ctx)
	require.NoError(t, err)
	first[0].Title = "Mutated"
	first[0].Changes.Canceled = true

	second, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Original", second[0].Title)
	assert.False(t, second[0].Changes.Canceled)
}

func TestMemoryStore_ReplaceAllDetachesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	in := []*schedule.Session{{ID: "1", Title: "Original"}}
	require.NoError(t, store.ReplaceAll(ctx, in, schedule.Meta{}))

	in[0].Title = "Mutated"

	got, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Original", got[0].Title)
}

func TestMemoryStore_ReplaceAllDropsPrevious(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.ReplaceAll(ctx, []*schedule.Session{{ID: "1"}, {ID: "2"}}, schedule.Meta{}))
	require.NoError(t, store.ReplaceAll(ctx, []*schedule.Session{{ID: "3"}}, schedule.Meta{Version: "2"}))

	got, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestMemoryPrefs_DefaultsToSeen(t *testing.T) {
	ctx := context.Background()
	prefs := NewMemoryPrefs()

	seen, err := prefs.ChangesSeen(ctx)
	require.NoError(t, err)
	assert.True(t, seen, "nothing to review before the first write")
	assert.False(t, prefs.Touched())
}

func TestMemoryPrefs_SetAndGet(t *testing.T) {
	ctx := context.Background()
	prefs := NewMemoryPrefs()

	require.NoError(t, prefs.SetChangesSeen(ctx, false))
	seen, err := prefs.ChangesSeen(ctx)
	require.NoError(t, err)
	assert.False(t, seen)
	assert.True(t, prefs.Touched())

	require.NoError(t, prefs.SetChangesSeen(ctx, true))
	seen, err = prefs.ChangesSeen(ctx)
	require.NoError(t, err)
	assert.True(t, seen)
}
