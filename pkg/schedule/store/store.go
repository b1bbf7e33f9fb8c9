// Package store persists parsed schedules and the user's "changes seen"
// preference. The reconcile step only ever reads from a SessionStore;
// writing the reconciled schedule back is the caller's decision, so a
// failed or canceled run can never clobber a good stored schedule.
package store

import (
	"context"
	"sync"

	"github.com/openconf/schedtrack/pkg/schedule"
)

// SessionStore loads and replaces the stored session set.
type SessionStore interface {
	// LoadAll returns all stored sessions. Implementations return
	// copies; callers may mutate the result freely.
	LoadAll(ctx context.Context) ([]*schedule.Session, error)

	// LoadDay returns the stored sessions for one 1-based day number.
	LoadDay(ctx context.Context, day int) ([]*schedule.Session, error)

	// ReplaceAll atomically replaces the stored schedule and its
	// metadata with the given reconciled result.
	ReplaceAll(ctx context.Context, sessions []*schedule.Session, meta schedule.Meta) error

	// Meta returns the stored conference metadata.
	Meta(ctx context.Context) (schedule.Meta, error)
}

// PrefStore holds the single user preference the pipeline touches: the
// "changes seen" flag. Reconciliation clears it when anything changed;
// the UI layer sets it once the user has looked at the highlights.
type PrefStore interface {
	SetChangesSeen(ctx context.Context, seen bool) error
	ChangesSeen(ctx context.Context) (bool, error)
}

// MemoryStore is an in-memory SessionStore for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions []*schedule.Session
	meta     schedule.Meta
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadAll(ctx context.Context) ([]*schedule.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*schedule.Session, len(m.sessions))
	for i, s := range m.sessions {
		copied := *s
		out[i] = &copied
	}
	return out, nil
}

func (m *MemoryStore) LoadDay(ctx context.Context, day int) ([]*schedule.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*schedule.Session
	for _, s := range m.sessions {
		if s.Day == day {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MemoryStore) ReplaceAll(ctx context.Context, sessions []*schedule.Session, meta schedule.Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make([]*schedule.Session, len(sessions))
	for i, s := range sessions {
		copied := *s
		m.sessions[i] = &copied
	}
	m.meta = meta
	return nil
}

func (m *MemoryStore) Meta(ctx context.Context) (schedule.Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta, nil
}

// MemoryPrefs is an in-memory PrefStore for tests.
type MemoryPrefs struct {
	mu   sync.Mutex
	seen bool
	set  bool
}

// NewMemoryPrefs creates a MemoryPrefs with the flag unset.
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{}
}

func (m *MemoryPrefs) SetChangesSeen(ctx context.Context, seen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = seen
	m.set = true
	return nil
}

func (m *MemoryPrefs) ChangesSeen(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return true, nil
	}
	return m.seen, nil
}

// Touched reports whether SetChangesSeen has ever been called.
func (m *MemoryPrefs) Touched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}
