package core

// store.go keeps the sessions of all connected users in memory.
//
// Nothing is persisted: a session lives until it has been idle for longer
// than the configured TTL, or until it is evicted to make room once the
// store is full. Losing a session is the same as reloading the page.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// DefaultMaxSessions caps the number of sessions held at once.
const DefaultMaxSessions = 1000

// Store maps session IDs to sessions. Safe for concurrent use.
type Store struct {
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a store. Zero or negative arguments fall back to the defaults.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create registers a new empty session under a fresh random ID.
func (st *Store) Create() *Session {
	sess := NewSession(uuid.NewString())
	sess.Touch(st.now())

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.maxSessions {
		st.evictOldestLocked()
	}
	st.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for id and records activity on it.
func (st *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Touch(st.now())
	return sess, nil
}

// GetOrCreate returns the session for id, or a new one if id is unknown.
// The boolean reports whether a new session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if sess, err := st.Get(id); err == nil {
		return sess, false
	}
	return st.Create(), true
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// evictOldestLocked removes the least recently used session.
func (st *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range st.sessions {
		seen := sess.LastSeen()
		if oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(st.sessions, oldestID)
		slog.Debug("session evicted", "session_id", oldestID, "idle", st.now().Sub(oldest).String())
	}
}

// Sweep removes every session idle for longer than the TTL and returns how
// many were removed.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper expires idle sessions every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (st *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session sweeper started", "ttl", st.ttl.String(), "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if removed := st.Sweep(); removed > 0 {
				slog.Info("expired idle sessions",
					"removed", removed,
					"remaining", st.Len(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}
