package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is a settable time source for expiry tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration, max int) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := NewStore(ttl, max)
	st.now = clock.now
	return st, clock
}

// mustGet fails the test unless id is live in st.
func mustGet(t *testing.T, st *Store, id string) *Session {
	t.Helper()
	sess, err := st.Get(id)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", id, err)
	}
	return sess
}

func assertGone(t *testing.T, st *Store, id string) {
	t.Helper()
	if _, err := st.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(%q) error = %v, want ErrSessionNotFound", id, err)
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)

	sess := st.Create()
	if sess.ID == "" {
		t.Fatal("Create() returned a session without an id")
	}

	if got := mustGet(t, st, sess.ID); got != sess {
		t.Error("Get() returned a different session")
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestStore_GetUnknown(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)

	for _, id := range []string{"", "not-a-uuid", "3f1c1f8e-4a43-4a4e-9a9e-7d6c0b0e2f11"} {
		assertGone(t, st, id)
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)

	first, created := st.GetOrCreate("")
	if !created {
		t.Fatal("GetOrCreate(\"\") should create a session")
	}

	again, created := st.GetOrCreate(first.ID)
	if created {
		t.Error("GetOrCreate(existing) created a new session")
	}
	if again != first {
		t.Error("GetOrCreate(existing) returned a different session")
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	a, b := st.Create(), st.Create()

	a.Replace(Table{Columns: []Column{"x"}, Rows: []Row{{"x": "1"}}})

	if !a.Snapshot().HasTable() {
		t.Error("session a should have a table")
	}
	if b.Snapshot().HasTable() {
		t.Error("session b must not see a's table")
	}
}

func TestStore_SweepExpiresIdle(t *testing.T) {
	st, clock := newTestStore(time.Hour, 10)

	idle := st.Create()
	clock.advance(45 * time.Minute)
	active := st.Create()
	clock.advance(30 * time.Minute)

	if n := st.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}

	assertGone(t, st, idle.ID)
	mustGet(t, st, active.ID)
}

func TestStore_GetRefreshesActivity(t *testing.T) {
	st, clock := newTestStore(time.Hour, 10)
	sess := st.Create()

	clock.advance(50 * time.Minute)
	mustGet(t, st, sess.ID)
	clock.advance(50 * time.Minute)

	if n := st.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d, want 0 after recent Get", n)
	}
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	st, clock := newTestStore(time.Hour, 2)

	oldest := st.Create()
	clock.advance(time.Minute)
	middle := st.Create()
	clock.advance(time.Minute)
	newest := st.Create()

	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
	assertGone(t, st, oldest.ID)
	mustGet(t, st, middle.ID)
	mustGet(t, st, newest.ID)
}

func TestStore_Delete(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)
	sess := st.Create()
	st.Delete(sess.ID)

	assertGone(t, st, sess.ID)
}

func TestStore_SweeperStopsOnCancel(t *testing.T) {
	st := NewStore(time.Hour, 10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		st.StartSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
