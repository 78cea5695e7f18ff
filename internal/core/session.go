package core

// session.go implements the single owner of a user's table state.
//
// A Session holds exactly one Table and one optional error message. It is
// the only place either is mutated:
//
//   - Replace installs a freshly ingested table and clears the error
//   - SetCell edits one cell of the current table, keeping its generation
//   - ClearError dismisses the error message
//
// Ingestion is split into BeginIngest and Complete so that overlapping
// uploads resolve deterministically: every BeginIngest hands out a ticket
// from a monotonic counter, and only the newest ticket may install its
// result. A slower, older ingest that finishes late is dropped.

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrStaleTable is returned when an edit targets a table generation that
	// has since been replaced by another upload.
	ErrStaleTable = errors.New("table version is stale")

	// ErrCellOutOfRange is returned when an edit addresses a row or column
	// that the current table does not have.
	ErrCellOutOfRange = errors.New("cell out of range")

	// ErrSuperseded is returned by Complete when a newer ingest was started
	// after the ticket was issued. The result was discarded.
	ErrSuperseded = errors.New("ingest superseded by a newer upload")
)

// IngestTicket identifies one in-flight ingestion of a session.
type IngestTicket uint64

// View is a read-only snapshot of a session. Table is never mutated after
// the snapshot is taken.
type View struct {
	Table   Table
	Version uint64 // table generation, bumped only when a table is installed
	Edits   uint64 // cell edits applied to this generation
	Error   string // empty when there is no error to show
	Pending bool   // an ingest was started and has not completed yet
}

// HasTable reports whether a table has been loaded.
func (v View) HasTable() bool {
	return !v.Table.Empty()
}

// Session owns the table and error state of one user. Safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	table    Table
	version  uint64 // generation of table
	edits    uint64
	errMsg   string
	latest   IngestTicket // newest ticket handed out
	pending  bool
	lastSeen time.Time
}

// NewSession returns an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id, lastSeen: time.Now()}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Table:   s.table,
		Version: s.version,
		Edits:   s.edits,
		Error:   s.errMsg,
		Pending: s.pending,
	}
}

// Replace installs t wholesale and clears any error. The previous table is
// discarded, never merged.
func (s *Session) Replace(t Table) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(t)
}

func (s *Session) replaceLocked(t Table) uint64 {
	s.table = t
	s.errMsg = ""
	s.version++
	s.edits = 0
	return s.version
}

// SetCell sets row's value at col to value on the table generation identified
// by version and returns the resulting table and the generation.
//
// The generation only moves when a new table is installed, so edits made
// against the same table never conflict with each other; the check only keeps
// an edit typed into a page rendered from an older upload out of a newer one.
// Any string, including "", is accepted. Repeating a call with the same
// arguments succeeds and leaves an equal table.
func (s *Session) SetCell(version uint64, row int, col Column, value string) (Table, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version != s.version {
		return s.table, s.version, ErrStaleTable
	}
	if !s.table.InRange(row, col) {
		return s.table, s.version, ErrCellOutOfRange
	}

	s.table = s.table.WithCell(row, col, value)
	s.edits++
	return s.table, s.version, nil
}

// ClearError dismisses the current error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Fail records msg as the current error. The table is left untouched.
func (s *Session) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// BeginIngest issues a ticket for a new ingestion and marks the session as
// pending. Any ticket issued earlier becomes stale.
func (s *Session) BeginIngest() IngestTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.pending = true
	return s.latest
}

// Complete applies the outcome of the ingestion identified by ticket.
//
// On success the table is replaced and the error cleared; on failure the
// error message is set from MapError and the table is kept. If a newer
// ticket has been issued since, nothing changes and ErrSuperseded is
// returned. A context error means the caller gave up; it clears the pending
// flag without touching the table or the error.
func (s *Session) Complete(ticket IngestTicket, t Table, ingestErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.latest {
		return ErrSuperseded
	}
	s.pending = false

	switch {
	case ingestErr == nil:
		s.replaceLocked(t)
	case errors.Is(ingestErr, context.Canceled), errors.Is(ingestErr, context.DeadlineExceeded):
	default:
		s.errMsg = MapError(ingestErr).Message
	}
	return nil
}

// Ingest runs a full ingestion against this session with in.
//
// The decode runs without holding the session lock, so edits and snapshots
// stay responsive while a file is being read. The returned error is the
// ingestion failure, or ErrSuperseded if a newer upload won.
func (s *Session) Ingest(ctx context.Context, in Ingestor, f File) (View, error) {
	ticket := s.BeginIngest()
	t, err := in.Ingest(ctx, f)
	if cerr := s.Complete(ticket, t, err); cerr != nil {
		return s.Snapshot(), cerr
	}
	return s.Snapshot(), err
}

// Touch records activity for idle expiry.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
