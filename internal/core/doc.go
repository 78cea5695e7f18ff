// Package core holds the CSV editing logic, independent of any front end.
//
// The web server and the terminal editor both drive the same three pieces:
//
//   - [Ingestor] validates a file's declared media type and decodes it into
//     a [Table]: the first non-blank record names the columns, every later
//     non-blank record becomes a [Row].
//   - [Session] owns one user's table and error message. It is the only
//     place they change: [Session.Replace], [Session.SetCell] and
//     [Session.ClearError]. Overlapping ingestions are ordered by ticket so
//     the newest upload always wins.
//   - [Store] keeps sessions in memory and expires idle ones. Nothing is
//     ever written to disk.
//
// # Editing
//
// Tables are values. [Table.WithCell] returns a new table in which only the
// edited row is a fresh map; all other rows are shared with the previous
// table. A snapshot taken before an edit therefore never changes.
//
// # Error Handling
//
// Ingestion failures are classified as [ErrInvalidFileType],
// [ErrNoColumnsFound] or [ErrDecodeFailure] and mapped to short user
// messages with support codes by [MapError].
package core
