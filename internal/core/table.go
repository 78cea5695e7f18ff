package core

import "fmt"

// Column names a field position shared by every row of a table.
type Column = string

// Row maps column names to cell values. Keys may be missing; reads go
// through Get, which treats a missing key as an empty cell.
type Row map[Column]string

// Get returns the value for col, or "" when the row has no such key.
func (r Row) Get(col Column) string {
	return r[col]
}

// clone returns a copy of the row that shares no storage with r.
func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered column sequence plus an ordered row sequence.
//
// A Table value is treated as immutable once built: WithCell returns a new
// value and leaves the receiver alone, so snapshots handed out earlier stay
// valid while edits continue.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no columns or no rows.
func (t Table) Empty() bool {
	return len(t.Columns) == 0 || len(t.Rows) == 0
}

// HasColumn reports whether col is part of the column sequence.
func (t Table) HasColumn(col Column) bool {
	return t.columnIndex(col) >= 0
}

func (t Table) columnIndex(col Column) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Cell returns the displayed value of row i at col.
func (t Table) Cell(i int, col Column) string {
	return t.Rows[i].Get(col)
}

// InRange reports whether (i, col) addresses a cell of the table.
func (t Table) InRange(i int, col Column) bool {
	return i >= 0 && i < len(t.Rows) && t.HasColumn(col)
}

// WithCell returns a copy of t with row i's value at col set to value.
//
// Only row i is cloned; every other row is shared with t. Addressing a cell
// outside the table is a caller bug and panics.
func (t Table) WithCell(i int, col Column, value string) Table {
	if !t.InRange(i, col) {
		panic(fmt.Sprintf("core: cell (%d, %q) outside table of %d rows", i, col, len(t.Rows)))
	}

	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)

	updated := t.Rows[i].clone()
	updated[col] = value
	rows[i] = updated

	return Table{Columns: t.Columns, Rows: rows}
}

// Equal reports whether both tables have the same columns in the same order
// and the same displayed value in every cell.
func (t Table) Equal(other Table) bool {
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if !t.RowEqual(i, other.Rows[i]) {
			return false
		}
	}
	return true
}

// RowEqual compares row i of t to r column by column using the
// missing-key-is-empty read policy.
func (t Table) RowEqual(i int, r Row) bool {
	for _, col := range t.Columns {
		if t.Rows[i].Get(col) != r.Get(col) {
			return false
		}
	}
	return true
}
