package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVMediaType is the only media type the ingestor accepts.
const CSVMediaType = "text/csv"

// ContextCheckInterval is how many records are decoded between checks for
// context cancellation.
var ContextCheckInterval = 100

// Ingestion failures. Every error returned by Ingest (other than context
// cancellation) satisfies errors.Is against exactly one of these.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrNoColumnsFound  = errors.New("no columns found")
	ErrDecodeFailure   = errors.New("invalid csv")
)

// IngestError classifies an ingestion failure and keeps the underlying cause.
type IngestError struct {
	Kind error // one of ErrInvalidFileType, ErrNoColumnsFound, ErrDecodeFailure
	Err  error // cause, may be nil
}

func (e *IngestError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Is matches the failure kind so callers can use errors.Is(err, ErrNoColumnsFound).
func (e *IngestError) Is(target error) bool {
	return target == e.Kind
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// File is one user-selected file as handed over by a front end.
type File struct {
	Name        string
	ContentType string // declared media type, e.g. from the multipart header
	Size        int64  // 0 if unknown
	Body        io.Reader
}

// DetectContentType guesses a declared media type from a file name, for
// front ends that only have a path on disk. The system MIME tables are not
// guaranteed to know .csv, so it is answered directly.
func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".csv" {
		return CSVMediaType + "; charset=utf-8"
	}
	return mime.TypeByExtension(ext)
}

// Ingestor decodes CSV files into tables.
type Ingestor struct {
	// MaxBytes caps the decoded body size; zero means no limit.
	MaxBytes int64
}

// Ingest validates f's media type and decodes it with the zero Ingestor.
func Ingest(ctx context.Context, f File) (Table, error) {
	var in Ingestor
	return in.Ingest(ctx, f)
}

// Ingest validates the declared media type of f and decodes its body.
//
// The first record is the header and gives the column sequence; every later
// record becomes a row keyed by that sequence. Only empty lines are skipped:
// a record such as "," is a row of empty cells. A header whose fields are all
// empty yields no columns. The body is not read at all when the media type is
// wrong. Ingest never touches shared state; installing the result is up to
// the caller.
func (in Ingestor) Ingest(ctx context.Context, f File) (Table, error) {
	if !isCSVMediaType(f.ContentType) {
		return Table{}, &IngestError{
			Kind: ErrInvalidFileType,
			Err:  fmt.Errorf("declared type %q", f.ContentType),
		}
	}
	if f.Body == nil {
		return Table{}, &IngestError{Kind: ErrDecodeFailure, Err: errors.New("no file body")}
	}
	if in.MaxBytes > 0 && f.Size > in.MaxBytes {
		return Table{}, &IngestError{
			Kind: ErrDecodeFailure,
			Err:  fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, f.Size, in.MaxBytes),
		}
	}

	r := csv.NewReader(wrapForDecode(f.Body, in.MaxBytes))
	r.FieldsPerRecord = -1

	var (
		table   Table
		records int
	)
	for {
		if records%ContextCheckInterval == 0 && ctx.Err() != nil {
			return Table{}, ctx.Err()
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, &IngestError{Kind: ErrDecodeFailure, Err: err}
		}
		records++

		if isEmptyLine(record) {
			continue
		}
		if table.Columns == nil {
			if isBlankHeader(record) {
				return Table{}, &IngestError{Kind: ErrNoColumnsFound, Err: errors.New("header record is empty")}
			}
			table.Columns = headerColumns(record)
			continue
		}
		table.Rows = append(table.Rows, recordToRow(table.Columns, record))
	}

	if len(table.Columns) == 0 {
		return Table{}, &IngestError{Kind: ErrNoColumnsFound, Err: errors.New("file has no header record")}
	}
	if len(table.Rows) == 0 {
		return Table{}, &IngestError{Kind: ErrNoColumnsFound, Err: errors.New("file has no data rows")}
	}
	return table, nil
}

// isCSVMediaType accepts text/csv with or without parameters such as charset.
func isCSVMediaType(declared string) bool {
	if declared == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return mediaType == CSVMediaType
}

// isEmptyLine reports whether record came from a line with no content.
// encoding/csv already drops bare newlines; this catches a lone "" field.
func isEmptyLine(record []string) bool {
	return len(record) == 1 && record[0] == ""
}

// isBlankHeader reports whether no field of a header record has a name.
func isBlankHeader(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// headerColumns turns a header record into a column sequence. Names are kept
// exactly as written, and repeats are made unique by suffixing _1, _2, and
// so on.
func headerColumns(record []string) []Column {
	cols := make([]Column, 0, len(record))
	used := make(map[string]bool, len(record))
	repeats := make(map[string]int)
	for _, base := range record {
		name := base
		for used[name] {
			repeats[base]++
			name = base + "_" + strconv.Itoa(repeats[base])
		}
		used[name] = true
		cols = append(cols, name)
	}
	return cols
}

// recordToRow keys a data record by the column sequence. Fields past the
// header width are dropped; columns past the record width stay absent.
func recordToRow(cols []Column, record []string) Row {
	n := len(record)
	if n > len(cols) {
		n = len(cols)
	}
	row := make(Row, n)
	for i := 0; i < n; i++ {
		row[cols[i]] = record[i]
	}
	return row
}
