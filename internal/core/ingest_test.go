package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"
)

// countingBody records whether the ingestor read anything.
type countingBody struct {
	r     io.Reader
	reads int
}

func (c *countingBody) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func csvFile(body string) File {
	return File{Name: "data.csv", ContentType: "text/csv", Body: strings.NewReader(body)}
}

func TestIngest_Scenario(t *testing.T) {
	tbl, err := Ingest(context.Background(), csvFile("name,age\nAlice,30\nBob,25\n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	want := Table{
		Columns: []Column{"name", "age"},
		Rows: []Row{
			{"name": "Alice", "age": "30"},
			{"name": "Bob", "age": "25"},
		},
	}
	if !tbl.Equal(want) {
		t.Fatalf("Ingest() = %+v, want %+v", tbl, want)
	}

	edited := tbl.WithCell(1, "age", "26")
	if !edited.RowEqual(1, Row{"name": "Bob", "age": "26"}) {
		t.Errorf("row 1 = %v, want Bob/26", edited.Rows[1])
	}
	if !edited.RowEqual(0, Row{"name": "Alice", "age": "30"}) {
		t.Errorf("row 0 changed: %v", edited.Rows[0])
	}
}

func TestIngest_Classification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"blank line only", "\n", ErrNoColumnsFound},
		{"empty file", "", ErrNoColumnsFound},
		{"header without data rows", "name,age\n", ErrNoColumnsFound},
		{"header followed by blank lines", "name,age\n\n\n\n", ErrNoColumnsFound},
		{"empty header record", ",\nname,age\nAlice,30\n", ErrNoColumnsFound},
		{"whitespace header record", " , \n1,2\n", ErrNoColumnsFound},
		{"unterminated quote", "a,b\n\"open,1\n", ErrDecodeFailure},
		{"bare quote", "a,b\nx\"y,1\n", ErrDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(context.Background(), csvFile(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Ingest() error = %v, want %v", err, tt.want)
			}

			var ie *IngestError
			if !errors.As(err, &ie) {
				t.Fatalf("error %T is not *IngestError", err)
			}
		})
	}
}

func TestIngest_InvalidFileTypeReadsNothing(t *testing.T) {
	for _, ct := range []string{"text/plain", "", "application/json", "application/vnd.ms-excel"} {
		t.Run(ct, func(t *testing.T) {
			body := &countingBody{r: strings.NewReader("a,b\n1,2\n")}
			_, err := Ingest(context.Background(), File{Name: "x", ContentType: ct, Body: body})

			if !errors.Is(err, ErrInvalidFileType) {
				t.Fatalf("Ingest() error = %v, want ErrInvalidFileType", err)
			}
			if body.reads != 0 {
				t.Errorf("body read %d times, want 0", body.reads)
			}
		})
	}
}

func TestIngest_MediaTypeParameters(t *testing.T) {
	f := csvFile("a\n1\n")
	f.ContentType = "text/csv; charset=utf-8"

	if _, err := Ingest(context.Background(), f); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
}

func TestIngest_SkipsBlankLines(t *testing.T) {
	tbl, err := Ingest(context.Background(), csvFile("\n\na,b\n\n1,2\n\n\"\"\n3,4\n\n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if strings.Join(tbl.Columns, "|") != "a|b" {
		t.Errorf("columns = %q, want [a b]", tbl.Columns)
	}
	if tbl.Len() != 2 {
		t.Errorf("rows = %d, want 2", tbl.Len())
	}
}

func TestIngest_KeepsRowsOfEmptyCells(t *testing.T) {
	tbl, err := Ingest(context.Background(), csvFile("name,age\nAlice,30\n,\n   \nBob,25\n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("rows = %d, want 4", tbl.Len())
	}
	if got := tbl.Cell(1, "name"); got != "" {
		t.Errorf("row 1 name = %q, want empty", got)
	}
	if got := tbl.Cell(2, "name"); got != "   " {
		t.Errorf("row 2 name = %q, want whitespace kept", got)
	}
	if got := tbl.Cell(3, "name"); got != "Bob" {
		t.Errorf("row 3 name = %q, want Bob", got)
	}
}

func TestIngest_RaggedRecords(t *testing.T) {
	tbl, err := Ingest(context.Background(), csvFile("a,b,c\n1\n1,2,3,4\n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	short := tbl.Rows[0]
	if len(short) != 1 || short.Get("a") != "1" || short.Get("c") != "" {
		t.Errorf("short row = %v", short)
	}

	long := tbl.Rows[1]
	if len(long) != 3 {
		t.Errorf("long row has %d keys, want 3 (extras dropped)", len(long))
	}
	for _, row := range tbl.Rows {
		for k := range row {
			if !tbl.HasColumn(k) {
				t.Errorf("row key %q is not a column", k)
			}
		}
	}
}

func TestIngest_HeaderNames(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []Column
	}{
		{"kept as written", " name , age ", []Column{" name ", " age "}},
		{"partly empty", "a,,b", []Column{"a", "", "b"}},
		{"duplicates suffixed", "a,a,b,a", []Column{"a", "a_1", "b", "a_2"}},
		{"suffix collides with real column", "a,a_1,a", []Column{"a", "a_1", "a_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Ingest(context.Background(), csvFile(tt.header+"\nx\n"))
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if strings.Join(tbl.Columns, "|") != strings.Join(tt.want, "|") {
				t.Errorf("columns = %q, want %q", tbl.Columns, tt.want)
			}
		})
	}
}

func TestIngest_BOMAndInvalidUTF8(t *testing.T) {
	body := "\xEF\xBB\xBFname\n\x80x\n"
	tbl, err := Ingest(context.Background(), csvFile(body))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if tbl.Columns[0] != "name" {
		t.Errorf("column = %q, want BOM stripped", tbl.Columns[0])
	}
	if got := tbl.Cell(0, "name"); got != "?x" {
		t.Errorf("cell = %q, want ?x", got)
	}
}

func TestIngest_QuotedFields(t *testing.T) {
	tbl, err := Ingest(context.Background(), csvFile("note,n\n\"a, b\",1\n\"multi\nline\",2\n"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if tbl.Cell(0, "note") != "a, b" || tbl.Cell(1, "note") != "multi\nline" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestIngest_MaxBytes(t *testing.T) {
	in := Ingestor{MaxBytes: 16}
	body := "col\n" + strings.Repeat("value\n", 10)

	t.Run("declared size over limit", func(t *testing.T) {
		f := csvFile(body)
		f.Size = int64(len(body))
		_, err := in.Ingest(context.Background(), f)
		if !errors.Is(err, ErrDecodeFailure) || !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("error = %v, want decode failure wrapping ErrFileTooLarge", err)
		}
	})

	t.Run("unknown size detected while reading", func(t *testing.T) {
		_, err := in.Ingest(context.Background(), csvFile(body))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("within limit", func(t *testing.T) {
		if _, err := in.Ingest(context.Background(), csvFile("col\nv\n")); err != nil {
			t.Fatalf("error = %v", err)
		}
	})
}

func TestIngest_ReaderError(t *testing.T) {
	f := File{Name: "x.csv", ContentType: "text/csv", Body: iotest.ErrReader(errors.New("disk gone"))}
	_, err := Ingest(context.Background(), f)
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("error = %v, want ErrDecodeFailure", err)
	}
}

func TestIngest_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, csvFile("a\n1\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestIngest_CountsMatchInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		cols := 1 + rng.Intn(6)
		rows := 1 + rng.Intn(20)

		var b strings.Builder
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "col%d", c)
		}
		b.WriteByte('\n')
		for r := 0; r < rows; r++ {
			if rng.Intn(3) == 0 {
				b.WriteString("\n")
			}
			for c := 0; c < cols; c++ {
				if c > 0 {
					b.WriteByte(',')
				}
				fmt.Fprintf(&b, "v%d_%d", r, c)
			}
			b.WriteByte('\n')
		}

		tbl, err := Ingest(context.Background(), csvFile(b.String()))
		if err != nil {
			t.Fatalf("trial %d: Ingest() error = %v", trial, err)
		}
		if len(tbl.Columns) != cols || tbl.Len() != rows {
			t.Fatalf("trial %d: got %d cols x %d rows, want %d x %d",
				trial, len(tbl.Columns), tbl.Len(), cols, rows)
		}
	}
}

func TestDetectContentType(t *testing.T) {
	if got := DetectContentType("/tmp/people.CSV"); !isCSVMediaType(got) {
		t.Errorf("DetectContentType(.CSV) = %q, want text/csv", got)
	}
	if got := DetectContentType("notes.txt"); isCSVMediaType(got) {
		t.Errorf("DetectContentType(.txt) = %q, want non-csv", got)
	}
}
