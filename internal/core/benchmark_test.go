package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"testing"
)

// ============================================================================
// Ingest Benchmarks
// ============================================================================

// BenchmarkIngest measures decoding a small upload end to end.
func BenchmarkIngest(b *testing.B) {
	data := generateTestCSV(100)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Ingest(context.Background(), csvBytes(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIngest_Large measures a larger upload with a size limit set.
func BenchmarkIngest_Large(b *testing.B) {
	data := generateTestCSV(10000)
	in := Ingestor{MaxBytes: int64(len(data))}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := in.Ingest(context.Background(), csvBytes(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIngestParallel runs concurrent ingests, as several sessions
// uploading at once would.
func BenchmarkIngestParallel(b *testing.B) {
	data := generateTestCSV(500)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			Ingest(context.Background(), csvBytes(data))
		}
	})
}

// BenchmarkDecodeWrappers compares the raw csv reader with the wrapped one,
// to keep the BOM, UTF-8 and size layers cheap.
func BenchmarkDecodeWrappers(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, generateTestCSV(1000)...)

	drain := func(r io.Reader) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		for {
			if _, err := cr.Read(); err == io.EOF {
				return
			}
		}
	}

	b.Run("Raw", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			drain(bytes.NewReader(data))
		}
	})

	b.Run("Wrapped", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			drain(wrapForDecode(bytes.NewReader(data), int64(len(data))))
		}
	})
}

// ============================================================================
// Header and Record Benchmarks
// ============================================================================

func BenchmarkHeaderColumns_Duplicates(b *testing.B) {
	header := make([]string, 50)
	for i := range header {
		header[i] = "col" + strconv.Itoa(i%5)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		headerColumns(header)
	}
}

func BenchmarkIsBlankHeader(b *testing.B) {
	tests := []struct {
		name   string
		record []string
	}{
		{"large_blank", make([]string, 50)},
		{"large_non_blank", func() []string {
			r := make([]string, 50)
			r[49] = "data" // Last field has data
			return r
		}()},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				isBlankHeader(tt.record)
			}
		})
	}
}

// ============================================================================
// Edit Benchmarks
// ============================================================================

// BenchmarkWithCell shows the cost of one edit on a large table: the rows
// slice is copied but only the edited row is cloned.
func BenchmarkWithCell(b *testing.B) {
	t, err := Ingest(context.Background(), csvBytes(generateTestCSV(10000)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		t = t.WithCell(i%t.Len(), "Name", "Jane Doe")
	}
}

func BenchmarkSessionSetCell(b *testing.B) {
	t, err := Ingest(context.Background(), csvBytes(generateTestCSV(1000)))
	if err != nil {
		b.Fatal(err)
	}
	sess := NewSession("bench")
	version := sess.Replace(t)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, version, err = sess.SetCell(version, i%t.Len(), "Amount", strconv.Itoa(i))
		if err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func csvBytes(data []byte) File {
	return File{Name: "bench.csv", ContentType: CSVMediaType, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

// generateTestCSV generates CSV data with the specified number of rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header
	w.Write([]string{"ID", "Name", "Email", "Date", "Amount", "Status"})

	// Data rows
	for i := 0; i < rows; i++ {
		w.Write([]string{
			strconv.Itoa(1000 + i),
			"John Doe",
			"john@example.com",
			"2024-01-15",
			"$1,234.56",
			"active",
		})
	}
	w.Flush()

	return buf.Bytes()
}
