package core

// readers.go holds the io.Reader wrappers applied to an uploaded file before
// it reaches the CSV decoder:
//
//   - bomReader drops a leading UTF-8 byte order mark (Excel on Windows adds one)
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - sizeLimitReader fails with ErrFileTooLarge once a byte budget is spent
//
// wrapForDecode applies them in that order.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by the ingest reader once the body exceeds the
// configured size limit.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader skips a UTF-8 BOM at the very start of the stream.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if bytes.Equal(head, utf8BOM) {
			r.br.Discard(len(utf8BOM))
		} else if err != nil && err != io.EOF && len(head) == 0 {
			return 0, err
		}
	}
	return r.br.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 in place. A multi-byte sequence split
// across two reads is carried over to the next call instead of being treated
// as invalid.
type utf8Sanitizer struct {
	r     io.Reader
	carry []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, carry: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.carry)
	s.carry = s.carry[:0]

	m, err := s.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	if err == nil {
		if tail := partialRuneTail(data); tail > 0 {
			s.carry = append(s.carry, data[len(data)-tail:]...)
			data = data[:len(data)-tail]
		}
	}

	if utf8.Valid(data) {
		return len(data), err
	}
	return replaceInvalid(data), err
}

// partialRuneTail returns how many trailing bytes of data begin a rune that
// is not complete yet.
func partialRuneTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		start := len(data) - i
		if utf8.RuneStart(data[start]) {
			if data[start] < utf8.RuneSelf || utf8.FullRune(data[start:]) {
				return 0
			}
			return i
		}
	}
	return 0
}

// replaceInvalid swaps every invalid byte for '?' and returns the new length.
// '?' is one byte wide so the data never grows.
func replaceInvalid(data []byte) int {
	w := 0
	for r := 0; r < len(data); {
		c, size := utf8.DecodeRune(data[r:])
		if c == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		w += copy(data[w:], data[r:r+size])
		r += size
	}
	return w
}

// sizeLimitReader reads at most limit bytes and reports ErrFileTooLarge if
// the underlying stream holds more.
type sizeLimitReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n + int(l.remaining), ErrFileTooLarge
	}
	return n, err
}

// wrapForDecode prepares a raw body for the CSV decoder. A limit of zero or
// less disables the size check.
func wrapForDecode(r io.Reader, limit int64) io.Reader {
	if limit > 0 {
		r = &sizeLimitReader{r: r, remaining: limit}
	}
	return newUTF8Sanitizer(newBOMReader(r))
}
