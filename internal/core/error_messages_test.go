package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "invalid file type",
			err:         &IngestError{Kind: ErrInvalidFileType},
			wantCode:    "FILE006",
			wantMessage: "Please upload a valid CSV file.",
		},
		{
			name:        "no columns found",
			err:         &IngestError{Kind: ErrNoColumnsFound, Err: errors.New("file has no data rows")},
			wantCode:    "FILE007",
			wantMessage: "No columns found in the CSV.",
		},
		{
			name:        "decode failure",
			err:         &IngestError{Kind: ErrDecodeFailure, Err: errors.New(`bare " in non-quoted-field`)},
			wantCode:    "FILE002",
			wantMessage: "Error parsing CSV file.",
		},
		{
			name:        "oversized body beats decode failure",
			err:         &IngestError{Kind: ErrDecodeFailure, Err: ErrFileTooLarge},
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "wrapped stale table",
			err:         fmt.Errorf("set cell: %w", ErrStaleTable),
			wantCode:    "SES002",
			wantMessage: "The table was replaced by a newer upload",
		},
		{
			name:        "deadline exceeded",
			err:         context.DeadlineExceeded,
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "pattern match without sentinel",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO FILE PROVIDED"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(&IngestError{Kind: ErrInvalidFileType})

	expected := "Please upload a valid CSV file. (Code: FILE006). Choose a file saved as .csv"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrNoColumnsFound, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &IngestError{Kind: ErrDecodeFailure, Err: errors.New("extraneous quote")}
		userErr := NewUserError(techErr)

		if userErr.Error() != "Error parsing CSV file." {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrDecodeFailure) {
			t.Error("Unwrap() should expose the ingest failure kind")
		}
	})
}
