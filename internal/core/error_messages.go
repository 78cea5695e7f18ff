package core

// error_messages.go maps technical errors to short user-facing messages.
//
// # Error Codes Reference
//
// Users can quote a code when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller files
//	          Match: ErrFileTooLarge, "file too large", "request body too large"
//
//	FILE002 - Decode failure: Error parsing CSV file.
//	          Action: Check the file for unbalanced quotes
//	          Match: ErrDecodeFailure, "invalid csv"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to upload
//	          Match: ErrNoFile, "no file provided"
//
//	FILE006 - Invalid type: Please upload a valid CSV file.
//	          Action: Choose a file saved as .csv
//	          Match: ErrInvalidFileType, "invalid file type"
//
//	FILE007 - No columns: No columns found in the CSV.
//	          Action: Make sure the first line holds column names and at least one data row follows
//	          Match: ErrNoColumnsFound, "no columns found"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: Your editing session has expired
//	SES002 - Stale table: The table was replaced by a newer upload
//	SES003 - Out of range: That cell no longer exists
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default (ERR000)
//
//	ERR000 - An unexpected error occurred
//
// Sentinel errors are matched with errors.Is first, in table order. If none
// match, the error text is searched case-insensitively for the patterns;
// the first hit wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoFile is returned by front ends when a request carries no file.
var ErrNoFile = errors.New("no file provided")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorMapping struct {
	sentinel error
	patterns []string
	msg      UserMessage
}

// errorMappings is ordered: the file size check comes before decode failure
// because an oversized body is reported as a decode failure wrapping
// ErrFileTooLarge.
var errorMappings = []errorMapping{
	{
		sentinel: ErrFileTooLarge,
		patterns: []string{"file too large", "request body too large"},
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		sentinel: ErrInvalidFileType,
		patterns: []string{"invalid file type"},
		msg: UserMessage{
			Message: "Please upload a valid CSV file.",
			Action:  "Choose a file saved as .csv",
			Code:    "FILE006",
		},
	},
	{
		sentinel: ErrNoColumnsFound,
		patterns: []string{"no columns found"},
		msg: UserMessage{
			Message: "No columns found in the CSV.",
			Action:  "Make sure the first line holds column names and at least one data row follows",
			Code:    "FILE007",
		},
	},
	{
		sentinel: ErrDecodeFailure,
		patterns: []string{"invalid csv"},
		msg: UserMessage{
			Message: "Error parsing CSV file.",
			Action:  "Check the file for unbalanced quotes",
			Code:    "FILE002",
		},
	},
	{
		sentinel: ErrNoFile,
		patterns: []string{"no file provided"},
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		sentinel: ErrSessionNotFound,
		patterns: []string{"session not found"},
		msg: UserMessage{
			Message: "Your editing session has expired",
			Action:  "Upload the file again",
			Code:    "SES001",
		},
	},
	{
		sentinel: ErrStaleTable,
		patterns: []string{"table version is stale"},
		msg: UserMessage{
			Message: "The table was replaced by a newer upload",
			Action:  "Reload the page to edit the current table",
			Code:    "SES002",
		},
	},
	{
		sentinel: ErrCellOutOfRange,
		patterns: []string{"cell out of range"},
		msg: UserMessage{
			Message: "That cell no longer exists",
			Action:  "Reload the page",
			Code:    "SES003",
		},
	},
	{
		sentinel: ErrTooManyIngests,
		patterns: []string{"too many uploads"},
		msg: UserMessage{
			Message: "Too many uploads in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		sentinel: context.Canceled,
		patterns: []string{"context canceled"},
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		sentinel: context.DeadlineExceeded,
		patterns: []string{"context deadline exceeded", "timeout"},
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		patterns: []string{"rate limit"},
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no mapping matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := core.Ingest(ctx, f)
//	msg := core.MapError(err)
//	// msg.Code == "FILE007" for a header-only file
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMappings {
		if m.sentinel != nil && errors.Is(err, m.sentinel) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, m := range errorMappings {
		for _, p := range m.patterns {
			if strings.Contains(errStr, p) {
				return m.msg
			}
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and wraps it. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
