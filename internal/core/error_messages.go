package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Wrong file type: Only CSV files can be imported
//	          Action: Export the client list as CSV and select it again
//	FILE002 - Read failure: The file could not be read
//	          Action: Select the file again
//	FILE003 - Invalid CSV: The file is not a valid CSV
//	          Action: Check the quoting around the reported line
//	FILE004 - File too large: File exceeds the maximum import size
//	          Action: Split the file into smaller files
//	FILE005 - No file: No file was selected
//	          Action: Please select a CSV file to import
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Validation failed: Some rows have errors
//	         Action: Fix the highlighted rows and select the file again
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Duplicate: A client in this file already exists
//	         Action: Remove existing clients from the file and retry
//	         Patterns: "duplicate key", "unique constraint"
//	IMP002 - Import failed: The store rejected the import
//	         Action: Please try again
//	IMP003 - Busy: Another step of this import is still running
//	         Action: Wait for it to finish
//	IMP004 - Nothing to import: The file contains no clients
//	         Action: Add at least one data row below the header
//	IMP005 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent imports"
//
// # Host Errors
//
//	SES001  - Session expired: Import dialog not found
//	AUTH001 - Not signed in: No user could be resolved
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors from this package are matched first using errors.Is and
// errors.As. Errors from outside the package fall back to case-insensitive
// substring patterns; the first matching pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileType = UserMessage{
		Message: "Only CSV files can be imported",
		Action:  "Export the client list as CSV and select it again",
		Code:    "FILE001",
	}
	msgRead = UserMessage{
		Message: "The file could not be read",
		Action:  "Select the file again",
		Code:    "FILE002",
	}
	msgParse = UserMessage{
		Message: "The file is not a valid CSV",
		Action:  "Check the quoting around the reported line",
		Code:    "FILE003",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum import size",
		Action:  "Split the file into smaller files",
		Code:    "FILE004",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to import",
		Code:    "FILE005",
	}
	msgValidation = UserMessage{
		Message: "Some rows have errors",
		Action:  "Fix the highlighted rows and select the file again",
		Code:    "VAL001",
	}
	msgDuplicate = UserMessage{
		Message: "A client in this file already exists",
		Action:  "Remove existing clients from the file and retry",
		Code:    "IMP001",
	}
	msgCommit = UserMessage{
		Message: "The import failed",
		Action:  "Please try again",
		Code:    "IMP002",
	}
	msgBusy = UserMessage{
		Message: "Another step of this import is still running",
		Action:  "Wait for it to finish",
		Code:    "IMP003",
	}
	msgNothing = UserMessage{
		Message: "The file contains no clients",
		Action:  "Add at least one data row below the header",
		Code:    "IMP004",
	}
	msgTooMany = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP005",
	}
	msgSession = UserMessage{
		Message: "Import dialog not found",
		Action:  "The dialog may have expired. Please start a new import",
		Code:    "SES001",
	}
	msgNoActor = UserMessage{
		Message: "No signed-in user",
		Action:  "Sign in and try again",
		Code:    "AUTH001",
	}
	msgRate = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that do not carry one of this package's types.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "too many concurrent imports", msg: msgTooMany},
	{pattern: "rate limit", msg: msgRate},
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "no file provided", msg: msgNoFile},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&CommitError{Duplicate: true, Err: err})
//	// msg.Code == "IMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		fileType *FileTypeError
		readErr  *ReadError
		parseErr *ParseError
		commit   *CommitError
	)
	switch {
	case errors.As(err, &fileType):
		return msgFileType
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge
	case errors.As(err, &readErr):
		return msgRead
	case errors.As(err, &parseErr):
		return msgParse
	case errors.Is(err, ErrNoFile):
		return msgNoFile
	case errors.Is(err, ErrImportNotAllowed):
		return msgValidation
	case errors.Is(err, ErrNothingToImport):
		return msgNothing
	case errors.Is(err, ErrBusy):
		return msgBusy
	case errors.Is(err, ErrTooManyImports):
		return msgTooMany
	case errors.Is(err, ErrNoActor):
		return msgNoActor
	case errors.As(err, &commit):
		if commit.Duplicate || IsDuplicate(commit.Err) {
			return msgDuplicate
		}
		return msgCommit
	case errors.Is(err, ErrSessionNotFound):
		return msgSession
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
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

// formatCommitError builds the notification for a rejected batch. Generic
// store failures include the store's detail; every other cause, such as a
// duplicate conflict, uses its catalogue wording.
func formatCommitError(err *CommitError) string {
	msg := MapError(err)
	if msg.Code != msgCommit.Code {
		return FormatUserError(err)
	}
	return fmt.Sprintf("%s: %v (Code: %s). %s", msg.Message, err.Err, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
