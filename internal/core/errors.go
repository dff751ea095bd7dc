package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the orchestrator and its collaborators.
var (
	// ErrBusy is returned when a read or insert is already in flight.
	ErrBusy = errors.New("import busy: another operation is in progress")

	// ErrImportNotAllowed is returned when validation errors block the import.
	ErrImportNotAllowed = errors.New("import not allowed: records have validation errors")

	// ErrNothingToImport is returned when the session holds no records.
	ErrNothingToImport = errors.New("nothing to import: no records")

	// ErrNoFile is returned when an operation needs a selected file.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when a file exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDuplicateKey is wrapped by store adapters when a uniqueness
	// constraint rejects the batch.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNoActor is returned by an Identity that cannot resolve a user.
	ErrNoActor = errors.New("no current user")

	// ErrTooManyImports is returned when all commit slots stay occupied
	// for longer than the limiter's wait time.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

	// ErrSessionNotFound is returned by hosts for unknown or expired dialogs.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrInvalidPhase is returned when an operation is not allowed in the
	// current phase.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
)

// FileTypeError rejects a file that is not a CSV file.
type FileTypeError struct {
	Name     string
	MIMEType string
}

func (e *FileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %q (%s)", e.Name, e.MIMEType)
}

// ReadError reports that the selected file could not be read.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read file %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports structurally unreadable CSV, such as an unterminated
// quoted field. Line is 1-based; zero when unknown.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CommitError reports that the store rejected the batch.
// Duplicate is set when the rejection came from a uniqueness constraint.
type CommitError struct {
	Duplicate bool
	Err       error
}

func (e *CommitError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("import rejected: duplicate key: %v", e.Err)
	}
	return fmt.Sprintf("import failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err signals a uniqueness conflict, either
// through ErrDuplicateKey or through the driver's message text.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// FailureKind tells which step of the pipeline failed.
type FailureKind string

const (
	FailureRead   FailureKind = "read"
	FailureParse  FailureKind = "parse"
	FailureCommit FailureKind = "commit"
)

// Failure is the error held by a session in the failed phase.
type Failure struct {
	Kind    FailureKind
	Err     error
	Message string // user-facing text that was notified
}
