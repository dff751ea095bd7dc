package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "file type",
			err:      &FileTypeError{Name: "clients.xlsx"},
			wantCode: "FILE001",
		},
		{
			name:     "read failure",
			err:      &ReadError{Name: "clients.csv", Err: errors.New("permission denied")},
			wantCode: "FILE002",
		},
		{
			name:     "parse failure",
			err:      &ParseError{Line: 3, Err: errors.New("extraneous quote")},
			wantCode: "FILE003",
		},
		{
			name:     "too large wins over read failure",
			err:      &ReadError{Name: "big.csv", Err: fmt.Errorf("%w: exceeds 10 bytes", ErrFileTooLarge)},
			wantCode: "FILE004",
		},
		{
			name:     "no file",
			err:      ErrNoFile,
			wantCode: "FILE005",
		},
		{
			name:     "validation blocks import",
			err:      ErrImportNotAllowed,
			wantCode: "VAL001",
		},
		{
			name:     "duplicate commit",
			err:      &CommitError{Duplicate: true, Err: errors.New("boom")},
			wantCode: "IMP001",
		},
		{
			name:     "duplicate detected from store text",
			err:      &CommitError{Err: errors.New(`ERROR: duplicate key value violates unique constraint "clients_owner_name_key"`)},
			wantCode: "IMP001",
		},
		{
			name:     "generic commit",
			err:      &CommitError{Err: errors.New("connection reset by peer")},
			wantCode: "IMP002",
		},
		{
			name:     "busy",
			err:      ErrBusy,
			wantCode: "IMP003",
		},
		{
			name:     "nothing to import",
			err:      ErrNothingToImport,
			wantCode: "IMP004",
		},
		{
			name:     "limiter timeout inside commit",
			err:      &CommitError{Err: ErrTooManyImports},
			wantCode: "IMP005",
		},
		{
			name:     "session not found",
			err:      fmt.Errorf("lookup: %w", ErrSessionNotFound),
			wantCode: "SES001",
		},
		{
			name:     "no actor inside commit",
			err:      &CommitError{Err: fmt.Errorf("resolve owner: %w", ErrNoActor)},
			wantCode: "AUTH001",
		},
		{
			name:     "untyped unique constraint text",
			err:      errors.New("UNIQUE constraint failed: clients.owner_id, clients.company_name"),
			wantCode: "IMP001",
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&FileTypeError{Name: "a.pdf"})
	want := "Only CSV files can be imported (Code: FILE001). Export the client list as CSV and select it again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestFormatCommitError(t *testing.T) {
	detail := "connection reset by peer"

	generic := formatCommitError(&CommitError{Err: errors.New(detail)})
	if !strings.Contains(generic, detail) {
		t.Errorf("generic message %q does not include store detail", generic)
	}
	if !strings.Contains(generic, "IMP002") {
		t.Errorf("generic message %q does not include IMP002", generic)
	}

	dup := formatCommitError(&CommitError{Duplicate: true, Err: errors.New("duplicate key value")})
	if !strings.Contains(dup, "IMP001") {
		t.Errorf("duplicate message %q does not include IMP001", dup)
	}
	if dup == generic {
		t.Error("duplicate and generic messages should differ")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
	if !IsUserFacing(ErrBusy) {
		t.Error("IsUserFacing(ErrBusy) = false, want true")
	}
	if IsUserFacing(errors.New("segfault in the flux capacitor")) {
		t.Error("IsUserFacing(unknown) = true, want false")
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	tech := &CommitError{Duplicate: true, Err: errors.New("duplicate key")}
	ue := NewUserError(tech)
	if ue.User.Code != "IMP001" {
		t.Errorf("Code = %q, want IMP001", ue.User.Code)
	}
	if !errors.Is(ue, tech) {
		t.Error("UserError should unwrap to the technical error")
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want %q", ue.Error(), ue.User.Message)
	}
}

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrDuplicateKey, true},
		{fmt.Errorf("insert: %w", ErrDuplicateKey), true},
		{errors.New("pq: duplicate key value violates unique constraint"), true},
		{errors.New("Unique Constraint violated"), true},
		{errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		if got := IsDuplicate(tt.err); got != tt.want {
			t.Errorf("IsDuplicate(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
