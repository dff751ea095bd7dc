package core

// orchestrator.go drives one import dialog through the import state machine.
//
// The orchestrator is the only component of the pipeline that performs I/O:
// it reads the selected file, calls the store once per import, and sends
// notifications. Every failure is turned into a phase transition plus a
// notification, and the typed error is also returned so hosts can choose a
// status code.
//
// At most one read or insert runs at a time. The mutex guards state but is
// not held during I/O, so State can be called while a preview or import is
// in flight.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// session is the transient state of one import. It is never persisted.
type session struct {
	file    *FileHandle
	records []Record
	errors  []ValidationError
	failure *Failure
}

// Orchestrator owns one import session and its phase.
type Orchestrator struct {
	store    Store
	identity Identity
	notifier Notifier
	hooks    Hooks

	maxFileSize int64
	logger      *slog.Logger

	mu      sync.Mutex
	phase   Phase
	session *session
	busy    bool
	// generation changes whenever the session is replaced or discarded,
	// so a read that finishes afterwards is dropped.
	generation uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxFileSize bounds the size of files read by Preview.
func WithMaxFileSize(n int64) Option {
	return func(o *Orchestrator) { o.maxFileSize = n }
}

// WithLogger sets the logger for phase transitions and failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks sets the completion and close callbacks.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// NewOrchestrator creates an orchestrator in the idle phase.
func NewOrchestrator(store Store, identity Identity, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		identity:    identity,
		notifier:    notifier,
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
		phase:       PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectFile starts a new session for h, replacing any previous one.
// Files that are not CSV are rejected with *FileTypeError and leave the
// current session untouched.
func (o *Orchestrator) SelectFile(ctx context.Context, h FileHandle) error {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if !isCSV(h) {
		o.mu.Unlock()
		err := &FileTypeError{Name: h.Name, MIMEType: h.MIMEType}
		o.logger.Warn("import file rejected", "file", h.Name, "mime_type", h.MIMEType)
		o.notifier.NotifyError(ctx, FormatUserError(err))
		return err
	}

	o.generation++
	o.session = &session{file: &h}
	o.phase = PhaseFileSelected
	o.mu.Unlock()

	o.logger.Debug("import file selected", "file", h.Name, "size", h.Size)
	return nil
}

// Preview reads, parses and validates the selected file.
// It is allowed after a file was selected, after a previous preview, and
// after a failure.
func (o *Orchestrator) Preview(ctx context.Context) error {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.session == nil || o.session.file == nil {
		o.mu.Unlock()
		o.notifier.NotifyError(ctx, FormatUserError(ErrNoFile))
		return ErrNoFile
	}
	switch o.phase {
	case PhaseFileSelected, PhasePreviewed, PhaseFailed:
	default:
		phase := o.phase
		o.mu.Unlock()
		return fmt.Errorf("preview in phase %s: %w", phase, ErrInvalidPhase)
	}

	o.busy = true
	o.phase = PhaseParsing
	gen := o.generation
	file := o.session.file
	o.mu.Unlock()

	start := time.Now()
	records, verrs, err := o.load(file)

	o.mu.Lock()
	if gen != o.generation {
		o.busy = false
		o.mu.Unlock()
		o.logger.Debug("preview outcome dropped: session closed", "file", file.Name)
		return nil
	}
	o.busy = false

	if err != nil {
		kind := FailureRead
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			kind = FailureParse
		}
		msg := FormatUserError(err)
		o.session.records = nil
		o.session.errors = nil
		o.session.failure = &Failure{Kind: kind, Err: err, Message: msg}
		o.phase = PhaseFailed
		o.mu.Unlock()

		o.logger.Warn("import preview failed", "file", file.Name, "kind", kind, "error", err)
		o.notifier.NotifyError(ctx, msg)
		return err
	}

	o.session.records = records
	o.session.errors = verrs
	o.session.failure = nil
	o.phase = PhasePreviewed
	o.mu.Unlock()

	o.logger.Info("import previewed",
		"file", file.Name,
		"records", len(records),
		"validation_errors", len(verrs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// load runs the read, parse and validate steps without holding the lock.
func (o *Orchestrator) load(file *FileHandle) ([]Record, []ValidationError, error) {
	text, err := readFile(file, o.maxFileSize)
	if err != nil {
		return nil, nil, err
	}
	records, err := Parse(text)
	if err != nil {
		return nil, nil, err
	}
	return records, Validate(records), nil
}

// Import commits the previewed records as one batch.
// It is allowed after a clean preview and after a failed commit, in which
// case the held records are retried without re-reading the file.
func (o *Orchestrator) Import(ctx context.Context) error {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if !o.canImportLocked() {
		phase := o.phase
		o.mu.Unlock()
		return fmt.Errorf("import in phase %s: %w", phase, ErrInvalidPhase)
	}
	if len(o.session.errors) > 0 {
		o.mu.Unlock()
		o.notifier.NotifyError(ctx, FormatUserError(ErrImportNotAllowed))
		return ErrImportNotAllowed
	}
	if len(o.session.records) == 0 {
		o.mu.Unlock()
		o.notifier.NotifyError(ctx, FormatUserError(ErrNothingToImport))
		return ErrNothingToImport
	}

	o.busy = true
	o.phase = PhaseImporting
	gen := o.generation
	records := o.session.records
	o.mu.Unlock()

	start := time.Now()
	err := o.commit(ctx, records)

	o.mu.Lock()
	if gen != o.generation {
		o.busy = false
		o.mu.Unlock()
		return nil
	}
	o.busy = false

	if err != nil {
		msg := formatCommitError(err)
		o.session.failure = &Failure{Kind: FailureCommit, Err: err, Message: msg}
		o.phase = PhaseFailed
		o.mu.Unlock()

		o.logger.Warn("import failed",
			"records", len(records),
			"duplicate", err.Duplicate,
			"error", err.Err,
		)
		o.notifier.NotifyError(ctx, msg)
		return err
	}

	o.session = nil
	o.phase = PhaseCompleted
	o.mu.Unlock()

	o.logger.Info("import completed",
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	o.notifier.NotifySuccess(ctx, fmt.Sprintf("%d clients imported", len(records)))
	if o.hooks.OnImportComplete != nil {
		o.hooks.OnImportComplete()
	}
	return nil
}

// commit resolves the owner and performs the single batch insert.
func (o *Orchestrator) commit(ctx context.Context, records []Record) *CommitError {
	owner, err := o.identity.CurrentUserID(ctx)
	if err != nil {
		return &CommitError{Err: fmt.Errorf("resolve owner: %w", err)}
	}
	if _, err := o.store.InsertBatch(ctx, toNewClients(records, owner)); err != nil {
		return &CommitError{Duplicate: IsDuplicate(err), Err: err}
	}
	return nil
}

// canImportLocked reports whether the current phase allows a commit.
func (o *Orchestrator) canImportLocked() bool {
	if o.session == nil {
		return false
	}
	switch o.phase {
	case PhasePreviewed:
		return true
	case PhaseFailed:
		return o.session.failure != nil && o.session.failure.Kind == FailureCommit
	}
	return false
}

// Close discards the session and returns to idle. It is refused while a
// batch insert is running. A read in flight is abandoned but keeps the
// orchestrator busy until it returns.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.phase == PhaseImporting {
		o.mu.Unlock()
		return ErrBusy
	}
	o.generation++
	o.session = nil
	o.phase = PhaseIdle
	o.mu.Unlock()

	o.logger.Debug("import dialog closed")
	if o.hooks.OnClose != nil {
		o.hooks.OnClose()
	}
	return nil
}

// Snapshot is a read-only copy of the orchestrator state for hosts.
type Snapshot struct {
	Phase       Phase             `json:"phase"`
	Busy        bool              `json:"busy"`
	FileName    string            `json:"fileName,omitempty"`
	HasErrors   bool              `json:"hasErrors"`
	CanImport   bool              `json:"canImport"`
	RecordCount int               `json:"recordCount"`
	Preview     *Preview          `json:"preview,omitempty"`
	Errors      []ValidationError `json:"errors,omitempty"`
	Failure     string            `json:"failure,omitempty"`
	FailureCode string            `json:"failureCode,omitempty"`
}

// State returns a snapshot of the current phase and session.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{Phase: o.phase, Busy: o.busy}
	s := o.session
	if s == nil {
		return snap
	}
	if s.file != nil {
		snap.FileName = s.file.Name
	}
	snap.HasErrors = len(s.errors) > 0
	snap.RecordCount = len(s.records)
	snap.CanImport = !o.busy && o.canImportLocked() && !snap.HasErrors && snap.RecordCount > 0
	if s.records != nil {
		p := Project(s.records)
		snap.Preview = &p
	}
	if len(s.errors) > 0 {
		snap.Errors = append([]ValidationError(nil), s.errors...)
	}
	if s.failure != nil {
		snap.Failure = s.failure.Message
		snap.FailureCode = MapError(s.failure.Err).Code
	}
	return snap
}

// isCSV accepts a .csv extension or a text/csv media type.
func isCSV(h FileHandle) bool {
	if strings.EqualFold(filepath.Ext(h.Name), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(h.MIMEType)
	return err == nil && strings.EqualFold(mediaType, "text/csv")
}
