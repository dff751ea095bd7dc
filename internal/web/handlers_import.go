package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/logging"
	"github.com/JonMunkholm/clientdesk/internal/web/templates"
)

const (
	// multipartOverhead is allowed on top of the file size for form framing.
	multipartOverhead = 64 << 10
	// multipartMemory is kept in memory while parsing; the rest spills to disk.
	multipartMemory = 1 << 20
)

// dialogResponse is the JSON body of every import dialog endpoint.
type dialogResponse struct {
	ID uuid.UUID `json:"id"`
	core.Snapshot
	Notifications []Notification `json:"notifications"`
	Error         *ErrorResponse `json:"error,omitempty"`
}

// handleOpenImport opens a dialog. A multipart "file" field selects it
// right away.
func (s *Server) handleOpenImport(w http.ResponseWriter, r *http.Request) {
	var file *core.FileHandle
	if isMultipart(r) {
		fh, err := s.readUpload(w, r)
		if err != nil && !errors.Is(err, core.ErrNoFile) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		file = fh
	}

	d := s.sessions.Open(r.Context())

	var err error
	if file != nil {
		err = d.orch.SelectFile(r.Context(), *file)
	}
	s.respondDialog(w, r, d, http.StatusCreated, err)
}

// handleGetImport returns the dialog state and pending notifications.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDialog(w, r)
	if !ok {
		return
	}
	s.respondDialog(w, r, d, http.StatusOK, nil)
}

// handleSelectFile replaces the dialog's file with the uploaded one.
func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDialog(w, r)
	if !ok {
		return
	}

	file, err := s.readUpload(w, r)
	if err == nil {
		err = d.orch.SelectFile(r.Context(), *file)
	}
	s.respondDialog(w, r, d, http.StatusOK, err)
}

// handlePreview parses and validates the selected file.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDialog(w, r)
	if !ok {
		return
	}
	err := d.orch.Preview(detach(r))
	s.respondDialog(w, r, d, http.StatusOK, err)
}

// handleCommit inserts the previewed records as one batch.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDialog(w, r)
	if !ok {
		return
	}
	err := d.orch.Import(detach(r))
	s.respondDialog(w, r, d, http.StatusOK, err)
}

// handleCloseImport cancels the dialog and discards its session.
func (s *Server) handleCloseImport(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDialog(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Close(d); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	// HTMX swaps the dialog out with the empty body.
	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupDialog resolves {importID} for the current user, writing a 404 if
// it does not exist.
func (s *Server) lookupDialog(w http.ResponseWriter, r *http.Request) (*dialog, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("import id %q: %w", chi.URLParam(r, "importID"), core.ErrSessionNotFound), http.StatusNotFound)
		return nil, false
	}
	d, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return d, true
}

// readUpload reads the multipart "file" field into memory. The body is
// bounded by the configured maximum file size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*core.FileHandle, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			return nil, core.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, core.ErrNoFile
		}
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, core.ErrFileTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &core.ReadError{Name: header.Filename, Err: err}
	}

	return &core.FileHandle{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}

// respondDialog writes the dialog state with the notifications queued since
// the last response. For HTMX the dialog partial is rendered with status 200
// so the swap happens even on failure.
func (s *Server) respondDialog(w http.ResponseWriter, r *http.Request, d *dialog, okStatus int, opErr error) {
	status := okStatus
	var errResp *ErrorResponse
	if opErr != nil {
		status = statusFor(opErr)
		ue := core.NewUserError(opErr)
		logRequestError(r, ue, status, "import_id", d.id)
		errResp = newErrorResponse(ue)
	}

	snap := d.orch.State()
	notes := d.flash.Drain()

	if isHTMX(r) {
		// Errors that were not notified (busy, wrong phase, bad form) still
		// need to show up in the dialog.
		if opErr != nil && !hasErrorNotification(notes) {
			notes = append(notes, Notification{Level: "error", Text: core.FormatUserError(opErr)})
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		view := templates.DialogView{ID: d.id.String(), State: snap, Flashes: toFlashes(notes)}
		if err := templates.ImportDialog(view).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import dialog", "error", err)
		}
		return
	}

	writeJSONStatus(w, status, dialogResponse{
		ID:            d.id,
		Snapshot:      snap,
		Notifications: notes,
		Error:         errResp,
	})
}

func hasErrorNotification(notes []Notification) bool {
	for _, n := range notes {
		if n.Level == "error" {
			return true
		}
	}
	return false
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
