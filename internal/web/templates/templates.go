// Package templates renders the HTMX partials for the import dialog.
//
// Components are built with templ.ComponentFunc and escape all user data
// with templ.EscapeString.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/clientdesk/internal/core"
)

// Flash is one notification shown at the top of the dialog.
type Flash struct {
	Level string // "success" or "error"
	Text  string
}

// DialogView is everything ImportDialog needs to render.
type DialogView struct {
	ID      string
	State   core.Snapshot
	Flashes []Flash
}

// ErrorAlert renders a coded error message with its suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="alert-action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<p class="alert-code">Code: `)
			h.text(code)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// ImportDialog renders the whole dialog body. HTMX requests from inside the
// dialog swap it in place.
func ImportDialog(v DialogView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		base := "/api/imports/" + v.ID
		st := v.State

		h.raw(`<div id="import-dialog" class="import-dialog" hx-target="this" hx-swap="outerHTML" data-phase="`)
		h.text(string(st.Phase))
		h.raw(`">`)

		for _, f := range v.Flashes {
			h.raw(`<div class="flash flash-`)
			h.text(f.Level)
			h.raw(`" role="status">`)
			h.text(f.Text)
			h.raw(`</div>`)
		}

		if st.Phase != core.PhaseImporting {
			h.raw(`<form class="file-select" hx-put="`)
			h.text(base + "/file")
			h.raw(`" hx-encoding="multipart/form-data" hx-trigger="change">`)
			h.raw(`<input type="file" name="file" accept=".csv,text/csv"></form>`)
		}
		if st.FileName != "" {
			h.raw(`<p class="file-name">`)
			h.text(st.FileName)
			h.raw(`</p>`)
		}

		if st.Failure != "" {
			h.raw(`<div class="alert alert-error" role="alert">`)
			h.text(st.Failure)
			h.raw(`</div>`)
		}

		if st.Preview != nil {
			renderPreview(h, *st.Preview, st.Errors)
		}
		if len(st.Errors) > 0 {
			renderErrors(h, st.Errors)
		}

		renderActions(h, base, st)
		h.raw(`</div>`)
		return h.err
	})
}

func renderPreview(h *html, p core.Preview, errs []core.ValidationError) {
	if p.TotalCount == 0 {
		h.raw(`<p class="preview-empty">No data rows found.</p>`)
		return
	}

	byRow := core.ErrorsByRow(errs)
	h.raw(`<table class="preview"><thead><tr><th>Row</th><th>`)
	h.text(core.HeaderCompanyName)
	h.raw(`</th><th>`)
	h.text(core.HeaderPostalCode)
	h.raw(`</th><th>`)
	h.text(core.HeaderCity)
	h.raw(`</th></tr></thead><tbody>`)

	for i, rec := range p.Visible {
		row := core.RowNumber(i)
		if len(byRow[row]) > 0 {
			h.raw(`<tr class="row-invalid">`)
		} else {
			h.raw(`<tr>`)
		}
		h.raw(`<td>`)
		h.text(strconv.Itoa(row))
		h.raw(`</td><td>`)
		h.text(rec.CompanyName)
		h.raw(`</td><td>`)
		if rec.PostalCode != nil {
			h.text(strconv.Itoa(*rec.PostalCode))
		}
		h.raw(`</td><td>`)
		if rec.City != nil {
			h.text(*rec.City)
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)

	if p.Truncated {
		h.raw(`<p class="preview-more">`)
		h.text(fmt.Sprintf("and %d more (%d total)", p.Hidden(), p.TotalCount))
		h.raw(`</p>`)
	}
}

func renderErrors(h *html, errs []core.ValidationError) {
	h.raw(`<ul class="validation-errors">`)
	for _, e := range errs {
		h.raw(`<li>`)
		h.text(e.Error())
		h.raw(`</li>`)
	}
	h.raw(`</ul>`)
}

func renderActions(h *html, base string, st core.Snapshot) {
	h.raw(`<div class="actions">`)
	switch st.Phase {
	case core.PhaseFileSelected, core.PhasePreviewed, core.PhaseFailed:
		h.raw(`<button type="button" hx-post="`)
		h.text(base + "/preview")
		h.raw(`">Preview</button>`)
	}
	if st.CanImport {
		h.raw(`<button type="button" class="primary" hx-post="`)
		h.text(base + "/commit")
		h.raw(`">`)
		h.text(fmt.Sprintf("Import %d clients", st.RecordCount))
		h.raw(`</button>`)
	}
	if st.Phase != core.PhaseImporting {
		h.raw(`<button type="button" hx-delete="`)
		h.text(base)
		h.raw(`">Close</button>`)
	}
	h.raw(`</div>`)
}

// html writes raw markup and escaped text, keeping the first error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}
