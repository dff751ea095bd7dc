package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/store"
)

// consoleNotifier prints orchestrator notifications for the user.
type consoleNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n consoleNotifier) NotifySuccess(_ context.Context, text string) {
	fmt.Fprintln(n.out, text)
}

func (n consoleNotifier) NotifyError(_ context.Context, text string) {
	fmt.Fprintln(n.errOut, "Error:", text)
}

// openFile describes the file at path for SelectFile. The file itself is
// opened again for every read.
func openFile(path string) (core.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return core.FileHandle{}, err
	}
	if info.IsDir() {
		return core.FileHandle{}, fmt.Errorf("%s is a directory", path)
	}
	return core.FileHandle{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Size:     info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// previewFile runs select and preview for path and returns the orchestrator
// holding the session.
func previewFile(ctx context.Context, path string, st core.Store, identity core.Identity, n core.Notifier) (*core.Orchestrator, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}

	orch := core.NewOrchestrator(st, identity, n,
		core.WithMaxFileSize(cfg.Import.MaxFileSize),
		core.WithLogger(logger),
	)
	if err := orch.SelectFile(ctx, file); err != nil {
		return nil, err
	}
	if err := orch.Preview(ctx); err != nil {
		return nil, err
	}
	return orch, nil
}

// printPreview writes the preview table and any validation errors.
func printPreview(w io.Writer, snap core.Snapshot) {
	if snap.Preview == nil || snap.Preview.TotalCount == 0 {
		fmt.Fprintln(w, "No clients found in file.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tFIRMENNAME\tPLZ\tSTADT")
	for i, rec := range snap.Preview.Visible {
		plz := ""
		if rec.PostalCode != nil {
			plz = strconv.Itoa(*rec.PostalCode)
		}
		city := ""
		if rec.City != nil {
			city = *rec.City
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", core.RowNumber(i), rec.CompanyName, plz, city)
	}
	tw.Flush()

	if snap.Preview.Truncated {
		fmt.Fprintf(w, "... and %d more (%d total)\n", snap.Preview.Hidden(), snap.Preview.TotalCount)
	}

	if len(snap.Errors) > 0 {
		fmt.Fprintf(w, "\n%d validation errors:\n", len(snap.Errors))
		for _, e := range snap.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// openStore opens the configured store and applies pending migrations.
func openStore(ctx context.Context) (store.Backend, error) {
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := backend.Migrate(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return backend, nil
}
