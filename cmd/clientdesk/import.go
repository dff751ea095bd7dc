package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clientdesk/internal/core"
)

var (
	importOwner string
	importYes   bool
)

var errImportAborted = errors.New("import aborted")

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import the clients of a CSV file",
	Long: `Previews the file, asks for confirmation and inserts all clients as one
batch owned by --owner. Nothing is written when any row fails validation or
when the store rejects the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "User id (UUID) that owns the imported clients")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Import without asking for confirmation")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	owner, err := uuid.Parse(importOwner)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}

	ctx := cmd.Context()
	backend, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	out := cmd.OutOrStdout()
	notifier := consoleNotifier{out: out, errOut: cmd.ErrOrStderr()}

	orch, err := previewFile(ctx, args[0], backend, core.StaticIdentity(owner), notifier)
	if err != nil {
		return err
	}

	snap := orch.State()
	printPreview(out, snap)
	if !snap.CanImport {
		if snap.HasErrors {
			return core.ErrImportNotAllowed
		}
		return core.ErrNothingToImport
	}

	if !importYes {
		fmt.Fprintf(out, "\nImport %d clients? [y/N] ", snap.RecordCount)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes", "j", "ja":
		default:
			return errImportAborted
		}
	}

	return orch.Import(ctx)
}
