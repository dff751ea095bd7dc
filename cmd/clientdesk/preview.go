package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clientdesk/internal/core"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the clients a CSV file would import",
	Long: `Parses and validates a client CSV file without touching the store.

Prints the first rows of the file, the total number of clients and every
validation error by row.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	notifier := consoleNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}

	// Preview never commits, so neither a store nor an owner is needed.
	orch, err := previewFile(cmd.Context(), args[0], nil, core.StaticIdentity{}, notifier)
	if err != nil {
		return err
	}

	snap := orch.State()
	printPreview(cmd.OutOrStdout(), snap)
	if snap.CanImport {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReady to import %d clients.\n", snap.RecordCount)
	}
	return nil
}
