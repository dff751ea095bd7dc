package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clientdesk/internal/core"
)

var templateOutput string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the client import template",
	Long:  `Writes the CSV template with the expected headers and two example clients.`,
	Args:  cobra.NoArgs,
	RunE:  runTemplate,
}

func init() {
	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	if templateOutput == "" {
		return core.WriteTemplate(cmd.OutOrStdout())
	}

	f, err := os.Create(templateOutput)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	if err := core.WriteTemplate(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close template: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", templateOutput)
	return nil
}
