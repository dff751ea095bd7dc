// Command clientdesk previews and imports client CSV files from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/logging"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clientdesk",
	Short: "clientdesk - bulk client import",
	Long: `clientdesk reads client lists exported as CSV, shows what would be
imported and writes the clients to the configured store in one batch.

The store is selected with STORE_DRIVER (sqlite or postgres). Settings are
read from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env never overrides variables that are already set
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return err
		}
		level := c.Logging.Level
		if verbose {
			level = "debug"
		}
		cfg = c
		logger = logging.New(cmd.ErrOrStderr(), level, c.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
