package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/mood-builder/internal/bootstrap"
	"github.com/kirillkom/mood-builder/internal/config"
	"github.com/kirillkom/mood-builder/internal/infrastructure/auth"
	"github.com/kirillkom/mood-builder/internal/observability/logging"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "moodctl",
	Short:         "Operate the mood journal from the command line.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := bootstrap.Migrate(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash suitable for AUTH_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, hashPasswordCmd)
}

// loadApp builds the application for one command. Logs go to logOut so
// command output on stdout stays machine readable.
func loadApp(ctx context.Context, service string, logOut io.Writer) (*bootstrap.App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(logOut, service, cfg.LogLevel)
	slog.SetDefault(logger)
	return bootstrap.New(ctx, cfg, bootstrap.Options{Service: service, Logger: logger})
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
