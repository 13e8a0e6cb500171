package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

var (
	entriesFromFlag  string
	entriesToFlag    string
	entriesLimitFlag int
	exportOutFlag    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text|-]",
	Short: "Analyze journal text without saving it",
	Long:  `Analyzes the given text, or stdin when the argument is - or missing, and prints the mood analysis.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := contentFromArgs(cmd, args)
		if err != nil {
			return err
		}
		app, err := loadApp(cmd.Context(), "cli", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		outcome, err := app.Journal.Preview(cmd.Context(), content)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), outcome)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save [text]",
	Short: "Analyze journal text and save it as an entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := contentFromArgs(cmd, args)
		if err != nil {
			return err
		}
		app, err := loadApp(cmd.Context(), "cli", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		saved, err := app.Journal.CreateFromText(cmd.Context(), app.Principal, content)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List saved entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context(), "cli", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		filter, err := entryFilterFromFlags(entriesFromFlag, entriesToFlag, entriesLimitFlag, app.Insights.Location())
		if err != nil {
			return err
		}
		entries, err := app.Journal.ListEntries(cmd.Context(), app.Principal, filter)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), entries)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all entries and yearly trends to an xlsx workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context(), "cli", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		out, err := os.Create(exportOutFlag)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		if err := app.Insights.Export(cmd.Context(), app.Principal, out); err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", exportOutFlag)
		return nil
	},
}

func contentFromArgs(cmd *cobra.Command, args []string) (string, error) {
	var content string
	if len(args) == 1 && args[0] != "-" {
		content = args[0]
	} else {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		content = string(raw)
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("journal text is required")
	}
	return content, nil
}

func init() {
	entriesCmd.Flags().StringVar(&entriesFromFlag, "from", "", "inclusive start date (YYYY-MM-DD)")
	entriesCmd.Flags().StringVar(&entriesToFlag, "to", "", "inclusive end date (YYYY-MM-DD)")
	entriesCmd.Flags().IntVar(&entriesLimitFlag, "limit", 20, "maximum number of entries")
	exportCmd.Flags().StringVarP(&exportOutFlag, "out", "o", "mood-journal.xlsx", "output file")

	rootCmd.AddCommand(analyzeCmd, saveCmd, entriesCmd, exportCmd)
}

// entryFilterFromFlags reads --from/--to as dates in loc; --to is inclusive.
func entryFilterFromFlags(from, to string, limit int, loc *time.Location) (domain.EntryFilter, error) {
	filter := domain.EntryFilter{Limit: limit}
	if from != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid --from: %w", err)
		}
		filter.From = parsed
	}
	if to != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid --to: %w", err)
		}
		filter.To = parsed.AddDate(0, 0, 1)
	}
	return filter, nil
}
