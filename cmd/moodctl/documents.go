package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

var (
	uploadAsyncFlag   bool
	uploadWaitFlag    time.Duration
	uploadConfirmFlag bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a scanned page or PDF and extract its text",
	Long: `Uploads a document for OCR. By default the call blocks until text is extracted.
With --async the document is queued for the worker; --wait then watches it
until it completes or fails. --confirm saves the extracted text as an entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("stat document: %w", err)
		}

		app, err := loadApp(cmd.Context(), "cli", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		req := ports.UploadRequest{
			FileName: filepath.Base(path),
			MimeType: domain.MimeTypeForFileName(path),
			Size:     info.Size(),
			Body:     file,
		}

		var documentID string
		if uploadAsyncFlag {
			doc, err := app.Documents.Submit(cmd.Context(), app.Principal, req)
			if err != nil {
				return err
			}
			documentID = doc.ID
			if uploadWaitFlag <= 0 {
				return printJSON(cmd.OutOrStdout(), doc)
			}

			waitCtx, cancel := context.WithTimeout(cmd.Context(), uploadWaitFlag)
			defer cancel()
			outcome, err := app.Watcher.WaitForTerminal(waitCtx, app.Principal, documentID)
			if err != nil {
				return fmt.Errorf("wait for document %s: %w", documentID, err)
			}
			if err := printJSON(cmd.OutOrStdout(), outcome); err != nil {
				return err
			}
		} else {
			result, err := app.Documents.Upload(cmd.Context(), app.Principal, req)
			if err != nil {
				return err
			}
			documentID = result.DocumentID
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		}

		if !uploadConfirmFlag {
			return nil
		}
		saved, err := app.Journal.ConfirmDocument(cmd.Context(), app.Principal, documentID, "")
		if err != nil {
			return fmt.Errorf("save document %s as entry: %w", documentID, err)
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadAsyncFlag, "async", false, "queue the document for the worker instead of parsing inline")
	uploadCmd.Flags().DurationVar(&uploadWaitFlag, "wait", 0, "with --async, watch the document for up to this long")
	uploadCmd.Flags().BoolVar(&uploadConfirmFlag, "confirm", false, "save the extracted text as a journal entry")

	rootCmd.AddCommand(uploadCmd)
}
