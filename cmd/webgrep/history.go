package main

import (
	"fmt"

	"github.com/nao1215/webgrep/internal/config"
	"github.com/nao1215/webgrep/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List recorded fetches from the history database",
		Long: `History lists the fetch records accumulated by previous grep runs:
which resources were materialized under which root URL, with type,
HTTP status, and timestamp. An optional URL argument restricts the
listing to one root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}

	db, err := history.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only session

	rootURL := ""
	if len(args) == 1 {
		rootURL = args[0]
	}

	records, err := db.List(cmd.Context(), rootURL)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "no fetch records")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %3d  %-13s  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.StatusCode,
			rec.Type,
			rec.URL,
		)
	}
	return nil
}
