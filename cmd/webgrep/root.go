// Package main provides the entry point for the webgrep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webgrep.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webgrep",
		Short: "Grep a web page and all of its embedded resources",
		Long: `webgrep fetches a web page, mirrors its embedded resources (images,
scripts, stylesheets, inline fragments, and tool-derived artifacts such
as EXIF dumps and OCR text) into a local tree, and greps every eligible
resource for a pattern.

Resources are stored under a per-run directory; with --dir the store is
pinned and cached, so repeated runs skip the network entirely.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewGrepCmd())
	cmd.AddCommand(NewToolsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
