package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/webgrep/internal/pipeline"
	"github.com/nao1215/webgrep/internal/resource"
	"github.com/spf13/cobra"
)

// NewToolsCmd creates the tools command.
func NewToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List content pipeline steps and their availability",
		Long: `Tools lists the registered preprocessors and derivers together with
the resource types they apply to and whether they can run on this
system. Unavailable steps are skipped during a grep run; everything
else proceeds normally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := pipeline.NewRegistry(pipeline.WithQuietProbes(true))
			printSteps(cmd.OutOrStdout(), registry.Steps())
			return nil
		},
	}
}

// printSteps renders one line per registered pipeline step.
func printSteps(w io.Writer, steps []pipeline.StepInfo) {
	for _, info := range steps {
		status := "available"
		if !info.Availability.OK {
			status = "unavailable"
			if info.Availability.Message != "" {
				status += " (" + info.Availability.Message + ")"
			}
		}
		fmt.Fprintf(w, "%-13s %-13s %-20s %s\n", info.Name, info.Kind, typeNames(info.Types), status)
	}
}

// typeNames joins resource type names for display.
func typeNames(types []resource.Type) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}
