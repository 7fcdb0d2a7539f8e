package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/config"
)

var (
	listName = color.New(color.FgCyan, color.Bold).SprintFunc()
	listPath = color.New(color.FgHiBlack).SprintFunc()
)

// newListOverlaysCommand creates the "list-overlays" subcommand that scans
// the search paths and prints every valid overlay.
func newListOverlaysCommand(opts *Options) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list-overlays",
		Short: "List overlays found on the search paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}
			paths, err := config.EffectiveSearchPaths(opts.OverlayDirs, cfg)
			if err != nil {
				return err
			}

			overlays, problems := catalog.DiscoverOverlays(paths)
			for _, p := range problems {
				logger.Warn("skipping unreadable overlay definition", "path", p.Path, "error", p.Err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available overlays:")
			for _, o := range overlays {
				fmt.Fprintf(out, "- %s: %s\n", listName(o.Name), listPath(o.Dir))
				if verbose {
					printOverlayDetail(out, o)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show each overlay's commands and script contents")

	return cmd
}

// newListStacksCommand creates the "list-stacks" subcommand that scans the
// search paths and prints every valid stack.
func newListStacksCommand(opts *Options) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list-stacks",
		Short: "List stacks found on the search paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}
			paths, err := config.EffectiveSearchPaths(opts.OverlayDirs, cfg)
			if err != nil {
				return err
			}

			stacks, problems := catalog.DiscoverStacks(paths)
			for _, p := range problems {
				logger.Warn("skipping unreadable stack definition", "path", p.Path, "error", p.Err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available stacks:")
			for _, s := range stacks {
				fmt.Fprintf(out, "- %s: %s\n", listName(s.Name), listPath(s.Path))
				if verbose {
					printStackDetail(out, s)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show each stack's steps")

	return cmd
}

// printOverlayDetail renders an overlay's normalized definition and command
// list, with script contents inlined for script-backed commands.
func printOverlayDetail(out io.Writer, o *catalog.Overlay) {
	if o.Description != "" {
		fmt.Fprintf(out, "  %s\n", o.Description)
	}
	printDefinition(out, o)
	for i, c := range o.Commands {
		fmt.Fprintf(out, "  %d. %s: %s\n", i+1, c.Type, commandSummary(c))
		if c.Type == catalog.CommandLocal || c.Type == catalog.CommandChrootScript {
			printScript(out, filepath.Join(o.Dir, c.Script))
		}
	}
}

// printStackDetail renders a stack's normalized definition and steps.
func printStackDetail(out io.Writer, s *catalog.Stack) {
	if s.Description != "" {
		fmt.Fprintf(out, "  %s\n", s.Description)
	}
	printDefinition(out, s)
	for i, step := range s.Steps {
		suffix := ""
		if !step.IsEnabled() {
			suffix = " (disabled)"
		}
		fmt.Fprintf(out, "  %d. %s: %s%s\n", i+1, step.Type, step.Name, suffix)
	}
}

// printDefinition re-encodes a loaded definition as indented JSON. This is
// the normalized form execution sees, with comments and trailing commas
// stripped.
func printDefinition(out io.Writer, v any) {
	data, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(out, "  %s\n", data)
}

// printScript dumps a script file indented under its command line. Unreadable
// scripts are noted instead of failing the listing.
func printScript(out io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "     (script unreadable: %v)\n", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(out, "     | %s\n", line)
	}
}

// commandSummary condenses one command into a single listing line.
func commandSummary(c catalog.Command) string {
	switch c.Type {
	case catalog.CommandLocal, catalog.CommandChrootScript:
		return c.Script
	case catalog.CommandCopyIntoChroot:
		summary := fmt.Sprintf("%s -> %s", c.Source, c.Destination)
		if c.Permissions != "" {
			summary += fmt.Sprintf(" (mode %s)", c.Permissions)
		}
		return summary
	case catalog.CommandCopyFromChroot:
		return fmt.Sprintf("%s -> %s", c.Source, c.Destination)
	case catalog.CommandChrootCmd:
		return c.Cmd
	case catalog.CommandChrootRm:
		return c.Destination
	case catalog.CommandInstallPackage:
		return c.Package
	default:
		return c.Type
	}
}
