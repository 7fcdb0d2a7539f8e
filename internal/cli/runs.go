package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/config"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

var (
	runsStatusSucceeded = color.New(color.FgGreen).SprintfFunc()
	runsStatusFailed    = color.New(color.FgRed).SprintfFunc()
	runsStatusRunning   = color.New(color.FgYellow).SprintfFunc()
	runsStatusMuted     = color.New(color.FgHiBlack).SprintfFunc()
	runsHeader          = color.New(color.FgWhite, color.Underline).SprintfFunc()
)

// newRunsCommand creates the "runs" subcommand that inspects the run history
// journal.
func newRunsCommand(opts *Options) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded apply runs from the journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var envCfg targetEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}

			path, err := config.JournalPath(envCfg.Journal, cfg)
			if err != nil {
				return err
			}
			if path == "" {
				return errors.New("run history is disabled (journal is set to none)")
			}

			jnl, err := journal.Open(path)
			if err != nil {
				return fmt.Errorf("open journal %q: %w", path, err)
			}
			defer jnl.Close()

			if runID != "" {
				events, err := jnl.Events(cmd.Context(), runID)
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), events)
				return nil
			}

			runs, err := jnl.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the event trail for one run ID")

	return cmd
}

func printRuns(out io.Writer, runs []journal.Run) {
	fmt.Fprintln(out, runsHeader("%-30s %-8s %-24s %-10s %-10s %s", "RUN ID", "KIND", "NAME", "STATUS", "DURATION", "ERROR"))
	for _, r := range runs {
		fmt.Fprintf(out, "%-30s %-8s %-24s %s %-10s %s\n",
			r.ID, r.Kind, r.Name, runStatusCell(r.Status), runDuration(r), r.Error)
	}
}

func printEvents(out io.Writer, events []journal.Event) {
	fmt.Fprintln(out, runsHeader("%-12s %-20s %-10s %-32s %s", "TIME", "OVERLAY", "STATUS", "STEP", "ERROR"))
	for _, ev := range events {
		fmt.Fprintf(out, "%-12s %-20s %s %-32s %s\n",
			ev.At.Local().Format("15:04:05"), ev.Overlay, runStatusCell(ev.Status), ev.Kind+" "+ev.Detail, ev.Error)
	}
}

// runStatusCell pads the status before coloring so ANSI codes do not break
// the column alignment. Run and event statuses share the succeeded/failed
// vocabulary.
func runStatusCell(status string) string {
	switch status {
	case journal.StatusSucceeded:
		return runsStatusSucceeded("%-10s", status)
	case journal.StatusFailed:
		return runsStatusFailed("%-10s", status)
	case journal.EventIgnored, journal.EventSkipped:
		return runsStatusMuted("%-10s", status)
	default:
		return runsStatusRunning("%-10s", status)
	}
}

func runDuration(r journal.Run) string {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
