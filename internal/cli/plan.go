package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/engine"
)

var planDisabled = color.New(color.FgYellow).SprintFunc()

// newPlanCommand creates the "plan" subcommand. It expands an overlay or a
// stack into the ordered list of steps that apply would run, without touching
// any mount point.
func newPlanCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the steps that applying an overlay or stack would run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			overlayName := cmd.Flag("overlay").Value.String()
			stackName := cmd.Flag("stack").Value.String()
			if overlayName == "" && stackName == "" {
				return errors.New("one of --overlay or --stack is required")
			}

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}

			resolver, err := newResolverFromOpts(opts, cfg)
			if err != nil {
				return err
			}

			// The plan engine only resolves and expands definitions; it
			// never execs, so no runner or journal is wired in.
			eng := engine.New(engine.Config{
				Resolver: resolver,
				Logger:   logger,
			})

			var steps []engine.PlanStep
			if overlayName != "" {
				steps, err = eng.PlanOverlay(overlayName)
			} else {
				steps, err = eng.PlanStack(stackName)
			}
			if err != nil {
				return err
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			printPlan(cmd.OutOrStdout(), steps, verbose)
			return nil
		},
	}

	cmd.Flags().StringP("overlay", "o", "", "Name of the overlay to preview")
	cmd.Flags().StringP("stack", "s", "", "Name of the stack to preview")
	cmd.Flags().BoolP("verbose", "v", false, "Show the commands each overlay step would run")
	cmd.MarkFlagsMutuallyExclusive("overlay", "stack")

	return cmd
}

func printPlan(out io.Writer, steps []engine.PlanStep, verbose bool) {
	if len(steps) == 0 {
		fmt.Fprintln(out, "Nothing to apply.")
		return
	}

	fmt.Fprintln(out, "Planned steps:")
	for i, step := range steps {
		line := fmt.Sprintf("%3d. %s", i+1, listName(step.Name))
		if step.From != "" {
			line += listPath(fmt.Sprintf(" (from stack %s)", step.From))
		}
		if step.Disabled {
			line += planDisabled(" [disabled]")
		}
		fmt.Fprintln(out, line)

		if !verbose || step.Disabled {
			continue
		}
		for _, c := range step.Commands {
			fmt.Fprintf(out, "       - %s: %s\n", c.Type, commandSummary(c))
		}
	}
}
