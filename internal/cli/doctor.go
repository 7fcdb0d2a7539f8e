package cli

import (
	"github.com/spf13/cobra"
)

// newDoctorCommand creates the "doctor" subcommand that runs host preflight
// checks.
func newDoctorCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host can apply overlays",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			var envCfg targetEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}

			if err := runDoctorChecks(cmd, logger, opts, cfg, envCfg); err != nil {
				return err
			}

			logger.Info("doctor checks completed successfully")
			return nil
		},
	}

	cmd.Flags().StringP("mount-point", "m", "", "Chroot mount point to validate")

	return cmd
}
