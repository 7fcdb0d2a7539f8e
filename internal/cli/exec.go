package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// newExecCommand creates the "exec" subcommand that runs an ad-hoc shell
// command inside the mounted root, with the same environment treatment as
// overlay commands.
func newExecCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec -- COMMAND...",
		Short: "Run a shell command inside the mounted root",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			var envCfg targetEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}

			cfg, err := loadToolConfig(cmd, opts)
			if err != nil {
				return err
			}

			mountPoint, err := resolveMountPoint(cmd, envCfg, cfg)
			if err != nil {
				return err
			}

			chrootEnv, err := collectChrootEnv(cmd)
			if err != nil {
				return err
			}

			runner, err := newRunner(cfg, nil)
			if err != nil {
				return err
			}

			command := strings.Join(args, " ")
			logger.Info("entering root", "mount_point", mountPoint, "command", command)
			return runner.Exec(cmd.Context(), mountPoint, chrootEnv, command)
		},
	}

	cmd.Flags().StringP("mount-point", "m", "", "Chroot mount point to enter")
	addChrootEnvFlags(cmd)

	return cmd
}
