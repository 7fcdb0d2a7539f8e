package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/engine"
	"github.com/tachyon-os/overlayctl/internal/logging"
)

// newApplyCommand creates the "apply" subcommand that runs an overlay or a
// stack against a mounted root filesystem.
func newApplyCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an overlay or a stack to a mounted root filesystem",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			var envCfg targetEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}

			overlayName := cmd.Flag("overlay").Value.String()
			stackName := cmd.Flag("stack").Value.String()
			if overlayName == "" && stackName == "" {
				return errors.New("one of --overlay or --stack is required")
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

			resolver, err := newResolverFromOpts(opts, cfg)
			if err != nil {
				return err
			}

			runner, err := newRunner(cfg, logging.NewWriter(logger, "chroot"))
			if err != nil {
				return err
			}

			jnl := openJournal(logger, envCfg.Journal, cfg)
			defer jnl.Close()

			eng := engine.New(engine.Config{
				Runner:    runner,
				Resolver:  resolver,
				Logger:    logger,
				Journal:   jnl,
				ChrootEnv: chrootEnv,
			})

			req := engine.Request{
				MountPoint: mountPoint,
				Resources:  resolveResources(cmd, envCfg, cfg),
			}

			if overlayName != "" {
				req.Name = overlayName
				logger.Info("applying overlay", "overlay", overlayName, "mount_point", mountPoint)
				return eng.ApplyOverlay(cmd.Context(), req)
			}

			req.Name = stackName
			logger.Info("applying stack", "stack", stackName, "mount_point", mountPoint)
			return eng.ApplyStack(cmd.Context(), req)
		},
	}

	cmd.Flags().StringP("mount-point", "m", "", "Chroot mount point the commands run against")
	cmd.Flags().StringP("overlay", "o", "", "Name of the overlay to apply")
	cmd.Flags().StringP("stack", "s", "", "Name of the stack to apply")
	cmd.Flags().StringP("resources", "r", "", "Directory substituted for $RESOURCES in copy paths")
	addChrootEnvFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("overlay", "stack")

	return cmd
}
