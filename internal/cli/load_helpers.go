package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/chroot"
	"github.com/tachyon-os/overlayctl/internal/config"
	"github.com/tachyon-os/overlayctl/internal/env"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

// loadToolConfig resolves the effective overlayctl.yaml for this invocation.
// A missing config file is not an error; flags and env vars stand on their
// own.
func loadToolConfig(cmd *cobra.Command, opts *Options) (*config.Config, error) {
	cfg, path, err := config.Resolve(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		LoggerFromContext(cmd.Context()).Debug("loaded configuration", "path", path)
	}
	return cfg, nil
}

// newResolverFromOpts builds the catalog resolver from the effective search
// paths.
func newResolverFromOpts(opts *Options, cfg *config.Config) (*catalog.Resolver, error) {
	paths, err := config.EffectiveSearchPaths(opts.OverlayDirs, cfg)
	if err != nil {
		return nil, err
	}
	return catalog.NewResolver(paths), nil
}

// lookupMountPoint picks the mount point from the first non-empty source:
// the --mount-point flag, OVERLAYCTL_MOUNT_POINT, then the config file.
func lookupMountPoint(cmd *cobra.Command, envCfg targetEnv, cfg *config.Config) string {
	if f := cmd.Flag("mount-point"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if envCfg.MountPoint != "" {
		return envCfg.MountPoint
	}
	if cfg != nil {
		return cfg.MountPoint
	}
	return ""
}

// resolveMountPoint is lookupMountPoint for commands that cannot run without
// a target.
func resolveMountPoint(cmd *cobra.Command, envCfg targetEnv, cfg *config.Config) (string, error) {
	mountPoint := lookupMountPoint(cmd, envCfg, cfg)
	if mountPoint == "" {
		return "", errors.New("mount point is required: pass --mount-point, set OVERLAYCTL_MOUNT_POINT, or configure mountPoint")
	}
	return mountPoint, nil
}

// resolveResources picks the resources directory from the same flag, env,
// config chain. Empty means no resources are available.
func resolveResources(cmd *cobra.Command, envCfg targetEnv, cfg *config.Config) string {
	if f := cmd.Flag("resources"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if envCfg.Resources != "" {
		return envCfg.Resources
	}
	if cfg != nil {
		return cfg.Resources
	}
	return ""
}

// collectChrootEnv gathers the process environment, any --env-file files,
// and --set pairs, later sources winning, and returns the pairs allowed
// through to commands inside the root.
func collectChrootEnv(cmd *cobra.Command) ([]string, error) {
	envFiles, err := cmd.Flags().GetStringArray("env-file")
	if err != nil {
		return nil, err
	}
	fileVars, err := env.LoadEnvFiles(".", envFiles)
	if err != nil {
		return nil, err
	}
	inline, err := env.ParseInlineVars(cmd.Flag("set").Value.String())
	if err != nil {
		return nil, err
	}
	merged := env.Merge(env.FromOS(), fileVars, inline)
	return env.ChrootAllowlist(merged), nil
}

// addChrootEnvFlags registers the environment flags shared by commands that
// run things inside the root.
func addChrootEnvFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("env-file", nil, "Env file merged into the chroot environment (repeatable)")
	cmd.Flags().String("set", "", "Additional chroot variables in K=V,K2=V2 format")
}

// newRunner builds the privileged command runner with the configured
// elevation prefix. Output may be nil to stream to the terminal.
func newRunner(cfg *config.Config, output io.Writer) (*chroot.ExecRunner, error) {
	elevate, err := config.ElevateArgv(cfg)
	if err != nil {
		return nil, err
	}
	return chroot.NewExecRunner(elevate, output), nil
}

// openJournal opens the run history database. History is best-effort: any
// failure is logged and a nil journal is returned, which records nothing.
func openJournal(logger *slog.Logger, override string, cfg *config.Config) *journal.Journal {
	path, err := config.JournalPath(override, cfg)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}
	if path == "" {
		return nil
	}
	jnl, err := journal.Open(path)
	if err != nil {
		logger.Warn("run history disabled", "path", path, "error", err)
		return nil
	}
	return jnl
}
