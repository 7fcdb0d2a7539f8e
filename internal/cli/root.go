// Package cli defines the command-line interface for overlayctl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/logging"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath  string
	OverlayDirs string
	LogLevel    logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{
		LogLevel: logging.LevelInfo,
	}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlayctl",
		Short: "overlayctl provisions mounted root filesystems with overlays and stacks",
		Long:  "overlayctl is a declarative provisioning tool for mounted system images: it resolves named overlays and stacks from a search path and runs their commands against a chroot mount point.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var envCfg baseEnv
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("config") && envCfg.ConfigPath != "" {
				opts.ConfigPath = envCfg.ConfigPath
			}
			if !cmd.Flags().Changed("overlay-dirs") && envCfg.OverlayDirs != "" {
				opts.OverlayDirs = envCfg.OverlayDirs
			}

			levelRaw := cmd.Flag("log-level").Value.String()
			if !cmd.Flags().Changed("log-level") && envCfg.LogLevel != "" {
				levelRaw = envCfg.LogLevel
			}
			level := logging.ParseLevel(levelRaw)
			opts.LogLevel = level
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to overlayctl.yaml (default: ./overlayctl.yaml, then ~/.config/overlayctl/overlayctl.yaml)")
	cmd.PersistentFlags().StringVar(&opts.OverlayDirs, "overlay-dirs", "", "Colon-separated directories searched for overlays and stacks")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newApplyCommand(opts),
		newPlanCommand(opts),
		newListOverlaysCommand(opts),
		newListStacksCommand(opts),
		newExecCommand(opts),
		newRunsCommand(opts),
		newDoctorCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
