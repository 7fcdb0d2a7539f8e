package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tachyon-os/overlayctl/internal/config"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

func runDoctorChecks(cmd *cobra.Command, logger *slog.Logger, opts *Options, cfg *config.Config, envCfg targetEnv) error {
	if logger == nil {
		logger = slog.Default()
	}

	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	elevate, err := config.ElevateArgv(cfg)
	if err != nil {
		logger.Error("doctor check failed: elevate command does not parse", "error", err)
		fail("elevate command: %v", err)
	} else if _, err := exec.LookPath(elevate[0]); err != nil {
		logger.Error("doctor check failed: elevation command not found", "command", elevate[0], "error", err)
		fail("elevation command %q not found in PATH", elevate[0])
	} else {
		logger.Info("doctor check ok", "tool", elevate[0])
	}

	for _, tool := range []string{"chroot", "cp", "chmod", "rm", "mkdir"} {
		if _, err := exec.LookPath(tool); err != nil {
			logger.Error("doctor check failed: missing required tool", "tool", tool, "error", err)
			fail("required tool %q not found in PATH", tool)
			continue
		}
		logger.Info("doctor check ok", "tool", tool)
	}

	if mountPoint := lookupMountPoint(cmd, envCfg, cfg); mountPoint == "" {
		logger.Warn("no mount point configured; apply will require --mount-point")
	} else if info, err := os.Stat(mountPoint); err != nil {
		logger.Error("doctor check failed: mount point not accessible", "mount_point", mountPoint, "error", err)
		fail("mount point %q: %v", mountPoint, err)
	} else if !info.IsDir() {
		logger.Error("doctor check failed: mount point is not a directory", "mount_point", mountPoint)
		fail("mount point %q is not a directory", mountPoint)
	} else {
		logger.Info("doctor check ok", "mount_point", mountPoint)
	}

	paths, err := config.EffectiveSearchPaths(opts.OverlayDirs, cfg)
	if err != nil {
		logger.Error("doctor check failed: search paths do not resolve", "error", err)
		fail("search paths: %v", err)
	} else {
		existing := 0
		for _, p := range paths {
			if info, err := os.Stat(p); err != nil || !info.IsDir() {
				logger.Warn("search path missing", "path", p)
				continue
			}
			logger.Info("doctor check ok", "search_path", p)
			existing++
		}
		if existing == 0 {
			fail("none of the search paths exist: %s", strings.Join(paths, ", "))
		}
	}

	if path, err := config.JournalPath(envCfg.Journal, cfg); err != nil {
		logger.Error("doctor check failed: journal path does not resolve", "error", err)
		fail("journal path: %v", err)
	} else if path == "" {
		logger.Info("run history disabled; skipping journal check")
	} else if jnl, err := journal.Open(path); err != nil {
		logger.Error("doctor check failed: journal not writable", "path", path, "error", err)
		fail("journal %q: %v", path, err)
	} else {
		jnl.Close()
		logger.Info("doctor check ok", "journal", path)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d doctor check(s) failed: %s", len(failures), strings.Join(failures, "; "))
	}

	return nil
}
