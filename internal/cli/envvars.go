package cli

import (
	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from OVERLAYCTL_* env vars.
type baseEnv struct {
	// ConfigPath is the overlayctl.yaml path from OVERLAYCTL_CONFIG.
	ConfigPath string `env:"OVERLAYCTL_CONFIG"`
	// OverlayDirs is the colon-separated search path list from
	// OVERLAYCTL_OVERLAY_DIRS.
	OverlayDirs string `env:"OVERLAYCTL_OVERLAY_DIRS"`
	// LogLevel is the logging level from OVERLAYCTL_LOG_LEVEL.
	LogLevel string `env:"OVERLAYCTL_LOG_LEVEL"`
}

// targetEnv captures OVERLAYCTL_* inputs for commands that touch a mounted
// root.
type targetEnv struct {
	// MountPoint is the chroot mount point from OVERLAYCTL_MOUNT_POINT.
	MountPoint string `env:"OVERLAYCTL_MOUNT_POINT"`
	// Resources is the shared resources directory from OVERLAYCTL_RESOURCES.
	Resources string `env:"OVERLAYCTL_RESOURCES"`
	// Journal is the run history database path from OVERLAYCTL_JOURNAL.
	Journal string `env:"OVERLAYCTL_JOURNAL"`
}

// parseEnv fills target from OVERLAYCTL_* env vars via caarlos0/env.
func parseEnv(target interface{}) error {
	return envparse.Parse(target)
}
