package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tachyon-os/overlayctl/internal/catalog"
)

// resourcesToken marks the spot in copy paths replaced by the shared
// resources directory.
const resourcesToken = "$RESOURCES"

// resolveHostPath maps a definition path to a host path. Paths carrying the
// resources placeholder require a resources directory; the raw token is
// never used as a filesystem path. Other relative paths anchor at the
// overlay directory, absolute ones stay as given.
func resolveHostPath(overlay *catalog.Overlay, req Request, path string) (string, error) {
	if strings.Contains(path, resourcesToken) {
		if req.Resources == "" {
			return "", &ConfigError{
				Name:   overlay.Name,
				Reason: fmt.Sprintf("path %q uses %s but no resources directory is configured", path, resourcesToken),
			}
		}
		return strings.ReplaceAll(path, resourcesToken, req.Resources), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(overlay.Dir, path), nil
}

// insideMount joins a definition path with the mount point, treating the
// path as rooted inside the mounted filesystem.
func insideMount(mount, path string) string {
	return filepath.Join(mount, strings.TrimLeft(path, "/"))
}

// commandDetail summarizes the interesting field of a command for logs and
// the journal.
func commandDetail(cmd catalog.Command) string {
	switch cmd.Type {
	case catalog.CommandLocal, catalog.CommandChrootScript:
		return cmd.Script
	case catalog.CommandCopyIntoChroot, catalog.CommandCopyFromChroot:
		return cmd.Source + " -> " + cmd.Destination
	case catalog.CommandChrootCmd:
		return cmd.Cmd
	case catalog.CommandChrootRm:
		return cmd.Destination
	case catalog.CommandInstallPackage:
		return cmd.Package
	default:
		return ""
	}
}
