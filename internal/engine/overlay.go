package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

// chrootScriptPath is the fixed location scripts are staged at inside the
// root.
const chrootScriptPath = "/tmp/chroot-script"

func (e *Engine) applyOverlayByName(ctx context.Context, runID string, req Request, name string) error {
	dir, err := e.resolver.OverlayDir(name)
	if err != nil {
		return err
	}
	overlay, err := catalog.LoadOverlay(dir)
	if err != nil {
		return err
	}
	return e.applyOverlay(ctx, runID, req, overlay)
}

// applyOverlay runs the overlay's commands in order against a fresh scratch
// directory. The scratch directory is removed however the overlay ends.
func (e *Engine) applyOverlay(ctx context.Context, runID string, req Request, overlay *catalog.Overlay) (err error) {
	e.logger.Info("applying overlay", "overlay", overlay.Name, "commands", len(overlay.Commands), "dir", overlay.Dir)
	e.recordEvent(ctx, runID, journal.Event{Overlay: overlay.Name, Kind: "overlay", Status: journal.EventStarted})

	scratch, err := os.MkdirTemp("", "overlayctl-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			if err == nil {
				err = &CleanupError{Path: scratch, Err: rmErr}
			} else {
				e.logger.Warn("scratch cleanup failed", "path", scratch, "error", rmErr)
			}
		}
		status, msg := journal.EventSucceeded, ""
		if err != nil {
			status, msg = journal.EventFailed, err.Error()
		}
		e.recordEvent(ctx, runID, journal.Event{Overlay: overlay.Name, Kind: "overlay", Status: status, Error: msg})
	}()

	for i, cmd := range overlay.Commands {
		if err = e.runCommand(ctx, runID, req, overlay, i, cmd, scratch); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runCommand(ctx context.Context, runID string, req Request, overlay *catalog.Overlay, index int, cmd catalog.Command, scratch string) error {
	detail := commandDetail(cmd)
	e.logger.Info("running command", "overlay", overlay.Name, "type", cmd.Type, "detail", detail)

	var err error
	switch cmd.Type {
	case catalog.CommandLocal:
		err = e.runLocal(ctx, overlay, cmd, scratch)
	case catalog.CommandCopyIntoChroot:
		err = e.copyIntoChroot(ctx, req, overlay, cmd)
	case catalog.CommandCopyFromChroot:
		err = e.copyFromChroot(ctx, req, overlay, cmd)
	case catalog.CommandChrootCmd:
		err = e.runner.Exec(ctx, req.MountPoint, e.chrootEnv, cmd.Cmd)
	case catalog.CommandChrootScript:
		err = e.chrootScript(ctx, req, overlay, cmd)
	case catalog.CommandChrootRm:
		err = e.runner.RemoveTree(ctx, insideMount(req.MountPoint, cmd.Destination))
	case catalog.CommandInstallPackage:
		err = e.runner.InstallPackage(ctx, req.MountPoint, cmd.Package)
	default:
		err = fmt.Errorf("unknown command type %q", cmd.Type)
	}

	if err != nil && cmd.Type == catalog.CommandChrootCmd && cmd.IgnoreErrors {
		e.logger.Warn("command failed, continuing", "overlay", overlay.Name, "type", cmd.Type, "detail", detail, "error", err)
		e.recordEvent(ctx, runID, journal.Event{Overlay: overlay.Name, Kind: cmd.Type, Detail: detail, Status: journal.EventIgnored, Error: err.Error()})
		return nil
	}
	if err != nil {
		e.recordEvent(ctx, runID, journal.Event{Overlay: overlay.Name, Kind: cmd.Type, Detail: detail, Status: journal.EventFailed, Error: err.Error()})
		return &CommandError{Overlay: overlay.Name, Index: index, Type: cmd.Type, Err: err}
	}
	e.recordEvent(ctx, runID, journal.Event{Overlay: overlay.Name, Kind: cmd.Type, Detail: detail, Status: journal.EventSucceeded})
	return nil
}

func (e *Engine) runLocal(ctx context.Context, overlay *catalog.Overlay, cmd catalog.Command, scratch string) error {
	script := filepath.Join(overlay.Dir, cmd.Script)
	return e.runner.RunScript(ctx, script, scratch)
}

func (e *Engine) copyIntoChroot(ctx context.Context, req Request, overlay *catalog.Overlay, cmd catalog.Command) error {
	if cmd.Permissions == "" {
		return &ConfigError{Name: overlay.Name, Reason: `copy-into-chroot requires "permissions"`}
	}

	src, err := resolveHostPath(overlay, req, cmd.Source)
	if err != nil {
		return err
	}
	dst := insideMount(req.MountPoint, cmd.Destination)

	if err := e.runner.EnsureDir(ctx, filepath.Dir(dst)); err != nil {
		return err
	}
	if err := e.runner.CopyTree(ctx, src, dst); err != nil {
		return err
	}
	return e.runner.SetMode(ctx, cmd.Permissions, dst)
}

func (e *Engine) copyFromChroot(ctx context.Context, req Request, overlay *catalog.Overlay, cmd catalog.Command) error {
	src := insideMount(req.MountPoint, cmd.Source)
	dst, err := resolveHostPath(overlay, req, cmd.Destination)
	if err != nil {
		return err
	}

	if err := e.runner.EnsureDir(ctx, filepath.Dir(dst)); err != nil {
		return err
	}
	return e.runner.CopyTree(ctx, src, dst)
}

// chrootScript stages the script at a fixed path inside the root, runs it
// there, and insists on cleaning the staged copy up afterwards. A script
// that removes its own staged copy fails the overlay.
func (e *Engine) chrootScript(ctx context.Context, req Request, overlay *catalog.Overlay, cmd catalog.Command) error {
	script := filepath.Join(overlay.Dir, cmd.Script)
	staged := insideMount(req.MountPoint, chrootScriptPath)

	if err := e.runner.EnsureDir(ctx, filepath.Dir(staged)); err != nil {
		return err
	}
	if err := e.runner.CopyFile(ctx, script, staged); err != nil {
		return err
	}
	if err := e.runner.SetMode(ctx, "+x", staged); err != nil {
		return err
	}
	if err := e.runner.Exec(ctx, req.MountPoint, e.chrootEnv, chrootScriptPath); err != nil {
		return err
	}

	present, err := e.runner.PathExists(staged)
	if err != nil {
		return &CleanupError{Path: staged, Err: err}
	}
	if !present {
		return &CleanupError{Path: staged, Err: errors.New("staged script missing after run")}
	}
	if err := e.runner.RemoveFile(ctx, staged); err != nil {
		return &CleanupError{Path: staged, Err: err}
	}
	return nil
}
