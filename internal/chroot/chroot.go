// Package chroot provides low-level integration with the mounted root via
// elevated system commands.
package chroot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// nonInteractiveEnv keeps package tooling inside the root from prompting.
const nonInteractiveEnv = "DEBIAN_FRONTEND=noninteractive"

// Runner is the set of privileged host and in-root primitives overlay
// commands are built from. Implementations decide how elevation happens.
type Runner interface {
	// CopyTree recursively copies src to dst with elevation.
	CopyTree(ctx context.Context, src, dst string) error
	// CopyFile copies a single file with elevation.
	CopyFile(ctx context.Context, src, dst string) error
	// SetMode applies a chmod mode string to path with elevation.
	SetMode(ctx context.Context, mode, path string) error
	// RemoveTree removes path recursively with elevation.
	RemoveTree(ctx context.Context, path string) error
	// RemoveFile removes a single file with elevation.
	RemoveFile(ctx context.Context, path string) error
	// EnsureDir creates path and any missing parents with elevation.
	EnsureDir(ctx context.Context, path string) error
	// Exec runs a shell command line inside the root mounted at mount.
	// extraEnv entries are KEY=VALUE pairs exported to the command.
	Exec(ctx context.Context, mount string, extraEnv []string, command string) error
	// InstallPackage installs a single package inside the root mounted at
	// mount.
	InstallPackage(ctx context.Context, mount, pkg string) error
	// RunScript runs a host-side executable with the given arguments. The
	// script's stderr is captured and surfaced in the returned error.
	RunScript(ctx context.Context, script string, args ...string) error
	// PathExists reports whether path exists in the host view.
	PathExists(path string) (bool, error)
}

// ExecRunner implements Runner by spawning system commands, prefixing
// privileged ones with a configurable elevation command.
type ExecRunner struct {
	// Elevate is the argv prefix for privileged commands, typically
	// ["sudo"].
	Elevate []string
	// Output receives subprocess stdout and stderr. The process streams are
	// used when nil.
	Output io.Writer
}

// NewExecRunner constructs an ExecRunner. An empty elevation prefix defaults
// to sudo.
func NewExecRunner(elevate []string, output io.Writer) *ExecRunner {
	if len(elevate) == 0 {
		elevate = []string{"sudo"}
	}
	return &ExecRunner{Elevate: elevate, Output: output}
}

// CopyTree recursively copies src to dst.
func (r *ExecRunner) CopyTree(ctx context.Context, src, dst string) error {
	return r.runElevated(ctx, "cp", "-r", src, dst)
}

// CopyFile copies a single file from src to dst.
func (r *ExecRunner) CopyFile(ctx context.Context, src, dst string) error {
	return r.runElevated(ctx, "cp", src, dst)
}

// SetMode applies a chmod mode string such as "644" or "+x" to path.
func (r *ExecRunner) SetMode(ctx context.Context, mode, path string) error {
	return r.runElevated(ctx, "chmod", mode, path)
}

// RemoveTree removes path recursively, succeeding even when it is absent.
func (r *ExecRunner) RemoveTree(ctx context.Context, path string) error {
	return r.runElevated(ctx, "rm", "-rf", path)
}

// RemoveFile removes a single file.
func (r *ExecRunner) RemoveFile(ctx context.Context, path string) error {
	return r.runElevated(ctx, "rm", path)
}

// EnsureDir creates path and any missing parents.
func (r *ExecRunner) EnsureDir(ctx context.Context, path string) error {
	return r.runElevated(ctx, "mkdir", "-p", path)
}

// Exec enters the root at mount and runs command through a login shell with
// the non-interactive frontend plus the given extra environment.
func (r *ExecRunner) Exec(ctx context.Context, mount string, extraEnv []string, command string) error {
	return r.runElevated(ctx, enterRootArgs(mount, extraEnv, command)...)
}

// InstallPackage installs pkg inside the root at mount without recommended
// extras.
func (r *ExecRunner) InstallPackage(ctx context.Context, mount, pkg string) error {
	return r.runElevated(ctx, installArgs(mount, pkg)...)
}

// RunScript executes a host-side script. Stdout streams to Output; stderr is
// additionally captured so a failure reports what the script printed.
func (r *ExecRunner) RunScript(ctx context.Context, script string, args ...string) error {
	cmd := exec.CommandContext(ctx, script, args...)
	cmd.Stdout = r.stdout()

	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(r.stderr(), &stderr)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", script, err, msg)
		}
		return fmt.Errorf("%s failed: %w", script, err)
	}
	return nil
}

// PathExists reports whether path exists in the host view of the filesystem.
func (r *ExecRunner) PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (r *ExecRunner) runElevated(ctx context.Context, args ...string) error {
	argv := r.elevatedArgv(args...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) elevatedArgv(args ...string) []string {
	argv := make([]string, 0, len(r.Elevate)+len(args))
	argv = append(argv, r.Elevate...)
	argv = append(argv, args...)
	return argv
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Output != nil {
		return r.Output
	}
	return os.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Output != nil {
		return r.Output
	}
	return os.Stderr
}

func enterRootArgs(mount string, extraEnv []string, command string) []string {
	args := []string{"chroot", mount, "/usr/bin/env", nonInteractiveEnv}
	args = append(args, extraEnv...)
	args = append(args, "/bin/bash", "-lc", command)
	return args
}

func installArgs(mount, pkg string) []string {
	install := fmt.Sprintf("apt-get install --no-install-recommends -y %s", pkg)
	return []string{"chroot", mount, "/bin/bash", "-c", install}
}
