package engine

import (
	"errors"
	"fmt"
	"strings"
)

// CommandError reports a failed overlay command with its position and
// variant.
type CommandError struct {
	Overlay string
	Index   int
	Type    string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("overlay %q command %d (%s): %v", e.Overlay, e.Index, e.Type, e.Err)
}

// Unwrap returns the underlying failure.
func (e *CommandError) Unwrap() error { return e.Err }

// IsCommandError returns true when err is a failed overlay command.
func IsCommandError(err error) bool {
	var target *CommandError
	return errors.As(err, &target)
}

// ConfigError reports a definition that is structurally valid but cannot run
// with the current configuration, such as a resources placeholder with no
// resources directory set.
type ConfigError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%q: %s", e.Name, e.Reason)
}

// IsConfigError returns true when err is a configuration problem.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// CleanupError reports scratch or staged-file cleanup that failed after the
// work itself already ran.
type CleanupError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying failure.
func (e *CleanupError) Unwrap() error { return e.Err }

// IsCleanupError returns true when err is a post-run cleanup failure.
func IsCleanupError(err error) bool {
	var target *CleanupError
	return errors.As(err, &target)
}

// CycleError reports a stack that directly or transitively includes itself.
type CycleError struct {
	// Path is the inclusion chain ending at the repeated stack name.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("stack cycle detected: %s", strings.Join(e.Path, " -> "))
}

// IsCycleError returns true when err is a stack inclusion cycle.
func IsCycleError(err error) bool {
	var target *CycleError
	return errors.As(err, &target)
}
