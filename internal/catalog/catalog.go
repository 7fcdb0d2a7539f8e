// Package catalog defines overlay and stack definitions, their on-disk
// layout, and the search-path machinery that locates and lists them.
package catalog

// On-disk layout under each search path.
const (
	// OverlaysDirName holds overlay definitions, one subdirectory per overlay.
	OverlaysDirName = "overlays"
	// StacksDirName holds stack definition files, one JSON file per stack.
	StacksDirName = "stacks"
	// OverlayFileName is the definition file inside an overlay directory.
	OverlayFileName = "overlay.json"
)

// Command type discriminators.
const (
	// CommandLocal runs a script on the host with the scratch directory as
	// its only argument.
	CommandLocal = "local"
	// CommandCopyIntoChroot copies a file or tree from the host into the
	// mounted root and applies permissions to the destination.
	CommandCopyIntoChroot = "copy-into-chroot"
	// CommandCopyFromChroot copies a file or tree out of the mounted root.
	CommandCopyFromChroot = "copy-from-chroot"
	// CommandChrootCmd runs a shell command line inside the mounted root.
	CommandChrootCmd = "chroot-cmd"
	// CommandChrootScript copies a script into the mounted root, runs it
	// there, and removes it afterwards.
	CommandChrootScript = "chroot-script"
	// CommandChrootRm recursively removes a path inside the mounted root.
	CommandChrootRm = "chroot-rm"
	// CommandInstallPackage installs a single package inside the mounted
	// root.
	CommandInstallPackage = "chroot-install-package"
)

// Step type discriminators.
const (
	// StepOverlay references an overlay by name.
	StepOverlay = "overlay"
	// StepStack references another stack by name.
	StepStack = "stack"
)

// Overlay is a named, ordered list of provisioning commands loaded from an
// overlay.json definition file.
type Overlay struct {
	// Name identifies the overlay in listings and logs.
	Name string `json:"name"`
	// Description is a human-readable summary shown by listings.
	Description string `json:"description"`
	// Commands run strictly in order; the first failure aborts the overlay.
	Commands []Command `json:"commands"`

	// Dir is the overlay directory the definition was loaded from. It
	// anchors relative script and source paths. Not part of the JSON
	// document.
	Dir string `json:"-"`
}

// Stack is a named, ordered list of steps referencing overlays and other
// stacks.
type Stack struct {
	// Name identifies the stack in listings and logs.
	Name string `json:"name"`
	// Description is a human-readable summary shown by listings.
	Description string `json:"description"`
	// Steps run strictly in order; the first failure aborts the stack.
	Steps []Step `json:"steps"`

	// Path is the definition file the stack was loaded from. Not part of
	// the JSON document.
	Path string `json:"-"`
}

// Step is a single entry in a stack: a reference to an overlay or to another
// stack.
type Step struct {
	// Type selects the referenced kind, "overlay" or "stack".
	Type string `json:"type"`
	// Name is resolved against the search paths when the step runs.
	Name string `json:"name"`
	// Enabled skips the step when explicitly false. Absent means enabled.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports whether the step should run.
func (s Step) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Command is one provisioning action inside an overlay. Type selects the
// variant; the remaining fields are interpreted per variant and ignored
// otherwise.
type Command struct {
	// Type is one of the Command constants.
	Type string `json:"type"`
	// Script names a script file for local and chroot-script commands,
	// relative to the overlay directory.
	Script string `json:"script,omitempty"`
	// Source is the copy origin for copy-into-chroot and copy-from-chroot.
	Source string `json:"source,omitempty"`
	// Destination is the copy target, or the removal target for chroot-rm.
	Destination string `json:"destination,omitempty"`
	// Cmd is the shell command line for chroot-cmd.
	Cmd string `json:"cmd,omitempty"`
	// Package is the package name for chroot-install-package.
	Package string `json:"package,omitempty"`
	// Permissions is the chmod mode applied to the destination after
	// copy-into-chroot.
	Permissions string `json:"permissions,omitempty"`
	// IgnoreErrors downgrades a chroot-cmd failure to a logged warning.
	IgnoreErrors bool `json:"ignore-errors,omitempty"`
}
