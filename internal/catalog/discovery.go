package catalog

import (
	"os"
	"path/filepath"
	"strings"
)

// Problem is a definition that could not be loaded during a scan. Scans
// continue past problems so one broken definition cannot hide the rest.
type Problem struct {
	// Path is the overlay directory or stack file that failed.
	Path string
	// Err is the load or validation failure.
	Err error
}

// DiscoverOverlays scans every search path for overlay definitions and
// returns the valid ones in scan order, deduplicated by the name field with
// the first occurrence winning. Broken definitions are returned as problems
// without stopping the scan.
func DiscoverOverlays(paths []string) ([]*Overlay, []Problem) {
	var (
		overlays []*Overlay
		problems []Problem
		seen     = make(map[string]bool)
	)

	for _, root := range paths {
		base := filepath.Join(root, OverlaysDirName)
		entries, err := os.ReadDir(base)
		if err != nil {
			if !os.IsNotExist(err) {
				problems = append(problems, Problem{Path: base, Err: err})
			}
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(base, entry.Name())
			if !fileExists(filepath.Join(dir, OverlayFileName)) {
				continue
			}
			overlay, err := LoadOverlay(dir)
			if err != nil {
				problems = append(problems, Problem{Path: dir, Err: err})
				continue
			}
			if seen[overlay.Name] {
				continue
			}
			seen[overlay.Name] = true
			overlays = append(overlays, overlay)
		}
	}
	return overlays, problems
}

// DiscoverStacks scans every search path for stack definitions and returns
// the valid ones in scan order, deduplicated by name with the first
// occurrence winning. Broken definitions are returned as problems without
// stopping the scan.
func DiscoverStacks(paths []string) ([]*Stack, []Problem) {
	var (
		stacks   []*Stack
		problems []Problem
		seen     = make(map[string]bool)
	)

	for _, root := range paths {
		base := filepath.Join(root, StacksDirName)
		entries, err := os.ReadDir(base)
		if err != nil {
			if !os.IsNotExist(err) {
				problems = append(problems, Problem{Path: base, Err: err})
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			path := filepath.Join(base, entry.Name())
			stack, err := LoadStack(path)
			if err != nil {
				problems = append(problems, Problem{Path: path, Err: err})
				continue
			}
			if seen[stack.Name] {
				continue
			}
			seen[stack.Name] = true
			stacks = append(stacks, stack)
		}
	}
	return stacks, problems
}
