package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError reports a name that no search path could satisfy.
type NotFoundError struct {
	// Kind is "overlay" or "stack".
	Kind string
	// Name is the reference that failed to resolve.
	Name string
	// Paths are the search paths that were scanned, in order.
	Paths []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in search paths %s", e.Kind, e.Name, strings.Join(e.Paths, ":"))
}

// IsNotFoundError returns true when err is a resolution miss.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// Resolver locates overlay directories and stack files across an explicit,
// ordered list of search paths. Earlier paths shadow later ones. The list is
// fixed at construction; nothing else influences resolution.
type Resolver struct {
	paths []string
}

// NewResolver builds a resolver over the given search paths. The slice is
// copied so later mutation by the caller cannot change resolution order.
func NewResolver(paths []string) *Resolver {
	cp := make([]string, len(paths))
	copy(cp, paths)
	return &Resolver{paths: cp}
}

// Paths returns a copy of the search paths in resolution order.
func (r *Resolver) Paths() []string {
	cp := make([]string, len(r.paths))
	copy(cp, r.paths)
	return cp
}

// OverlayDir returns the directory of the first overlay with the given name
// along the search paths. Every call rescans the filesystem; results are
// never cached.
func (r *Resolver) OverlayDir(name string) (string, error) {
	for _, root := range r.paths {
		dir := filepath.Join(root, OverlaysDirName, name)
		if fileExists(filepath.Join(dir, OverlayFileName)) {
			return dir, nil
		}
	}
	return "", &NotFoundError{Kind: "overlay", Name: name, Paths: r.Paths()}
}

// StackFile returns the path of the first stack definition with the given
// name along the search paths. Every call rescans the filesystem; results
// are never cached.
func (r *Resolver) StackFile(name string) (string, error) {
	for _, root := range r.paths {
		path := filepath.Join(root, StacksDirName, name+".json")
		if fileExists(path) {
			return path, nil
		}
	}
	return "", &NotFoundError{Kind: "stack", Name: name, Paths: r.Paths()}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
