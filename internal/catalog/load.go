package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// LoadOverlay reads, decodes, and validates the overlay definition inside
// dir. Definitions may carry // and /* */ comments plus trailing commas.
func LoadOverlay(dir string) (*Overlay, error) {
	path := filepath.Join(dir, OverlayFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overlay definition: %w", err)
	}

	var overlay Overlay
	if err := decodeJWCC(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse overlay definition %q: %w", path, err)
	}
	if err := overlay.Validate(); err != nil {
		return nil, fmt.Errorf("overlay definition %q: %w", path, err)
	}

	overlay.Dir = dir
	return &overlay, nil
}

// LoadStack reads, decodes, and validates the stack definition at path.
// Definitions may carry // and /* */ comments plus trailing commas.
func LoadStack(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack definition: %w", err)
	}

	var stack Stack
	if err := decodeJWCC(data, &stack); err != nil {
		return nil, fmt.Errorf("parse stack definition %q: %w", path, err)
	}
	if err := stack.Validate(); err != nil {
		return nil, fmt.Errorf("stack definition %q: %w", path, err)
	}

	stack.Path = path
	return &stack, nil
}

// decodeJWCC standardizes JSON-with-comments into plain JSON before decoding.
func decodeJWCC(data []byte, v any) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(std, v)
}
