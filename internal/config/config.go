// Package config contains the loader and strongly typed model for
// overlayctl.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultElevate is the elevation command used when none is configured.
const DefaultElevate = "sudo"

// JournalDisabled turns the run journal off when set as the journal path.
const JournalDisabled = "none"

// Config mirrors the structure of overlayctl.yaml. Every field is optional;
// command-line flags and OVERLAYCTL_* variables override what is set here.
type Config struct {
	// SearchPaths are scanned in order for overlays/ and stacks/
	// directories. The current working directory is used when empty.
	SearchPaths []string `yaml:"searchPaths,omitempty"`
	// MountPoint is the default root filesystem to provision.
	MountPoint string `yaml:"mountPoint,omitempty"`
	// Resources is the default directory substituted for the $RESOURCES
	// placeholder in copy paths.
	Resources string `yaml:"resources,omitempty"`
	// Elevate is the command prefix for privileged operations, parsed with
	// shell quoting rules. Defaults to sudo.
	Elevate string `yaml:"elevate,omitempty"`
	// Journal is the sqlite file run history is appended to. Defaults to
	// ~/.local/state/overlayctl/journal.sqlite; "none" disables history.
	Journal string `yaml:"journal,omitempty"`
	// LogLevel sets the default log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// Resolve locates and loads the effective config file. An explicit path must
// exist; otherwise the first existing default location is used, and no file
// at all yields a zero config. The loaded path is returned alongside the
// config, empty when nothing was found.
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicit, nil
	}
	for _, candidate := range DefaultPaths() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cfg, err := Load(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}
	return &Config{}, "", nil
}

// DefaultPaths lists the implicit config locations in priority order.
func DefaultPaths() []string {
	paths := []string{"overlayctl.yaml"}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "overlayctl", "overlayctl.yaml"))
	}
	return paths
}

// EffectiveSearchPaths picks the search path list from the first non-empty
// source: the colon-separated override, then the configured list, then the
// current directory. Tildes are expanded.
func EffectiveSearchPaths(override string, cfg *Config) ([]string, error) {
	var raw []string
	switch {
	case strings.TrimSpace(override) != "":
		raw = strings.Split(override, ":")
	case cfg != nil && len(cfg.SearchPaths) > 0:
		raw = cfg.SearchPaths
	default:
		raw = []string{"."}
	}

	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expanded, err := homedir.Expand(p)
		if err != nil {
			return nil, fmt.Errorf("expand search path %q: %w", p, err)
		}
		out = append(out, expanded)
	}
	if len(out) == 0 {
		out = []string{"."}
	}
	return out, nil
}

// ElevateArgv parses the configured elevation command into an argv prefix
// using shell quoting rules.
func ElevateArgv(cfg *Config) ([]string, error) {
	value := DefaultElevate
	if cfg != nil && strings.TrimSpace(cfg.Elevate) != "" {
		value = cfg.Elevate
	}
	argv, err := shellwords.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("parse elevate command %q: %w", value, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("elevate command %q is empty", value)
	}
	return argv, nil
}

// JournalPath resolves where run history goes. A non-empty override wins
// over the config file. An empty setting means the default under the user
// state directory; JournalDisabled returns an empty path, turning history
// off.
func JournalPath(override string, cfg *Config) (string, error) {
	value := strings.TrimSpace(override)
	if value == "" && cfg != nil {
		value = strings.TrimSpace(cfg.Journal)
	}
	if value == JournalDisabled {
		return "", nil
	}
	if value != "" {
		expanded, err := homedir.Expand(value)
		if err != nil {
			return "", fmt.Errorf("expand journal path %q: %w", value, err)
		}
		return expanded, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "overlayctl", "journal.sqlite"), nil
}
