// Package paths provides centralized path handling for unfold.
// Default roots follow the XDG Base Directory specification.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/unfold/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for unfold
	EnvDataDir = "UNFOLD_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for unfold
	EnvConfigDir = "UNFOLD_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Directory and file names below the data and config directories
const (
	AppDirName     = "unfold"
	ExpandedDir    = "expanded"
	QuarantineDir  = "quarantine"
	FailedDir      = "failed"
	ConfigFileBase = "config"
)

// ConfigExtensions lists the supported config file extensions, in lookup order
var ConfigExtensions = []string{".toml", ".yaml", ".yml"}

// Paths resolves unfold's default directories
type Paths struct {
	dataDir   string
	configDir string
}

// New resolves the data and config directories from the environment
func New() (*Paths, error) {
	xdg.Reload()

	p := &Paths{}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		p.dataDir = ExpandHome(dir)
	} else {
		p.dataDir = filepath.Join(xdg.DataHome, AppDirName)
	}

	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.configDir = ExpandHome(dir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	var err error
	if p.dataDir, err = filepath.Abs(p.dataDir); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "failed to resolve data directory")
	}
	if p.configDir, err = filepath.Abs(p.configDir); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "failed to resolve config directory")
	}

	return p, nil
}

// DataDir returns the data directory holding the default roots
func (p *Paths) DataDir() string {
	return p.dataDir
}

// ConfigDir returns the directory searched for the user config file
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ExpansionRoot is the default umbrella root
func (p *Paths) ExpansionRoot() string {
	return filepath.Join(p.dataDir, ExpandedDir)
}

// QuarantineRoot is the default root for copied-<stem> directories
func (p *Paths) QuarantineRoot() string {
	return filepath.Join(p.dataDir, QuarantineDir)
}

// FailureRoot is the default holding area for inputs that failed to expand
func (p *Paths) FailureRoot() string {
	return filepath.Join(p.dataDir, FailedDir)
}

// ConfigFile returns the first existing user config file, or "" if none
func (p *Paths) ConfigFile() string {
	for _, ext := range ConfigExtensions {
		candidate := filepath.Join(p.configDir, ConfigFileBase+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// StateDir returns unfold's XDG state directory, where the log file lives
func StateDir() string {
	xdg.Reload()
	return filepath.Join(xdg.StateHome, AppDirName)
}

// Overlaps reports whether a and b are the same directory or one of them
// lies inside the other
func Overlaps(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	return contains(a, b) || contains(b, a)
}

func contains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Normalize expands a leading ~ and makes path absolute
func Normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "path cannot be empty")
	}
	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "failed to resolve %s", path)
	}
	return abs, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, strings.TrimLeft(path[2:], "/"))
	}
	// ~user forms are left alone
	return path
}
