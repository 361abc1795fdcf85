package archive

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
)

// entryPath validates an archive member name and returns it as a relative
// OS path. Backslashes are read as separators since archives built on
// Windows often use them. Absolute names, drive letters and any ".."
// component are rejected.
func entryPath(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")

	if slashed == "" {
		return "", traversal(name, "empty entry name")
	}
	if strings.HasPrefix(slashed, "/") {
		return "", traversal(name, "absolute entry name")
	}
	if len(slashed) >= 2 && slashed[1] == ':' {
		return "", traversal(name, "entry name with drive letter")
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", traversal(name, "entry name escapes the destination")
		}
	}

	clean := path.Clean(slashed)
	if clean == "." {
		return "", traversal(name, "entry name resolves to the destination itself")
	}

	return filepath.FromSlash(clean), nil
}

// within reports whether target is dest or lies below it
func within(dest, target string) bool {
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func traversal(name, reason string) error {
	return errors.New(errors.ErrPathTraversal, reason).WithDetail("entry", name)
}
