package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/spf13/afero"
)

// NewTestFS creates a new in-memory filesystem for testing
func NewTestFS() filesystem.FS {
	return filesystem.NewAferoFS(afero.NewMemMapFs())
}

// WriteTree creates files below root. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, fsys filesystem.FS, root string, files map[string]string) {
	t.Helper()

	if err := fsys.MkdirAll(root, 0755); err != nil {
		t.Fatalf("Failed to create root %s: %v", root, err)
	}

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := fsys.MkdirAll(path, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", path, err)
			}
			continue
		}
		if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", path, err)
		}
		if err := fsys.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// ListTree returns every entry below root as a sorted slash-separated
// relative path. Directories carry a trailing "/".
func ListTree(t *testing.T, fsys filesystem.FS, root string) []string {
	t.Helper()

	var out []string
	var walk func(dir, prefix string)
	walk = func(dir, prefix string) {
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", dir, err)
		}
		for _, entry := range entries {
			rel := prefix + entry.Name()
			if entry.IsDir() && entry.Type()&fs.ModeSymlink == 0 {
				out = append(out, rel+"/")
				walk(filepath.Join(dir, entry.Name()), rel+"/")
				continue
			}
			out = append(out, rel)
		}
	}
	walk(root, "")

	sort.Strings(out)
	return out
}

// ReadString reads a file and fails the test on error
func ReadString(t *testing.T, fsys filesystem.FS, path string) string {
	t.Helper()

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// AssertMissing fails the test if path exists
func AssertMissing(t *testing.T, fsys filesystem.FS, path string) {
	t.Helper()

	exists, err := filesystem.Exists(fsys, path)
	if err != nil {
		t.Fatalf("Failed to check %s: %v", path, err)
	}
	if exists {
		t.Errorf("Expected %s to be absent", path)
	}
}

// AssertPresent fails the test if path does not exist
func AssertPresent(t *testing.T, fsys filesystem.FS, path string) {
	t.Helper()

	exists, err := filesystem.Exists(fsys, path)
	if err != nil {
		t.Fatalf("Failed to check %s: %v", path, err)
	}
	if !exists {
		t.Errorf("Expected %s to exist", path)
	}
}
