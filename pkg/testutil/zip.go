package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/unfold/pkg/filesystem"
)

// ZipEntry describes one member of a test archive
type ZipEntry struct {
	Name    string
	Content string
	// Mode is optional; set fs.ModeSymlink to write a symlink entry whose
	// target is Content
	Mode fs.FileMode
}

// ZipBytes builds a zip archive in memory
func ZipBytes(t *testing.T, entries []ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		if entry.Mode != 0 {
			header.SetMode(entry.Mode)
		}
		fw, err := w.CreateHeader(header)
		if err != nil {
			t.Fatalf("Failed to add %s to zip: %v", entry.Name, err)
		}
		if entry.Content != "" {
			if _, err := fw.Write([]byte(entry.Content)); err != nil {
				t.Fatalf("Failed to write %s to zip: %v", entry.Name, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a zip archive with the given entries to path
func WriteZip(t *testing.T, fsys filesystem.FS, path string, entries []ZipEntry) {
	t.Helper()

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := fsys.WriteFile(path, ZipBytes(t, entries), 0644); err != nil {
		t.Fatalf("Failed to write zip %s: %v", path, err)
	}
}

// WriteCorruptZip writes a valid archive whose first member's compressed
// data has been overwritten, so opening succeeds but reading fails
func WriteCorruptZip(t *testing.T, fsys filesystem.FS, path string, entries []ZipEntry) {
	t.Helper()

	data := ZipBytes(t, entries)
	// Local header is 30 bytes plus the name; damage the bytes after it.
	offset := 30 + len(entries[0].Name)
	for i := offset; i < offset+8 && i < len(data); i++ {
		data[i] ^= 0xff
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write zip %s: %v", path, err)
	}
}

// WriteFile writes content to path on the real filesystem
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
