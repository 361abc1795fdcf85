package hashutil

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/arthur-debert/unfold/pkg/filesystem"
)

// FileChecksum returns "sha256:<hex>" for the contents of path
func FileChecksum(fsys filesystem.FS, path string) (string, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// SameContent reports whether a and b hold identical bytes
func SameContent(fsys filesystem.FS, a, b string) (bool, error) {
	sumA, err := FileChecksum(fsys, a)
	if err != nil {
		return false, err
	}
	sumB, err := FileChecksum(fsys, b)
	if err != nil {
		return false, err
	}
	return sumA == sumB, nil
}
