// Package flatname builds the single-segment file names used when a nested
// directory tree is collapsed into one level.
//
// A flattened name is the former parent directory's name, the Separator and
// the file's own base name. Applied once per level while a tree is unwound,
// it yields every ancestor name in root-to-leaf order:
//
//	Cat/The/Very/Fat.txt  ->  Cat$%The$%Very$%Fat.txt
package flatname

import (
	"os"
	"strings"
)

// Separator joins name segments. It does not occur in ordinary file names,
// so a flattened name can be split back into its segments.
const Separator = "$%"

// Join returns parent + Separator + base
func Join(parent, base string) string {
	return parent + Separator + base
}

// Split returns the segments of a flattened name, root first. A name that
// was never flattened is returned as its only segment.
func Split(name string) []string {
	return strings.Split(name, Separator)
}

// Depth is the number of ancestor segments encoded in name
func Depth(name string) int {
	return strings.Count(name, Separator)
}

// Valid reports whether name can be used as a single path segment
func Valid(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsRune(name, '/') && !strings.ContainsRune(name, os.PathSeparator)
}
