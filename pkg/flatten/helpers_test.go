package flatten

import "github.com/arthur-debert/unfold/pkg/filesystem"

func newOSFS() filesystem.FS {
	return filesystem.NewOS()
}
