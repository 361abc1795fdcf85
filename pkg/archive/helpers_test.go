package archive

import (
	"testing"

	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/flatten"
	"github.com/arthur-debert/unfold/pkg/testutil"
)

const (
	inbox      = "/data/inbox"
	umbrella   = "/data/expanded"
	staging    = "/data"
	quarantine = "/data/quarantine"
)

func newEnv(t *testing.T, fsys filesystem.FS) Env {
	t.Helper()
	return Env{
		FS:             fsys,
		Umbrella:       umbrella,
		StagingRoot:    staging,
		QuarantineRoot: quarantine,
		Flattener:      flatten.New(fsys, flatten.CollisionError),
	}
}

func newTestEnv(t *testing.T) (filesystem.FS, Env) {
	t.Helper()
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, inbox, map[string]string{})
	return fsys, newEnv(t, fsys)
}

// stagingLeftovers lists staging directories that were not cleaned up
func stagingLeftovers(t *testing.T, fsys filesystem.FS) []string {
	t.Helper()
	entries, err := fsys.ReadDir(staging)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", staging, err)
	}
	var out []string
	for _, entry := range entries {
		if len(entry.Name()) > len(stagingPrefix) && entry.Name()[:len(stagingPrefix)] == stagingPrefix {
			out = append(out, entry.Name())
		}
	}
	return out
}
