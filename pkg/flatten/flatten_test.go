package flatten

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/flatname"
	"github.com/arthur-debert/unfold/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const umbrella = "/work/umbrella"

func TestFlattenScenarioCatDog(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"Cat/The/Very/Fat.txt": "cat",
		"Dog/The/Very/Fat.txt": "dog",
	})

	report, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Cat$%The$%Very$%Fat.txt",
		"Dog$%The$%Very$%Fat.txt",
	}, testutil.ListTree(t, fsys, umbrella))
	assert.Equal(t, "cat", testutil.ReadString(t, fsys, filepath.Join(umbrella, "Cat$%The$%Very$%Fat.txt")))
	assert.Equal(t, "dog", testutil.ReadString(t, fsys, filepath.Join(umbrella, "Dog$%The$%Very$%Fat.txt")))

	// Three moves per file, one per level, and six directories removed.
	assert.Equal(t, 6, report.FilesMoved())
	assert.Equal(t, 6, report.DirsRemoved)
	assert.Zero(t, report.Disambiguated)
}

func TestFlattenLeavesTopLevelFilesAlone(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"a.txt":     "a",
		"dir/b.txt": "b",
	})

	report, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "dir$%b.txt"}, testutil.ListTree(t, fsys, umbrella))
	assert.Equal(t, 1, report.FilesMoved())
}

func TestFlattenMixedDepths(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"top/one.kif":            "1",
		"top/mid/two.kif":        "2",
		"top/mid/deep/three.kif": "3",
		"top/empty/":             "",
		"other/x/":               "",
	})

	_, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"top$%mid$%deep$%three.kif",
		"top$%mid$%two.kif",
		"top$%one.kif",
	}, testutil.ListTree(t, fsys, umbrella))
}

func TestFlattenedNameEncodesDepth(t *testing.T) {
	fsys := testutil.NewTestFS()
	files := map[string]string{
		"a/f0.txt":           "",
		"a/b/f1.txt":         "",
		"a/b/c/f2.txt":       "",
		"a/b/c/d/f3.txt":     "",
		"a/b/c/d/e/f4.txt":   "",
		"z/y/x/w/v/u/f5.txt": "",
	}
	testutil.WriteTree(t, fsys, umbrella, files)

	_, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.NoError(t, err)

	got := testutil.ListTree(t, fsys, umbrella)
	require.Len(t, got, len(files))

	for rel := range files {
		segments := strings.Split(rel, "/")
		want := strings.Join(segments, flatname.Separator)
		assert.Contains(t, got, want)
		assert.Equal(t, len(segments)-1, flatname.Depth(want))
	}
	for _, name := range got {
		assert.False(t, strings.HasSuffix(name, "/"), "directory %s left behind", name)
	}
}

func TestFlattenIsIdempotentOnFlatTree(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"a.txt":      "a",
		"b$%c.txt":   "bc",
		"d$%e$%f.md": "def",
	})
	before := testutil.ListTree(t, fsys, umbrella)

	flattener := New(fsys, CollisionError)
	for i := 0; i < 2; i++ {
		report, err := flattener.Flatten(context.Background(), umbrella)
		require.NoError(t, err)
		assert.Zero(t, report.FilesMoved())
		assert.Zero(t, report.DirsRemoved)
	}

	assert.Equal(t, before, testutil.ListTree(t, fsys, umbrella))
}

func TestFlattenEmptyUmbrella(t *testing.T) {
	fsys := testutil.NewTestFS()
	require.NoError(t, fsys.MkdirAll(umbrella, 0755))

	report, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.NoError(t, err)
	assert.Zero(t, report.FilesMoved())
	assert.Empty(t, testutil.ListTree(t, fsys, umbrella))
}

func TestFlattenCollisionIsAnError(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"dir$%a.txt": "already flat",
		"dir/a.txt":  "nested",
	})

	_, err := New(fsys, CollisionError).Flatten(context.Background(), umbrella)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCollision))
	assert.Equal(t, filepath.Join(umbrella, "dir$%a.txt"), errors.GetErrorDetails(err)["target"])

	// Nothing overwritten.
	assert.Equal(t, "already flat", testutil.ReadString(t, fsys, filepath.Join(umbrella, "dir$%a.txt")))
	assert.Equal(t, "nested", testutil.ReadString(t, fsys, filepath.Join(umbrella, "dir", "a.txt")))
}

func TestFlattenCollisionSuffixPolicy(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{
		"dir$%a.txt":     "first",
		"dir$%a (1).txt": "second",
		"dir/a.txt":      "third",
	})

	report, err := New(fsys, CollisionSuffix).Flatten(context.Background(), umbrella)
	require.NoError(t, err)

	assert.Equal(t, []string{"dir$%a (1).txt", "dir$%a (2).txt", "dir$%a.txt"}, testutil.ListTree(t, fsys, umbrella))
	assert.Equal(t, "third", testutil.ReadString(t, fsys, filepath.Join(umbrella, "dir$%a (2).txt")))
	assert.Equal(t, 1, report.Disambiguated)
}

func TestFlattenMissingUmbrella(t *testing.T) {
	fsys := testutil.NewTestFS()

	_, err := New(fsys, CollisionError).Flatten(context.Background(), "/nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
}

func TestFlattenUmbrellaIsFile(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, "/work", map[string]string{"file": "x"})

	_, err := New(fsys, CollisionError).Flatten(context.Background(), "/work/file")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestFlattenFilesystemFailureIsFatal(t *testing.T) {
	faulty := testutil.NewFaultyFS(testutil.NewTestFS())
	testutil.WriteTree(t, faulty, umbrella, map[string]string{
		"dir/sub/a.txt": "a",
	})
	faulty.FailOn("readdir", filepath.Join(umbrella, "dir", "sub"), stderrors.New("permission denied"))

	_, err := New(faulty, CollisionError).Flatten(context.Background(), umbrella)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
}

func TestFlattenHonoursCancellation(t *testing.T) {
	fsys := testutil.NewTestFS()
	testutil.WriteTree(t, fsys, umbrella, map[string]string{"dir/a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fsys, CollisionError).Flatten(ctx, umbrella)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCanceled))
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestFlattenOnDisk(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "Cat", "The", "Very", "Fat.txt"), "cat")

	fsys := newOSFS()
	_, err := New(fsys, CollisionError).Flatten(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cat$%The$%Very$%Fat.txt"}, testutil.ListTree(t, fsys, root))
}

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"", CollisionError, false},
		{"error", CollisionError, false},
		{"SUFFIX", CollisionSuffix, false},
		{"overwrite", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCollisionPolicy(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
