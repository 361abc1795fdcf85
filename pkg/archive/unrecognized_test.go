package archive

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarantineDir(t *testing.T) {
	assert.Equal(t, "/q/copied-setup", QuarantineDir("/q", "/in/setup.exe"))
	assert.Equal(t, "/q/copied-games.tar", QuarantineDir("/q", "/in/games.tar.gz"))
	assert.Equal(t, "/q/copied-README", QuarantineDir("/q", "/in/README"))
}

func TestUnrecognizedMovesIntoQuarantine(t *testing.T) {
	fsys, env := newTestEnv(t)
	testutil.WriteTree(t, fsys, umbrella, map[string]string{"existing.txt": "x"})
	input := filepath.Join(inbox, "setup.exe")
	testutil.WriteTree(t, fsys, inbox, map[string]string{"setup.exe": "MZ binary"})

	h, err := NewUnrecognizedHandler(input, env)
	require.NoError(t, err)
	assert.Equal(t, UnrecognizedHandlerName, h.Name())

	// The quarantine directory exists before Expand runs.
	testutil.AssertPresent(t, fsys, filepath.Join(quarantine, "copied-setup"))

	require.NoError(t, h.Expand(context.Background()))

	target := filepath.Join(quarantine, "copied-setup", "setup.exe")
	testutil.AssertMissing(t, fsys, input)
	assert.Equal(t, "MZ binary", testutil.ReadString(t, fsys, target))
	assert.Equal(t, target, h.(Relocator).Destination())
	assert.Equal(t, []string{"existing.txt"}, testutil.ListTree(t, fsys, umbrella))
}

func TestUnrecognizedBlankInputIsNoop(t *testing.T) {
	fsys, env := newTestEnv(t)

	for _, input := range []string{"", "   "} {
		h, err := NewUnrecognizedHandler(input, env)
		require.NoError(t, err)
		require.NoError(t, h.Expand(context.Background()))
		assert.Empty(t, h.(Relocator).Destination())
	}

	testutil.AssertMissing(t, fsys, quarantine)
}

func TestUnrecognizedCollision(t *testing.T) {
	fsys, env := newTestEnv(t)
	testutil.WriteTree(t, fsys, quarantine, map[string]string{"copied-setup/setup.exe": "older"})
	input := filepath.Join(inbox, "setup.exe")
	testutil.WriteTree(t, fsys, inbox, map[string]string{"setup.exe": "newer"})

	h, err := NewUnrecognizedHandler(input, env)
	require.NoError(t, err)

	err = h.Expand(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCollision))

	testutil.AssertPresent(t, fsys, input)
	assert.Equal(t, "older", testutil.ReadString(t, fsys, filepath.Join(quarantine, "copied-setup", "setup.exe")))
	assert.Equal(t, false, errors.GetErrorDetails(err)["identical"])
}

func TestUnrecognizedCollisionWithIdenticalCopy(t *testing.T) {
	fsys, env := newTestEnv(t)
	testutil.WriteTree(t, fsys, quarantine, map[string]string{"copied-setup/setup.exe": "same bytes"})
	input := filepath.Join(inbox, "setup.exe")
	testutil.WriteTree(t, fsys, inbox, map[string]string{"setup.exe": "same bytes"})

	h, err := NewUnrecognizedHandler(input, env)
	require.NoError(t, err)

	err = h.Expand(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCollision))
	assert.Contains(t, err.Error(), "identical copy")
	assert.Equal(t, true, errors.GetErrorDetails(err)["identical"])
	testutil.AssertPresent(t, fsys, input)
}

func TestUnrecognizedMoveFailure(t *testing.T) {
	fsys, _ := newTestEnv(t)
	input := filepath.Join(inbox, "data.bin")
	testutil.WriteTree(t, fsys, inbox, map[string]string{"data.bin": "bytes"})

	faulty := testutil.NewFaultyFS(fsys)
	faulty.FailOn("rename", input, syscall.EACCES)

	h, err := NewUnrecognizedHandler(input, newEnv(t, faulty))
	require.NoError(t, err)

	err = h.Expand(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
	testutil.AssertPresent(t, fsys, input)
}

func TestUnrecognizedQuarantineDirFailure(t *testing.T) {
	fsys, _ := newTestEnv(t)
	faulty := testutil.NewFaultyFS(fsys)
	faulty.FailOn("mkdirall", filepath.Join(quarantine, "copied-data"), syscall.EACCES)

	_, err := NewUnrecognizedHandler(filepath.Join(inbox, "data.bin"), newEnv(t, faulty))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
}

func TestUnrecognizedCrossDeviceMove(t *testing.T) {
	fsys, _ := newTestEnv(t)
	input := filepath.Join(inbox, "data.bin")
	testutil.WriteTree(t, fsys, inbox, map[string]string{"data.bin": "bytes"})

	faulty := testutil.NewFaultyFS(fsys)
	faulty.FailOn("rename", input, syscall.EXDEV)

	h, err := NewUnrecognizedHandler(input, newEnv(t, faulty))
	require.NoError(t, err)
	require.NoError(t, h.Expand(context.Background()))

	testutil.AssertMissing(t, fsys, input)
	assert.Equal(t, "bytes", testutil.ReadString(t, fsys, filepath.Join(quarantine, "copied-data", "data.bin")))
}
