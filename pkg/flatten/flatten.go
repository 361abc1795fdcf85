// Package flatten collapses a directory tree into a single level.
//
// Given an umbrella directory populated by extraction, every file at any
// depth below it ends up as a direct child of the umbrella. The walk is
// post-order: a directory's subdirectories are unwound before its own files
// move one level up, each renamed with flatname.Join(dirName, fileName). As
// the recursion unwinds every level contributes one ancestor segment, so a
// file three levels deep reaches the umbrella carrying three ancestor names.
//
// Emptied intermediate directories are removed as the walk goes. Files that
// are already direct children of the umbrella, and the umbrella itself, are
// never touched. Errors abort the walk; nothing is rolled back.
package flatten

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/flatname"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/rs/zerolog"
)

// CollisionPolicy decides what happens when a move targets an existing path
type CollisionPolicy string

const (
	// CollisionError fails the flattening with an ErrCollision error
	CollisionError CollisionPolicy = "error"
	// CollisionSuffix picks the first free "name (n).ext" instead
	CollisionSuffix CollisionPolicy = "suffix"
)

// ParseCollisionPolicy validates a policy name. Empty means CollisionError.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(s)) {
	case "", CollisionError:
		return CollisionError, nil
	case CollisionSuffix:
		return CollisionSuffix, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown collision policy: %s", s)
	}
}

// maxSuffix bounds the search for a free disambiguated name
const maxSuffix = 10000

// Rename records one file move performed by the flattener
type Rename struct {
	From string
	To   string
}

// Report summarizes a flattening run
type Report struct {
	Renames     []Rename
	DirsRemoved int
	// Disambiguated counts moves that needed a suffix to avoid a collision
	Disambiguated int
}

// FilesMoved is the number of file moves performed
func (r *Report) FilesMoved() int {
	return len(r.Renames)
}

// Flattener rewrites directory trees in place
type Flattener struct {
	fs     filesystem.FS
	policy CollisionPolicy
	logger zerolog.Logger
}

// New creates a Flattener working on fsys
func New(fsys filesystem.FS, policy CollisionPolicy) *Flattener {
	if policy == "" {
		policy = CollisionError
	}
	return &Flattener{
		fs:     fsys,
		policy: policy,
		logger: logging.GetLogger("flatten"),
	}
}

// Policy returns the collision policy in use
func (f *Flattener) Policy() CollisionPolicy {
	return f.policy
}

// Flatten collapses everything below umbrella into its direct children
func (f *Flattener) Flatten(ctx context.Context, umbrella string) (*Report, error) {
	done := logging.LogOperationStart(f.logger, "flatten")
	defer done()

	report := &Report{}

	info, err := f.fs.Stat(umbrella)
	if err != nil {
		return report, errors.Wrapf(err, errors.ErrFilesystem, "cannot stat umbrella %s", umbrella)
	}
	if !info.IsDir() {
		return report, errors.Newf(errors.ErrInvalidInput, "umbrella %s is not a directory", umbrella).
			WithDetail("path", umbrella)
	}

	subdirs, _, err := f.list(umbrella)
	if err != nil {
		return report, err
	}

	for _, dir := range subdirs {
		if err := f.visit(ctx, filepath.Join(umbrella, dir), report); err != nil {
			return report, err
		}
	}

	f.logger.Info().
		Str("umbrella", umbrella).
		Int("files", report.FilesMoved()).
		Int("dirs", report.DirsRemoved).
		Msg("Flattened tree")

	return report, nil
}

// visit unwinds dir: its subdirectories first, then its own files move up
// one level, then dir itself is removed.
func (f *Flattener) visit(ctx context.Context, dir string, report *Report) error {
	subdirs, _, err := f.list(dir)
	if err != nil {
		return err
	}

	for _, sub := range subdirs {
		if err := f.visit(ctx, filepath.Join(dir, sub), report); err != nil {
			return err
		}
	}

	// Listed again: the recursion has just moved files up into dir.
	_, files, err := f.list(dir)
	if err != nil {
		return err
	}

	parent := filepath.Dir(dir)
	dirName := filepath.Base(dir)

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCanceled, "flattening interrupted")
		}
		if err := f.moveUp(filepath.Join(dir, name), parent, flatname.Join(dirName, name), report); err != nil {
			return err
		}
	}

	if err := f.fs.Remove(dir); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot remove intermediate directory %s", dir)
	}
	report.DirsRemoved++
	f.logger.Trace().Str("dir", dir).Msg("Removed intermediate directory")

	return nil
}

func (f *Flattener) moveUp(source, parent, joined string, report *Report) error {
	target := filepath.Join(parent, joined)

	exists, err := filesystem.Exists(f.fs, target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot check %s", target)
	}
	if exists {
		if f.policy != CollisionSuffix {
			return errors.Newf(errors.ErrCollision, "flattened name %s already exists", joined).
				WithDetail("source", source).
				WithDetail("target", target)
		}
		target, err = f.freeName(parent, joined)
		if err != nil {
			return err
		}
		report.Disambiguated++
	}

	if err := filesystem.Move(f.fs, source, target); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot move %s to %s", source, target).
			WithDetail("source", source).
			WithDetail("target", target)
	}

	report.Renames = append(report.Renames, Rename{From: source, To: target})
	f.logger.Debug().Str("from", source).Str("to", target).Msg("Moved file up")

	return nil
}

// freeName finds "stem (n)ext" in parent that does not exist yet
func (f *Flattener) freeName(parent, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; n <= maxSuffix; n++ {
		candidate := filepath.Join(parent, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		exists, err := filesystem.Exists(f.fs, candidate)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrFilesystem, "cannot check %s", candidate)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", errors.Newf(errors.ErrCollision, "no free name for %s after %d attempts", name, maxSuffix).
		WithDetail("parent", parent)
}

// list snapshots dir, splitting entries into subdirectory and file names.
// Symlinks count as files and are never followed.
func (f *Flattener) list(dir string) (subdirs, files []string, err error) {
	entries, err := f.fs.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrFilesystem, "cannot read directory %s", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() && entry.Type()&fs.ModeSymlink == 0 {
			subdirs = append(subdirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}

	return subdirs, files, nil
}
