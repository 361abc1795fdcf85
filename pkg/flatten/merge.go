package flatten

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/filesystem"
)

// Merge moves every file directly inside src into dst, keeping names.
// Under CollisionError all targets are checked before the first move, so a
// collision leaves dst untouched. Directories in src are ignored.
func (f *Flattener) Merge(ctx context.Context, src, dst string) (*Report, error) {
	report := &Report{}

	_, files, err := f.list(src)
	if err != nil {
		return report, err
	}

	if err := f.fs.MkdirAll(dst, 0755); err != nil {
		return report, errors.Wrapf(err, errors.ErrFilesystem, "cannot create %s", dst)
	}

	if f.policy != CollisionSuffix {
		for _, name := range files {
			target := filepath.Join(dst, name)
			exists, err := filesystem.Exists(f.fs, target)
			if err != nil {
				return report, errors.Wrapf(err, errors.ErrFilesystem, "cannot check %s", target)
			}
			if exists {
				return report, errors.Newf(errors.ErrCollision, "%s already exists in %s", name, dst).
					WithDetail("source", filepath.Join(src, name)).
					WithDetail("target", target)
			}
		}
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.ErrCanceled, "merge interrupted")
		}
		if err := f.moveUp(filepath.Join(src, name), dst, name, report); err != nil {
			return report, err
		}
	}

	f.logger.Debug().
		Str("from", src).
		Str("to", dst).
		Int("files", report.FilesMoved()).
		Msg("Merged flat tree")

	return report, nil
}
