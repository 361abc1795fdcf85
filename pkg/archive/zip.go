package archive

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ZipHandlerName identifies the ZIP handler
const ZipHandlerName = "zip"

const (
	// stagingPrefix names per-archive extraction directories
	stagingPrefix = ".unfold-staging-"

	deliveredDetail = "delivered"
)

// ZipHandler expands ZIP archives
type ZipHandler struct {
	input  string
	env    Env
	logger zerolog.Logger
}

// NewZipHandler is the Factory for ZIP archives
func NewZipHandler(input string, env Env) (Handler, error) {
	if env.FS == nil || env.Flattener == nil {
		return nil, errors.New(errors.ErrInvalidInput, "zip handler needs a filesystem and a flattener")
	}
	if env.Umbrella == "" || env.StagingRoot == "" {
		return nil, errors.New(errors.ErrInvalidInput, "zip handler needs umbrella and staging directories")
	}
	env.Limits = env.Limits.withDefaults()

	return &ZipHandler{
		input:  input,
		env:    env,
		logger: logging.GetLogger("archive.zip").With().Str("input", input).Logger(),
	}, nil
}

func (h *ZipHandler) Name() string  { return ZipHandlerName }
func (h *ZipHandler) Input() string { return h.input }

// Expand extracts into a private staging directory, flattens it, merges
// the result into the umbrella, then deletes the input. Nothing reaches
// the umbrella and the input stays in place unless extraction succeeded.
func (h *ZipHandler) Expand(ctx context.Context) error {
	done := logging.LogOperationStart(h.logger, "expand zip")
	defer done()

	fsys := h.env.FS
	umbrella := h.env.Umbrella

	h.logger.Info().Str("umbrella", umbrella).Msg("Expanding archive")

	if err := fsys.MkdirAll(umbrella, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot create umbrella %s", umbrella)
	}

	staging := filepath.Join(h.env.StagingRoot, stagingPrefix+uuid.NewString())
	if err := fsys.MkdirAll(staging, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot create staging directory %s", staging)
	}
	defer func() {
		if err := fsys.RemoveAll(staging); err != nil {
			h.logger.Warn().Err(err).Str("staging", staging).Msg("Failed to remove staging directory")
		}
	}()

	entries, err := h.extract(ctx, staging)
	if err != nil {
		return err
	}

	flat, err := h.env.Flattener.Flatten(ctx, staging)
	if err != nil {
		return err
	}

	merged, err := h.env.Flattener.Merge(ctx, staging, umbrella)
	if err != nil {
		return err
	}

	if err := fsys.Remove(h.input); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot delete expanded archive %s", h.input).
			WithDetail(deliveredDetail, true)
	}
	h.logger.Debug().Msg("Deleted expanded archive")

	if err := h.removeLeftoverDirs(); err != nil {
		return err
	}

	h.logger.Info().
		Int("entries", entries).
		Int("renamed", flat.FilesMoved()).
		Int("files", merged.FilesMoved()).
		Msg("Archive expanded")

	return nil
}

// extract writes every member of the archive below dest and returns the
// number of files written. All member names are validated before anything
// is written.
func (h *ZipHandler) extract(ctx context.Context, dest string) (int, error) {
	f, err := h.env.FS.Open(h.input)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrExtraction, "cannot open %s", h.input)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrExtraction, "cannot stat %s", h.input)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrExtraction, "%s is not a readable zip archive", h.input)
	}

	limits := h.env.Limits
	if len(zr.File) > limits.MaxEntries {
		return 0, extractionErr(errors.Newf(errors.ErrLimitExceeded,
			"archive has %d entries, limit is %d", len(zr.File), limits.MaxEntries), h.input)
	}

	targets := make([]string, len(zr.File))
	for i, zf := range zr.File {
		rel, err := entryPath(zf.Name)
		if err != nil {
			return 0, extractionErr(err, h.input)
		}
		target := filepath.Join(dest, rel)
		if !within(dest, target) {
			return 0, extractionErr(traversal(zf.Name, "entry name escapes the destination"), h.input)
		}
		if zf.Mode()&fs.ModeSymlink != 0 {
			return 0, extractionErr(traversal(zf.Name, "symlink entries are not extracted"), h.input)
		}
		if zf.UncompressedSize64 > uint64(limits.MaxEntryBytes) {
			return 0, extractionErr(errors.Newf(errors.ErrLimitExceeded,
				"entry %s declares %d bytes, limit is %d", zf.Name, zf.UncompressedSize64, limits.MaxEntryBytes), h.input)
		}
		targets[i] = target
	}

	var total int64
	files := 0
	for i, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, errors.Wrap(err, errors.ErrCanceled, "extraction interrupted")
		}

		target := targets[i]
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			if err := h.env.FS.MkdirAll(target, 0755); err != nil {
				return files, errors.Wrapf(err, errors.ErrExtraction, "cannot create directory for %s", zf.Name)
			}
			continue
		}

		n, err := h.writeEntry(zf, target, limits.MaxTotalBytes-total)
		if err != nil {
			return files, extractionErr(err, h.input)
		}
		total += n
		files++

		h.logger.Trace().Str("entry", zf.Name).Int64("bytes", n).Msg("Extracted entry")
	}

	return files, nil
}

// writeEntry copies one member to target, refusing to write more than
// MaxEntryBytes or the remaining total budget
func (h *ZipHandler) writeEntry(zf *zip.File, target string, budget int64) (int64, error) {
	limit := h.env.Limits.MaxEntryBytes
	if budget < limit {
		limit = budget
	}

	if err := h.env.FS.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "cannot create directory for %s", zf.Name)
	}

	rc, err := zf.Open()
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrExtraction, "cannot open entry %s", zf.Name)
	}
	defer rc.Close()

	// O_EXCL: a duplicated member name must not silently overwrite.
	out, err := h.env.FS.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "cannot create %s", target)
	}

	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, errors.Wrapf(err, errors.ErrExtraction, "cannot read entry %s", zf.Name)
	}
	if n > limit {
		return n, errors.Newf(errors.ErrLimitExceeded, "entry %s exceeds the size limit", zf.Name).
			WithDetail("limit", limit)
	}

	return n, nil
}

// removeLeftoverDirs deletes every directory directly under the umbrella.
// After a merge only files are expected there.
func (h *ZipHandler) removeLeftoverDirs() error {
	entries, err := h.env.FS.ReadDir(h.env.Umbrella)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot read umbrella %s", h.env.Umbrella)
	}

	for _, entry := range entries {
		// Staging lives in the umbrella when the umbrella is the expansion root.
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), stagingPrefix) {
			continue
		}
		dir := filepath.Join(h.env.Umbrella, entry.Name())
		if err := h.env.FS.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, errors.ErrFilesystem, "cannot remove leftover directory %s", dir).
				WithDetail(deliveredDetail, true)
		}
		h.logger.Debug().Str("dir", dir).Msg("Removed leftover directory")
	}

	return nil
}

// Delivered reports whether err was raised after the archive contents had
// already been merged into the umbrella
func Delivered(err error) bool {
	delivered, _ := errors.GetErrorDetails(err)[deliveredDetail].(bool)
	return delivered
}

// extractionErr tags err as an extraction failure unless it already is one
func extractionErr(err error, input string) error {
	if errors.IsErrorCode(err, errors.ErrExtraction) {
		return err
	}
	return errors.Wrap(err, errors.ErrExtraction, "extraction failed").WithDetail("input", input)
}
