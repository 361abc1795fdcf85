package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/internal/hashutil"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/rs/zerolog"
)

// UnrecognizedHandlerName identifies the fallback handler
const UnrecognizedHandlerName = "unrecognized"

// QuarantinePrefix starts the name of every quarantine directory
const QuarantinePrefix = "copied-"

// UnrecognizedHandler moves inputs it cannot expand into quarantine,
// byte for byte
type UnrecognizedHandler struct {
	input       string
	dir         string
	destination string
	env         Env
	logger      zerolog.Logger
}

// QuarantineDir returns <root>/copied-<stem> for input
func QuarantineDir(root, input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(root, QuarantinePrefix+stem)
}

// NewUnrecognizedHandler is the fallback Factory. The quarantine directory
// is created here, before Expand runs.
func NewUnrecognizedHandler(input string, env Env) (Handler, error) {
	h := &UnrecognizedHandler{
		input:  input,
		env:    env,
		logger: logging.GetLogger("archive.unrecognized").With().Str("input", input).Logger(),
	}

	if strings.TrimSpace(input) == "" {
		return h, nil
	}
	if env.FS == nil || env.QuarantineRoot == "" {
		return nil, errors.New(errors.ErrInvalidInput, "unrecognized handler needs a filesystem and a quarantine root")
	}

	h.dir = QuarantineDir(env.QuarantineRoot, input)
	if err := env.FS.MkdirAll(h.dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "cannot create quarantine directory %s", h.dir)
	}

	return h, nil
}

func (h *UnrecognizedHandler) Name() string  { return UnrecognizedHandlerName }
func (h *UnrecognizedHandler) Input() string { return h.input }

// Destination is where the input was moved, empty until Expand succeeds
func (h *UnrecognizedHandler) Destination() string { return h.destination }

// Expand moves the input into its quarantine directory. A blank input is a
// no-op.
func (h *UnrecognizedHandler) Expand(ctx context.Context) error {
	if strings.TrimSpace(h.input) == "" {
		h.logger.Debug().Msg("Blank input, nothing to quarantine")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCanceled, "quarantine interrupted")
	}

	target := filepath.Join(h.dir, filepath.Base(h.input))

	exists, err := filesystem.Exists(h.env.FS, target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot check %s", target)
	}
	if exists {
		err := errors.Newf(errors.ErrCollision, "%s is already quarantined", filepath.Base(h.input)).
			WithDetail("source", h.input).
			WithDetail("target", target)
		if same, sumErr := hashutil.SameContent(h.env.FS, h.input, target); sumErr == nil {
			err = err.WithDetail("identical", same)
			if same {
				err.Message = fmt.Sprintf("an identical copy of %s is already quarantined", filepath.Base(h.input))
			}
		}
		return err
	}

	if err := filesystem.Move(h.env.FS, h.input, target); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "cannot move %s to quarantine", h.input).
			WithDetail("target", target)
	}

	h.destination = target
	h.logger.Info().Str("destination", target).Msg("Quarantined unrecognized file")

	return nil
}
