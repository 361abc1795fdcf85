package expansion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/unfold/pkg/archive"
	"github.com/arthur-debert/unfold/pkg/config"
	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/flatten"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/arthur-debert/unfold/pkg/paths"
	"github.com/rs/zerolog"
)

// Options configures a Director
type Options struct {
	// ExpansionRoot is the umbrella, or the parent of per-archive umbrellas
	ExpansionRoot  string
	QuarantineRoot string
	// FailureRoot receives inputs that failed, when EvadeFailures is set
	FailureRoot string

	Collision          flatten.CollisionPolicy
	PerArchiveUmbrella bool
	Workers            int
	EvadeFailures      bool
	Sniff              bool
	Deny               []string
	Limits             archive.Limits

	// DryRun selects handlers without touching the filesystem
	DryRun bool
}

// OptionsFromConfig maps a loaded configuration onto director options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ExpansionRoot:      cfg.Paths.Expansion,
		QuarantineRoot:     cfg.Paths.Quarantine,
		FailureRoot:        cfg.Paths.Failure,
		Collision:          cfg.CollisionPolicy(),
		PerArchiveUmbrella: cfg.Expansion.PerArchiveUmbrella,
		Workers:            cfg.Expansion.Workers,
		EvadeFailures:      cfg.Expansion.EvadeFailures,
		Sniff:              cfg.Expansion.Sniff,
		Deny:               cfg.Expansion.Deny,
		Limits: archive.Limits{
			MaxEntries:    cfg.Limits.MaxEntries,
			MaxEntryBytes: cfg.Limits.MaxEntryBytes,
			MaxTotalBytes: cfg.Limits.MaxTotalBytes,
		},
	}
}

// Director processes input files
type Director struct {
	fs        filesystem.FS
	opts      Options
	registry  *archive.Registry
	flattener *flatten.Flattener
	logger    zerolog.Logger
}

// New creates a Director. The three roots must be set.
func New(fsys filesystem.FS, opts Options) (*Director, error) {
	if fsys == nil {
		return nil, errors.New(errors.ErrInvalidInput, "director needs a filesystem")
	}
	if opts.ExpansionRoot == "" || opts.QuarantineRoot == "" {
		return nil, errors.New(errors.ErrInvalidInput, "expansion and quarantine roots are required")
	}
	if opts.EvadeFailures && opts.FailureRoot == "" {
		return nil, errors.New(errors.ErrInvalidInput, "failure evasion needs a failure root")
	}
	if err := checkRoots(opts); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Collision == "" {
		opts.Collision = flatten.CollisionError
	}

	return &Director{
		fs:        fsys,
		opts:      opts,
		registry:  archive.NewRegistry(fsys, archive.RegistryOptions{Deny: opts.Deny, Sniff: opts.Sniff}),
		flattener: flatten.New(fsys, opts.Collision),
		logger:    logging.GetLogger("expansion"),
	}, nil
}

// checkRoots refuses roots that overlap. Leftover cleanup in the umbrella
// would otherwise delete quarantined or failed inputs.
func checkRoots(opts Options) error {
	roots := []struct{ name, path string }{
		{"expansion", opts.ExpansionRoot},
		{"quarantine", opts.QuarantineRoot},
		{"failure", opts.FailureRoot},
	}
	for i, a := range roots {
		for _, b := range roots[i+1:] {
			if a.path == "" || b.path == "" {
				continue
			}
			if paths.Overlaps(a.path, b.path) {
				return errors.Newf(errors.ErrInvalidInput, "%s root %s overlaps %s root %s", a.name, a.path, b.name, b.path)
			}
		}
	}
	return nil
}

// Registry exposes the format registry so callers can add formats
func (d *Director) Registry() *archive.Registry {
	return d.registry
}

// Process handles one input and reports what happened to it. It never
// panics on bad input and never returns without a Result.
func (d *Director) Process(ctx context.Context, input string) (res Result) {
	res = Result{Input: input, Started: time.Now(), DryRun: d.opts.DryRun}
	defer func() {
		res.Duration = time.Since(res.Started)
	}()

	logger := d.logger.With().Str("input", input).Logger()

	if err := ctx.Err(); err != nil {
		return d.fail(logger, res, errors.Wrap(err, errors.ErrCanceled, "not processed"))
	}

	sel, err := d.registry.Select(input)
	if err != nil {
		return d.fail(logger, res, err)
	}
	res.Handler = sel.Handler
	logger.Debug().Str("handler", sel.Handler).Str("reason", sel.Reason).Msg("Selected handler")

	umbrella := d.umbrellaFor(input)

	if d.opts.DryRun {
		return d.plan(logger, res, umbrella)
	}

	env := archive.Env{
		FS:             d.fs,
		Umbrella:       umbrella,
		StagingRoot:    d.opts.ExpansionRoot,
		QuarantineRoot: d.opts.QuarantineRoot,
		Flattener:      d.flattener,
		Limits:         d.opts.Limits,
	}

	handler, err := sel.Factory(input, env)
	if err != nil {
		return d.fail(logger, res, err)
	}

	if err := handler.Expand(ctx); err != nil {
		res = d.fail(logger, res, err)
		if d.opts.EvadeFailures && sel.Handler != archive.UnrecognizedHandlerName && !archive.Delivered(err) {
			res.Destination = d.evade(logger, input)
		}
		return res
	}

	if relocator, ok := handler.(archive.Relocator); ok {
		res.Outcome = Quarantined
		res.Destination = relocator.Destination()
	} else {
		res.Outcome = Expanded
		res.Destination = umbrella
	}

	logger.Info().
		Str("outcome", res.Outcome.String()).
		Str("handler", res.Handler).
		Str("destination", res.Destination).
		Msg("Processed input")

	return res
}

// umbrellaFor returns the umbrella an input expands into
func (d *Director) umbrellaFor(input string) string {
	if !d.opts.PerArchiveUmbrella {
		return d.opts.ExpansionRoot
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = base
	}
	return filepath.Join(d.opts.ExpansionRoot, stem)
}

// plan fills a dry-run result from the selected handler
func (d *Director) plan(logger zerolog.Logger, res Result, umbrella string) Result {
	if res.Handler == archive.UnrecognizedHandlerName {
		res.Outcome = Quarantined
		if strings.TrimSpace(res.Input) != "" {
			res.Destination = filepath.Join(
				archive.QuarantineDir(d.opts.QuarantineRoot, res.Input),
				filepath.Base(res.Input),
			)
		}
	} else {
		res.Outcome = Expanded
		res.Destination = umbrella
	}

	logger.Info().
		Str("outcome", res.Outcome.String()).
		Str("handler", res.Handler).
		Str("destination", res.Destination).
		Msg("Would process input")

	return res
}

func (d *Director) fail(logger zerolog.Logger, res Result, err error) Result {
	res.Outcome = Failed
	res.Reason = err
	logger.Error().
		Err(err).
		Str("code", string(errors.GetErrorCode(err))).
		Str("handler", res.Handler).
		Msg("Failed to process input")
	return res
}

// evade moves a failed input to the failure root so it is not picked up
// again. It returns the new location, or "" when the input stays put.
func (d *Director) evade(logger zerolog.Logger, input string) string {
	exists, err := filesystem.Exists(d.fs, input)
	if err != nil || !exists {
		return ""
	}

	if err := d.fs.MkdirAll(d.opts.FailureRoot, 0755); err != nil {
		logger.Warn().Err(err).Str("root", d.opts.FailureRoot).Msg("Cannot create failure root")
		return ""
	}

	target, err := d.freeFailurePath(filepath.Base(input))
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot pick a failure path")
		return ""
	}

	if err := filesystem.Move(d.fs, input, target); err != nil {
		logger.Warn().Err(err).Str("target", target).Msg("Cannot move failed input")
		return ""
	}

	logger.Info().Str("destination", target).Msg("Moved failed input aside")
	return target
}

// freeFailurePath never overwrites an earlier failure with the same name
func (d *Director) freeFailurePath(base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(d.opts.FailureRoot, base)
	for n := 1; ; n++ {
		exists, err := filesystem.Exists(d.fs, candidate)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrFilesystem, "cannot check %s", candidate)
		}
		if !exists {
			return candidate, nil
		}
		if n > 10000 {
			return "", errors.Newf(errors.ErrCollision, "no free name for %s in %s", base, d.opts.FailureRoot)
		}
		candidate = filepath.Join(d.opts.FailureRoot, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}
