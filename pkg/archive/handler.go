package archive

import (
	"context"

	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/flatten"
)

// Handler expands a single input file. Expand consumes the input: it is
// deleted once expanded or moved when it cannot be expanded.
type Handler interface {
	// Name identifies the handler variant, e.g. "zip"
	Name() string

	// Input is the file this handler was built for
	Input() string

	// Expand performs the work
	Expand(ctx context.Context) error
}

// Relocator is implemented by handlers that move their input somewhere
// instead of expanding it
type Relocator interface {
	// Destination is where the input was moved, empty before Expand
	Destination() string
}

// Factory builds a handler for one input
type Factory func(input string, env Env) (Handler, error)

// Limits bound what a single archive may expand to
type Limits struct {
	MaxEntries    int
	MaxEntryBytes int64
	MaxTotalBytes int64
}

// DefaultLimits are used when a field of Env.Limits is zero
var DefaultLimits = Limits{
	MaxEntries:    100000,
	MaxEntryBytes: 1 << 30,
	MaxTotalBytes: 4 << 30,
}

func (l Limits) withDefaults() Limits {
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultLimits.MaxEntries
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = DefaultLimits.MaxEntryBytes
	}
	if l.MaxTotalBytes <= 0 {
		l.MaxTotalBytes = DefaultLimits.MaxTotalBytes
	}
	return l
}

// Env carries everything a handler needs; handlers hold no global state
type Env struct {
	FS filesystem.FS

	// Umbrella receives the flat result of an expansion
	Umbrella string

	// StagingRoot holds private per-archive extraction directories. It may
	// be the umbrella itself; staging directories are never treated as
	// leftovers.
	StagingRoot string

	// QuarantineRoot receives copied-<stem> directories
	QuarantineRoot string

	Flattener *flatten.Flattener
	Limits    Limits
}
