package archive

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/arthur-debert/unfold/pkg/registry"
	"github.com/rs/zerolog"
)

// Format describes an archive format the registry can dispatch to
type Format struct {
	// Name is also the handler name, e.g. "zip"
	Name string
	// Extensions are lower-case and start with a dot
	Extensions []string
	// Magic lists byte prefixes that identify the format by content
	Magic   [][]byte
	Factory Factory
}

// ZipFormat is registered by default
var ZipFormat = Format{
	Name:       ZipHandlerName,
	Extensions: []string{".zip"},
	Magic: [][]byte{
		[]byte("PK\x03\x04"),
		// empty archive
		[]byte("PK\x05\x06"),
	},
	Factory: NewZipHandler,
}

// DefaultDeny lists extensions that are never handed to an expander
var DefaultDeny = []string{".exe", ".dll", ".msi"}

// sniffLen is enough for every registered magic prefix
const sniffLen = 8

// Selection is the outcome of dispatching one input
type Selection struct {
	Handler string
	Factory Factory
	// Reason says why the handler was chosen, for logs and dry runs
	Reason string
}

// RegistryOptions tunes dispatch
type RegistryOptions struct {
	// Deny routes these extensions to the fallback handler
	Deny []string
	// Sniff enables content detection for unknown extensions
	Sniff bool
}

// Registry maps inputs to handler factories. The unrecognized handler is
// the fallback for anything no format claims.
type Registry struct {
	fs         filesystem.FS
	formats    registry.Registry[Format]
	extensions registry.Registry[string]
	deny       map[string]bool
	sniff      bool
	logger     zerolog.Logger
}

// NewRegistry creates a registry with the ZIP format registered
func NewRegistry(fsys filesystem.FS, opts RegistryOptions) *Registry {
	r := &Registry{
		fs:         fsys,
		formats:    registry.New[Format](),
		extensions: registry.New[string](),
		deny:       make(map[string]bool),
		sniff:      opts.Sniff,
		logger:     logging.GetLogger("archive.registry"),
	}
	for _, ext := range opts.Deny {
		r.deny[NormalizeExt(ext)] = true
	}

	if err := r.Register(ZipFormat); err != nil {
		panic(err)
	}
	return r
}

// NormalizeExt lower-cases ext and makes sure it starts with a dot
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Register adds a format. Names and extensions must be unique.
func (r *Registry) Register(format Format) error {
	if format.Factory == nil {
		return errors.Newf(errors.ErrInvalidInput, "format %s has no factory", format.Name)
	}
	if format.Name == UnrecognizedHandlerName {
		return errors.Newf(errors.ErrAlreadyExists, "%s is reserved for the fallback handler", format.Name)
	}

	for _, ext := range format.Extensions {
		if owner, ok := r.extensions.Lookup(NormalizeExt(ext)); ok {
			return errors.Newf(errors.ErrAlreadyExists, "extension %s is already handled by %s", ext, owner)
		}
	}
	if err := r.formats.Register(format.Name, format); err != nil {
		return err
	}
	for _, ext := range format.Extensions {
		if err := r.extensions.Register(NormalizeExt(ext), format.Name); err != nil {
			return err
		}
	}

	r.logger.Trace().Str("format", format.Name).Strs("extensions", format.Extensions).Msg("Registered format")
	return nil
}

// Formats returns the registered formats sorted by name
func (r *Registry) Formats() []Format {
	names := r.formats.List()
	out := make([]Format, 0, len(names))
	for _, name := range names {
		if f, ok := r.formats.Lookup(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// Denied reports whether ext is on the deny list
func (r *Registry) Denied(ext string) bool {
	return r.deny[NormalizeExt(ext)]
}

// Select picks the handler for input. It fails only when input does not
// exist or cannot be inspected.
func (r *Registry) Select(input string) (Selection, error) {
	fallback := func(reason string) (Selection, error) {
		return Selection{Handler: UnrecognizedHandlerName, Factory: NewUnrecognizedHandler, Reason: reason}, nil
	}

	if strings.TrimSpace(input) == "" {
		return fallback("blank input")
	}

	info, err := r.fs.Lstat(input)
	if err != nil {
		if filesystem.IsNotExist(err) {
			return Selection{}, errors.Wrapf(err, errors.ErrNotFound, "input %s does not exist", input)
		}
		return Selection{}, errors.Wrapf(err, errors.ErrFilesystem, "cannot inspect %s", input)
	}
	if info.IsDir() {
		return fallback("input is a directory")
	}
	if !info.Mode().IsRegular() {
		return fallback("input is not a regular file")
	}

	ext := NormalizeExt(filepath.Ext(input))
	if r.deny[ext] {
		return fallback("extension " + ext + " is denied")
	}

	if name, ok := r.extensions.Lookup(ext); ok {
		format, _ := r.formats.Lookup(name)
		return Selection{Handler: format.Name, Factory: format.Factory, Reason: "extension " + ext}, nil
	}

	if r.sniff {
		format, ok, err := r.detect(input)
		if err != nil {
			return Selection{}, err
		}
		if ok {
			return Selection{Handler: format.Name, Factory: format.Factory, Reason: "content signature"}, nil
		}
	}

	if ext == "" {
		return fallback("no extension")
	}
	return fallback("unknown extension " + ext)
}

// detect matches the first bytes of input against registered signatures
func (r *Registry) detect(input string) (Format, bool, error) {
	f, err := r.fs.Open(input)
	if err != nil {
		return Format{}, false, errors.Wrapf(err, errors.ErrFilesystem, "cannot open %s", input)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Format{}, false, errors.Wrapf(err, errors.ErrFilesystem, "cannot read %s", input)
	}
	head = head[:n]

	for _, format := range r.Formats() {
		for _, magic := range format.Magic {
			if len(magic) > 0 && bytes.HasPrefix(head, magic) {
				r.logger.Debug().Str("input", input).Str("format", format.Name).Msg("Detected format by content")
				return format, true, nil
			}
		}
	}
	return Format{}, false, nil
}
