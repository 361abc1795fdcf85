package testutil

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/arthur-debert/unfold/pkg/filesystem"
)

// FaultyFS wraps an FS and fails chosen operations on chosen paths
type FaultyFS struct {
	filesystem.FS

	mu       sync.Mutex
	faults   map[string]error
	prefixes []prefixFault
	seen     map[string][]string
}

type prefixFault struct {
	op, prefix string
	err        error
}

// NewFaultyFS wraps inner with no faults configured
func NewFaultyFS(inner filesystem.FS) *FaultyFS {
	return &FaultyFS{FS: inner, faults: make(map[string]error), seen: make(map[string][]string)}
}

// FailOn makes op ("rename", "remove", "removeall", "mkdirall", "readdir",
// "openfile") fail with err when applied to path
func (f *FaultyFS) FailOn(op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op+":"+path] = err
}

// FailOnPrefix makes op fail with err for every path starting with prefix
func (f *FaultyFS) FailOnPrefix(op, prefix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefixFault{op: op, prefix: prefix, err: err})
}

// Seen returns every path op was applied to, in call order
func (f *FaultyFS) Seen(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen[op]...)
}

func (f *FaultyFS) fault(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[op] = append(f.seen[op], path)
	if err, ok := f.faults[op+":"+path]; ok {
		return &fs.PathError{Op: op, Path: path, Err: err}
	}
	for _, pf := range f.prefixes {
		if pf.op == op && strings.HasPrefix(path, pf.prefix) {
			return &fs.PathError{Op: op, Path: path, Err: pf.err}
		}
	}
	return nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if err := f.fault("rename", oldpath); err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error {
	if err := f.fault("remove", name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}

func (f *FaultyFS) RemoveAll(path string) error {
	if err := f.fault("removeall", path); err != nil {
		return err
	}
	return f.FS.RemoveAll(path)
}

func (f *FaultyFS) MkdirAll(path string, perm fs.FileMode) error {
	if err := f.fault("mkdirall", path); err != nil {
		return err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := f.fault("readdir", name); err != nil {
		return nil, err
	}
	return f.FS.ReadDir(name)
}

func (f *FaultyFS) OpenFile(name string, flag int, perm fs.FileMode) (filesystem.File, error) {
	if err := f.fault("openfile", name); err != nil {
		return nil, err
	}
	return f.FS.OpenFile(name, flag, perm)
}
