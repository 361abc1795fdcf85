// Package filesystem provides the filesystem abstraction used by the
// expansion pipeline.
//
// FS is satisfied by the real operating system filesystem (NewOS) and by
// any afero filesystem (NewAferoFS), which the tests use for in-memory trees.
package filesystem
