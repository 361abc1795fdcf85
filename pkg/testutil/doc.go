// Package testutil provides utilities for testing unfold components.
//
// Key components:
//   - NewTestFS: in-memory filesystem (afero) for fast, isolated tests
//   - WriteTree / ListTree: declarative tree setup and inspection
//   - WriteZip: builds zip archives inline, including hostile entries
//   - FaultyFS: wraps an FS and injects errors for chosen operations
//
// All test data should be defined inline, not in external files.
package testutil
