// Package archive expands one input file at a time.
//
// A Handler is built for a single input by a Factory. The ZIP handler
// extracts into a private staging directory, flattens it and merges the
// flat result into the umbrella directory before deleting the input. The
// unrecognized handler moves the input, unchanged, into a copied-<stem>
// quarantine directory.
//
// Dispatch lives in Registry: file extensions map to factories, with
// content sniffing for unknown extensions and the unrecognized handler as
// the fallback.
package archive
