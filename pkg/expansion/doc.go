// Package expansion is the entry point for processing input files.
//
// A Director selects an archive handler for each input through the archive
// registry, runs it, and maps what happened to a Result: Expanded,
// Quarantined or Failed. A failure never stops the inputs that follow it.
//
// Batches run sequentially unless per-archive umbrellas are enabled, in
// which case up to Workers inputs are processed at once. Inputs that would
// share an umbrella are always processed one after the other.
package expansion
