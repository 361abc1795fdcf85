// Package config handles configuration management for unfold.
//
// Configuration is layered, later sources overriding earlier ones:
//  1. embedded defaults (embedded/defaults.toml)
//  2. the user config file (TOML or YAML, picked by extension)
//  3. UNFOLD_* environment variables (UNFOLD_PATHS_QUARANTINE -> paths.quarantine)
//  4. explicit overrides, typically from command-line flags
//
// The result is an explicit Config value handed to the director at
// construction; there is no process-wide configuration singleton.
package config
