package config

import (
	"strings"

	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/flatten"
	"github.com/arthur-debert/unfold/pkg/paths"
)

// Config is the complete unfold configuration
type Config struct {
	Paths     PathsConfig     `koanf:"paths" toml:"paths"`
	Expansion ExpansionConfig `koanf:"expansion" toml:"expansion"`
	Limits    LimitsConfig    `koanf:"limits" toml:"limits"`
	Output    OutputConfig    `koanf:"output" toml:"output"`
}

// PathsConfig holds the three roots the pipeline writes to
type PathsConfig struct {
	// Expansion is the umbrella root archives are expanded into
	Expansion string `koanf:"expansion" toml:"expansion"`
	// Quarantine receives copied-<stem> directories for unrecognized inputs
	Quarantine string `koanf:"quarantine" toml:"quarantine"`
	// Failure receives inputs that failed to extract, when evasion is on
	Failure string `koanf:"failure" toml:"failure"`
}

// ExpansionConfig controls dispatch, flattening and batching
type ExpansionConfig struct {
	Collision          string   `koanf:"collision" toml:"collision"`
	PerArchiveUmbrella bool     `koanf:"per_archive_umbrella" toml:"per_archive_umbrella"`
	Workers            int      `koanf:"workers" toml:"workers"`
	EvadeFailures      bool     `koanf:"evade_failures" toml:"evade_failures"`
	Sniff              bool     `koanf:"sniff" toml:"sniff"`
	Deny               []string `koanf:"deny" toml:"deny"`
}

// LimitsConfig bounds what a single archive may expand to
type LimitsConfig struct {
	MaxEntries    int   `koanf:"max_entries" toml:"max_entries"`
	MaxEntryBytes int64 `koanf:"max_entry_bytes" toml:"max_entry_bytes"`
	MaxTotalBytes int64 `koanf:"max_total_bytes" toml:"max_total_bytes"`
}

// OutputConfig controls how run summaries are rendered
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"`
	NoColor bool   `koanf:"no_color" toml:"no_color"`
}

// CollisionPolicy returns the parsed flattening collision policy
func (c *Config) CollisionPolicy() flatten.CollisionPolicy {
	policy, err := flatten.ParseCollisionPolicy(c.Expansion.Collision)
	if err != nil {
		return flatten.CollisionError
	}
	return policy
}

// postProcess fills empty roots with XDG defaults, normalizes paths and
// extensions, then validates the result
func postProcess(cfg *Config) error {
	p, err := paths.New()
	if err != nil {
		return err
	}

	roots := []struct {
		value    *string
		fallback string
	}{
		{&cfg.Paths.Expansion, p.ExpansionRoot()},
		{&cfg.Paths.Quarantine, p.QuarantineRoot()},
		{&cfg.Paths.Failure, p.FailureRoot()},
	}
	for _, root := range roots {
		if strings.TrimSpace(*root.value) == "" {
			*root.value = root.fallback
		}
		normalized, err := paths.Normalize(*root.value)
		if err != nil {
			return err
		}
		*root.value = normalized
	}

	deny := make([]string, 0, len(cfg.Expansion.Deny))
	for _, ext := range cfg.Expansion.Deny {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		deny = append(deny, ext)
	}
	cfg.Expansion.Deny = deny

	return Validate(cfg)
}

// Validate checks a fully resolved configuration
func Validate(cfg *Config) error {
	if _, err := flatten.ParseCollisionPolicy(cfg.Expansion.Collision); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid expansion.collision")
	}
	if cfg.Expansion.Workers < 1 {
		return errors.Newf(errors.ErrConfigValid, "expansion.workers must be at least 1, got %d", cfg.Expansion.Workers)
	}
	if cfg.Limits.MaxEntries < 1 || cfg.Limits.MaxEntryBytes < 1 || cfg.Limits.MaxTotalBytes < 1 {
		return errors.New(errors.ErrConfigValid, "limits must be positive")
	}

	roots := []struct{ name, path string }{
		{"paths.expansion", cfg.Paths.Expansion},
		{"paths.quarantine", cfg.Paths.Quarantine},
		{"paths.failure", cfg.Paths.Failure},
	}
	for i, a := range roots {
		for _, b := range roots[i+1:] {
			if paths.Overlaps(a.path, b.path) {
				return errors.Newf(errors.ErrConfigValid, "%s and %s must be separate directories, neither inside the other", a.name, b.name).
					WithDetail(a.name, a.path).
					WithDetail(b.name, b.path)
			}
		}
	}

	return nil
}
