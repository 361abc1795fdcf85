package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/unfold/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/unfold/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/unfold/internal/version.Date={{.Date}}
)

// Info is the multi-line build description printed by "unfold version"
func Info() string {
	return fmt.Sprintf("unfold version %s\n  commit: %s\n  built:  %s\n", Version, Commit, Date)
}
