package unfold

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Expand downloaded archives into flat directories"
	MsgExpandShort     = "Expand archives and quarantine everything else"
	MsgConfigShort     = "Print the effective configuration as TOML"
	MsgFormatsShort    = "List the archive formats unfold can expand"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	MsgRootLong = `unfold expands downloaded archives into a working directory and flattens
the result, so every archive yields a single level of uniquely named files.
Files that are not archives are set aside in a quarantine directory.`

	MsgConfigLong = `Print the configuration unfold would run with, after merging the built-in
defaults, the config file, UNFOLD_* environment variables and command line
flags. Use --defaults to print the built-in defaults instead.`

	// Flag descriptions
	MsgFlagVerbose        = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun         = "Show what would happen without changing anything"
	MsgFlagConfig         = "Config file (default $XDG_CONFIG_HOME/unfold/config.toml)"
	MsgFlagOutput         = "Output format: auto, term, text, json or yaml"
	MsgFlagNoColor        = "Disable colored output"
	MsgFlagExpansionRoot  = "Directory archives are expanded into"
	MsgFlagQuarantineRoot = "Directory unrecognized files are moved to"
	MsgFlagFailureRoot    = "Directory failed archives are moved to with --evade-failures"
	MsgFlagInbox          = "Process every file in this directory"
	MsgFlagCollision      = "On flattened name collisions: error or suffix"
	MsgFlagPerArchive     = "Give every archive its own umbrella directory"
	MsgFlagWorkers        = "Archives processed at once (needs --per-archive)"
	MsgFlagEvade          = "Move archives that fail to extract to the failure root"
	MsgFlagDefaults       = "Print the built-in defaults"

	// Errors and warnings
	MsgErrNoInputs          = "no input files: pass paths or --inbox"
	MsgErrFailedInputs      = "%d of %d inputs failed"
	MsgErrNoCommand         = "no command specified"
	MsgWorkersNeedsUmbrella = "--workers > 1 has no effect without per-archive umbrellas, processing sequentially"
)

// Long messages kept as text files
var (
	//go:embed msgs/expand-long.txt
	msgExpandLongRaw string
	MsgExpandLong    = strings.TrimSpace(msgExpandLongRaw)

	//go:embed msgs/expand-example.txt
	msgExpandExampleRaw string
	MsgExpandExample    = strings.TrimRight(msgExpandExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
