package unfold

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/unfold/internal/version"
	"github.com/arthur-debert/unfold/pkg/archive"
	"github.com/arthur-debert/unfold/pkg/config"
	"github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/expansion"
	"github.com/arthur-debert/unfold/pkg/filesystem"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/arthur-debert/unfold/pkg/ui"
	"github.com/arthur-debert/unfold/pkg/ui/display"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	verbosity      int
	dryRun         bool
	configFile     string
	output         string
	noColor        bool
	expansionRoot  string
	quarantineRoot string
	failureRoot    string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "unfold",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)
	flags.StringVarP(&opts.output, "output", "o", "", MsgFlagOutput)
	flags.BoolVar(&opts.noColor, "no-color", false, MsgFlagNoColor)
	flags.StringVar(&opts.expansionRoot, "expansion-root", "", MsgFlagExpansionRoot)
	flags.StringVar(&opts.quarantineRoot, "quarantine-root", "", MsgFlagQuarantineRoot)
	flags.StringVar(&opts.failureRoot, "failure-root", "", MsgFlagFailureRoot)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newExpandCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newFormatsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// overrides turns the persistent flags that were set into config keys
func (o *globalOptions) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	flags := cmd.Flags()

	set := func(flag, key string, value interface{}) {
		if flags.Changed(flag) {
			out[key] = value
		}
	}
	set("expansion-root", "paths.expansion", o.expansionRoot)
	set("quarantine-root", "paths.quarantine", o.quarantineRoot)
	set("failure-root", "paths.failure", o.failureRoot)
	set("output", "output.format", o.output)
	set("no-color", "output.no_color", o.noColor)

	return out
}

// loadConfig loads the layered configuration with flag overrides on top
func (o *globalOptions) loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	overrides := o.overrides(cmd)
	for k, v := range extra {
		overrides[k] = v
	}
	return config.Load(config.LoadOptions{
		ConfigFile: o.configFile,
		Overrides:  overrides,
	})
}

// newRenderer picks the renderer for cmd's output from the configuration
func newRenderer(cmd *cobra.Command, cfg *config.Config) (ui.Renderer, error) {
	format, err := ui.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "invalid output.format")
	}

	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok {
		format = ui.Resolve(format, f, cfg.Output.NoColor)
	} else if format == ui.FormatAuto || (format == ui.FormatTerminal && cfg.Output.NoColor) {
		format = ui.FormatText
	}

	return ui.NewRenderer(format, out)
}

func newExpandCmd(opts *globalOptions) *cobra.Command {
	var (
		inbox         string
		collision     string
		perArchive    bool
		workers       int
		evadeFailures bool
	)

	cmd := &cobra.Command{
		Use:     "expand [files...]",
		Short:   MsgExpandShort,
		Long:    MsgExpandLong,
		Example: MsgExpandExample,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.expand")

			extra := map[string]interface{}{}
			flags := cmd.Flags()
			if flags.Changed("collision") {
				extra["expansion.collision"] = collision
			}
			if flags.Changed("per-archive") {
				extra["expansion.per_archive_umbrella"] = perArchive
			}
			if flags.Changed("workers") {
				extra["expansion.workers"] = workers
			}
			if flags.Changed("evade-failures") {
				extra["expansion.evade_failures"] = evadeFailures
			}

			cfg, err := opts.loadConfig(cmd, extra)
			if err != nil {
				return err
			}
			renderer, err := newRenderer(cmd, cfg)
			if err != nil {
				return err
			}

			fsys := filesystem.NewOS()
			inputs, err := collectInputs(fsys, args, inbox)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.New(errors.ErrInvalidInput, MsgErrNoInputs)
			}

			dirOpts := expansion.OptionsFromConfig(cfg)
			dirOpts.DryRun = opts.dryRun
			if dirOpts.Workers > 1 && !dirOpts.PerArchiveUmbrella {
				logger.Warn().Int("workers", dirOpts.Workers).Msg(MsgWorkersNeedsUmbrella)
			}

			director, err := expansion.New(fsys, dirOpts)
			if err != nil {
				return err
			}

			logger.Info().
				Int("inputs", len(inputs)).
				Bool("dryRun", opts.dryRun).
				Bool("concurrent", director.Concurrent()).
				Msg("Starting expansion")

			results := director.ProcessAll(cmd.Context(), inputs)
			report := display.FromResults("expand", results, opts.dryRun)
			if err := renderer.RenderResult(report); err != nil {
				return err
			}

			if report.HasFailures() {
				return errors.Newf(errors.ErrPartialFailure, MsgErrFailedInputs, report.Summary.Failed, report.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inbox, "inbox", "i", "", MsgFlagInbox)
	cmd.Flags().StringVar(&collision, "collision", "", MsgFlagCollision)
	cmd.Flags().BoolVar(&perArchive, "per-archive", false, MsgFlagPerArchive)
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, MsgFlagWorkers)
	cmd.Flags().BoolVar(&evadeFailures, "evade-failures", false, MsgFlagEvade)

	return cmd
}

// collectInputs resolves command line paths and the inbox's files, in
// order, as absolute paths. Hidden inbox entries and subdirectories are
// skipped.
func collectInputs(fsys filesystem.FS, args []string, inbox string) ([]string, error) {
	var inputs []string

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", arg)
		}
		inputs = append(inputs, abs)
	}

	if inbox == "" {
		return inputs, nil
	}

	dir, err := filepath.Abs(inbox)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve inbox %s", inbox)
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if filesystem.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrNotFound, "inbox %s does not exist", dir)
		}
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "cannot read inbox %s", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}

	return inputs, nil
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := cmd.OutOrStdout().Write([]byte(config.DefaultTOML()))
				return err
			}

			cfg, err := opts.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			out, err := config.MarshalTOML(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}

func newFormatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "formats",
		Short:   MsgFormatsShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			renderer, err := newRenderer(cmd, cfg)
			if err != nil {
				return err
			}

			reg := archive.NewRegistry(filesystem.NewOS(), archive.RegistryOptions{
				Deny:  cfg.Expansion.Deny,
				Sniff: cfg.Expansion.Sniff,
			})

			var infos []display.FormatInfo
			for _, f := range reg.Formats() {
				infos = append(infos, display.FormatInfo{
					Name:       f.Name,
					Extensions: f.Extensions,
					Sniffable:  cfg.Expansion.Sniff && len(f.Magic) > 0,
				})
			}
			return renderer.RenderResult(infos)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = cmd.OutOrStdout().Write([]byte(version.Info()))
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
