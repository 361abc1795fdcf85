package config

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	toml2 "github.com/pelletier/go-toml/v2"

	unfolderrors "github.com/arthur-debert/unfold/pkg/errors"
	"github.com/arthur-debert/unfold/pkg/logging"
	"github.com/arthur-debert/unfold/pkg/paths"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "UNFOLD_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// LoadOptions selects the optional configuration sources
type LoadOptions struct {
	// ConfigFile is an explicit config file; when empty the XDG config
	// directory is searched
	ConfigFile string
	// Overrides are dotted keys applied last, e.g. "paths.quarantine"
	Overrides map[string]interface{}
}

// Load builds the configuration from every layer
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, unfolderrors.Wrap(err, unfolderrors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config file
	configFile := opts.ConfigFile
	if configFile == "" {
		p, err := paths.New()
		if err != nil {
			return nil, err
		}
		configFile = p.ConfigFile()
	} else {
		configFile = paths.ExpandHome(configFile)
	}
	if configFile != "" {
		parser, err := parserFor(configFile)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, unfolderrors.Wrapf(err, unfolderrors.ErrConfigLoad, "failed to load config from %s", configFile)
		}
		logger.Debug().Str("path", configFile).Msg("Loaded config file")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, unfolderrors.Wrap(err, unfolderrors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, unfolderrors.Wrap(err, unfolderrors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, unfolderrors.Wrap(err, unfolderrors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("expansion", cfg.Paths.Expansion).
		Str("quarantine", cfg.Paths.Quarantine).
		Str("failure", cfg.Paths.Failure).
		Msg("Configuration loaded")

	return &cfg, nil
}

// envKey maps UNFOLD_SECTION_SOME_KEY to section.some_key
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, unfolderrors.Newf(unfolderrors.ErrConfigLoad, "unsupported config file type: %s", path)
	}
}

// MarshalTOML renders cfg as a TOML document
func MarshalTOML(cfg *Config) ([]byte, error) {
	out, err := toml2.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return out, nil
}

// DefaultTOML returns the embedded defaults file
func DefaultTOML() string {
	return string(defaultConfig)
}
