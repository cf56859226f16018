// Package config loads objgen settings from a config file, OBJGEN_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings shared by CLI commands.
type Config struct {
	// Limit is the default result limit for enumerate. 0 means no limit.
	Limit int `mapstructure:"limit"`

	// MaxRounds bounds enumeration rounds. 0 means unlimited.
	MaxRounds int `mapstructure:"max_rounds"`

	// Format is the output format, text or json.
	Format string `mapstructure:"format"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`

	// DerivationCheck makes enumerations fail if a rule application is
	// resolved twice.
	DerivationCheck bool `mapstructure:"derivation_check"`
}

// Options says where to look for settings.
type Options struct {
	// File is an explicit config file. It must exist.
	File string

	// Dir is searched for objgen.yaml or objgen.toml when File is empty.
	// Defaults to the working directory. A missing file there is fine.
	Dir string

	// Flags are bound by name: a flag that was set on the command line
	// overrides every other source. Underscores in keys match dashes in
	// flag names (max_rounds <- --max-rounds).
	Flags *pflag.FlagSet
}

var defaults = map[string]any{
	"limit":            100,
	"max_rounds":       0,
	"format":           FormatText,
	"verbose":          false,
	"derivation_check": false,
}

// Load reads configuration, applying built-in defaults for any values not
// set by config file, environment or flags.
func Load(opts Options) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName("objgen")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("OBJGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	if opts.Flags != nil {
		for k := range defaults {
			if f := opts.Flags.Lookup(strings.ReplaceAll(k, "_", "-")); f != nil {
				if err := v.BindPFlag(k, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("config: format must be %s or %s, got %q", FormatText, FormatJSON, c.Format)
	}
	if c.Limit < 0 {
		return fmt.Errorf("config: limit must be non-negative, got %d", c.Limit)
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("config: max_rounds must be non-negative, got %d", c.MaxRounds)
	}
	return nil
}
