// Package config loads CLI settings from a config file, the environment,
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "QGENIE"

// Config holds CLI settings.
type Config struct {
	Workers          int    `mapstructure:"workers"`
	Strict           bool   `mapstructure:"strict"`
	RemovePartial    bool   `mapstructure:"remove_partial"`
	MaxDecoderMemory string `mapstructure:"max_decoder_memory"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	NoProgress       bool   `mapstructure:"no_progress"`

	// DecoderMemoryLimit is MaxDecoderMemory in bytes; 0 means no limit.
	DecoderMemoryLimit uint64 `mapstructure:"-"`
}

// Load reads the config file at cfgFile, or qgenie.yaml from the home
// directory or the working directory when cfgFile is empty. A missing
// default file is not an error. Environment variables prefixed with
// QGENIE_ override file values.
func Load(cfgFile string) (*Config, error) {
	var paths []string
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		paths = []string{home, "."}
	}
	return load(viper.New(), cfgFile, paths)
}

func load(v *viper.Viper, cfgFile string, paths []string) (*Config, error) {
	v.SetDefault("workers", 0)
	v.SetDefault("strict", false)
	v.SetDefault("remove_partial", false)
	v.SetDefault("max_decoder_memory", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("no_progress", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName("qgenie")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values and fills DecoderMemoryLimit.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must be >= 0", c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat)
	}

	c.DecoderMemoryLimit = 0
	if c.MaxDecoderMemory != "" {
		n, err := humanize.ParseBytes(c.MaxDecoderMemory)
		if err != nil {
			return fmt.Errorf("invalid max decoder memory %q: %w", c.MaxDecoderMemory, err)
		}
		c.DecoderMemoryLimit = n
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", c.LogLevel)
	}
	return level, nil
}
