// Package config resolves CLI settings from flags, NANOQUERY_* environment
// variables and an optional nanoquery.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/arthur-debert/nanoquery/formats"
	"github.com/arthur-debert/nanoquery/internal/logging"
)

const (
	EnvPrefix  = "NANOQUERY"
	ConfigName = "nanoquery"

	KeyDocs      = "docs"
	KeyFormat    = "format"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
)

// Config holds the resolved settings
type Config struct {
	Docs      string `mapstructure:"docs"`
	Format    string `mapstructure:"format"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

// New creates a viper instance with defaults, environment binding and
// config file discovery. NANOQUERY_CONFIG names an explicit file; otherwise
// nanoquery.yaml is looked up in the working directory and
// $HOME/.nanoquery.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDocs, "nanoquery.json")
	v.SetDefault(KeyFormat, "plaintext")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")

	if configFile := os.Getenv(EnvPrefix + "_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nanoquery")
	}

	v.SetEnvPrefix(EnvPrefix)
	// --log-level -> NANOQUERY_LOG_LEVEL
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the settings. A missing
// default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c Config) Validate() error {
	if c.Docs == "" {
		return fmt.Errorf("%s must be set", KeyDocs)
	}
	if _, err := formats.Get(c.Format); err != nil {
		return fmt.Errorf("%s: %w", KeyFormat, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%s: %w", KeyLogFormat, err)
	}
	return nil
}

// LoggingConfig converts the log settings. Call after Validate.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	return logging.Config{Level: level, Format: format}
}
