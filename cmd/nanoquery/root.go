package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/nanoquery/formats"
	"github.com/arthur-debert/nanoquery/internal/config"
	"github.com/arthur-debert/nanoquery/internal/logging"
	"github.com/arthur-debert/nanoquery/nanoquery/store"
)

// app carries what every subcommand needs once configuration is resolved
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *logging.ZapLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "nanoquery",
		Short: "Run structured queries against a local document snapshot",
		Long: `nanoquery loads documents from a YAML or JSON snapshot and evaluates
query definitions against them.

Configuration sources, highest precedence first:
  1. Command line flags
  2. Environment variables (NANOQUERY_DOCS, NANOQUERY_FORMAT, ...)
  3. NANOQUERY_CONFIG, ./nanoquery.yaml or ~/.nanoquery/nanoquery.yaml

Examples:
  nanoquery --docs rooms.yaml run unread.yaml
  nanoquery explain unread.yaml
  nanoquery add rooms --id eros --set unread=3 --set tags='[general]'`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.LoggingConfig())
			a.logger.Debug("configuration resolved",
				"docs", cfg.Docs,
				"format", cfg.Format,
				"config_file", a.v.ConfigFileUsed())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyDocs, "nanoquery.json", "document snapshot file (.yaml, .yml or .json)")
	flags.StringP(config.KeyFormat, "f", "plaintext", fmt.Sprintf("result format %v", formats.List()))
	flags.String(config.KeyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, "text", "log format (text, json)")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newExplainCmd(a))
	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newViewsCmd(a))
	return rootCmd
}

// openStore opens the configured snapshot
func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.Docs, store.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open documents: %w", err)
	}
	return s, nil
}
