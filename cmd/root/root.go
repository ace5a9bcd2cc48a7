// Package root contains the root command for the application
package root

import (
	"context"

	"fjacquet/stmt-ingest/internal/config"
	"fjacquet/stmt-ingest/internal/container"
	"fjacquet/stmt-ingest/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// Cfg is the configuration loaded before any subcommand runs.
	Cfg *config.Config

	// ConfigFile is an explicit config file; empty searches the defaults.
	ConfigFile string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "stmt-ingest",
		Short: "A CLI tool to ingest bank statement CSV exports into categorized transactions.",
		Long: `stmt-ingest reads delimited bank statement exports of unknown layout,
detects their columns, categorizes every transaction into a fixed taxonomy
(with an optional Gemini model), removes duplicates and internal transfers,
and stores the result.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to stmt-ingest!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(Log)

			cfg, err := config.InitializeConfig(ConfigFile)
			if err != nil {
				return err
			}
			if LogLevel != "" {
				cfg.Log.Level = LogLevel
			}
			Cfg = cfg
			Log = config.NewLogger(cfg)
			return nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default searches $HOME/.stmt-ingest, .stmt-ingest and .)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// NewContainer wires the application from the loaded configuration.
func NewContainer(ctx context.Context, opts ...container.Option) (*container.Container, error) {
	opts = append([]container.Option{container.WithLogger(Log)}, opts...)
	return container.NewContainer(ctx, Cfg, opts...)
}
