package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/icetime/internal/config"
	"github.com/okian/icetime/pkg/logger"
)

// globals holds what the persistent flags and config loading produce.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "icetime",
		Short:         "Time on ice by strength state and empty-net situation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "",
		"YAML config file (default $ICETIME_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "",
		"log level (debug, info, warn, error); overrides the config")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "",
		"log format (text, json); overrides the config")

	cmd.AddCommand(newComputeCmd(g))
	cmd.AddCommand(newServeCmd(g))
	return cmd
}

// load layers defaults, file, env and flags, then sets up logging.
func (g *globals) load(cmd *cobra.Command) error {
	path := g.configPath
	if path == "" {
		path = os.Getenv("ICETIME_CONFIG")
	}
	cfg, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}

	// stdout carries command output; logs go to stderr.
	if err := logger.InitWith(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	g.cfg = cfg
	return nil
}
