package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"infrapulse/internal/app"
	"infrapulse/internal/config"
	"infrapulse/internal/infrastructure"
)

// globals are the persistent flags shared by every subcommand
type globals struct {
	configFile string
	baseDir    string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "infrapulse",
		Short: "Construction pipeline aggregation and market health scoring",
		Long: `infrapulse collects upcoming construction lettings from state
transportation agencies, extrapolates the regional pipeline and combines it
with economic series into a 0-10 market health score.

Configuration comes from defaults, an optional YAML file (--config or
INFRAPULSE_CONFIG_FILE) and INFRAPULSE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.baseDir, "base-dir", "", "directory that relative data paths resolve against")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(g),
		newServeCmd(g),
		newRegionsCmd(g),
		newHistoryCmd(g),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and installs the logger. Logs go to stderr
// so that stdout carries only command output.
func (g *globals) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if g.configFile != "" {
		cfg, err = config.LoadFrom(g.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if g.baseDir != "" {
		cfg.Paths.BaseDir = g.baseDir
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	g.cfg = cfg
	g.logger = logger
	return nil
}

// application builds the application for a subcommand. The caller closes it.
func (g *globals) application(ctx context.Context) (*app.Application, error) {
	return app.New(ctx, g.cfg, g.logger, app.Options{})
}
