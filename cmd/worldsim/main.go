// Command worldsim runs utility-AI agents: a persistent survival world,
// tactical skirmishes, and one-off reasoner evaluations.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/WestonVincze/utility-ai/internal/config"
)

// app carries state resolved once by the root command and shared by every
// subcommand.
type app struct {
	cfgPath  string
	logLevel string
	cfg      config.SimConfig
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "worldsim",
		Short: "Utility-AI agents deciding what to do next",
		Long: `worldsim scores every action an agent could take against what the agent
currently knows and runs the best one.

  run       a persistent survival world on a generated hex map
  skirmish  a tactical battle between two factions
  eval      score a YAML reasoner against a single context`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file (WORLDSIM_* env vars override it)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newRunCmd(a), newSkirmishCmd(a), newEvalCmd(a))
	return root
}

// init loads configuration and installs the default logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	a.cfg = cfg
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
