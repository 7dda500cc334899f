package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"S2Grid-App/internal/config"
	"S2Grid-App/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app サブコマンド間で共有する設定とロガー
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&app{v: viper.New()})
}

func buildRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "s2grid",
		Short:         "S2 cell grid and coverage service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			if !cfg.EnvFileLoaded {
				log.Debug(".env file not found, using system environment variables")
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	pf.Int("workers", 0, "coverage worker count (0 = GOMAXPROCS)")
	pf.Int("max-cells", 0, "circle coverage cell budget")
	bindFlag(a.v, "LOG_LEVEL", pf.Lookup("log-level"))
	bindFlag(a.v, "LOG_FORMAT", pf.Lookup("log-format"))
	bindFlag(a.v, "COVERAGE_WORKERS", pf.Lookup("workers"))
	bindFlag(a.v, "COVERAGE_MAX_CELLS", pf.Lookup("max-cells"))

	root.AddCommand(
		newServeCmd(a),
		newCellsCmd(a),
		newCircleCmd(a),
		newGridCmd(a),
	)
	return root
}
