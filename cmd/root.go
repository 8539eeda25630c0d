package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/karnyvex/dominator/internal/app"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "dominator",
	Short: "EVE Online market opportunity finder",
	Long: `Finds trading opportunities on the EVE Online market.

Domination analysis looks at the sell side of a trade hub and finds items whose
cheapest orders can be bought out and relisted at a profit. The arbitrage scanner
compares historical prices of the same item across the major trade hubs.

Historical statistics come from Mokaam, live order books and item names from ESI.
Configuration is read from the environment (and .env), with an optional TOML file
in DOMINATOR_CONFIG_FILE for regions, stations and per-region volume thresholds.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// session is what a one-shot command needs: the loaded config, a logger and the wired app.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	app    *app.App
	ctx    context.Context
	stop   context.CancelFunc
}

// openSession loads the configuration and wires the application for a one-shot run.
// Results are printed by the command itself, so the console result sink is turned off.
func openSession() (*session, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	runCfg := *cfg
	if runCfg.ResultsMode == "console" {
		runCfg.ResultsMode = "none"
	}

	application, err := app.New(&runCfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("create app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &session{
		cfg:    cfg,
		logger: logger,
		app:    application,
		ctx:    ctx,
		stop:   stop,
	}, nil
}

func (s *session) close() {
	s.stop()
	s.app.Close()
	_ = s.logger.Sync()
}
