package cmd

import (
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marionette/internal/browser"
	"github.com/xkilldash9x/marionette/internal/humanoid"
	"github.com/xkilldash9x/marionette/internal/observability"
	"github.com/xkilldash9x/marionette/internal/scenario"
)

var (
	driveScript string
	driveSeed   int64
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Run an interaction scenario against a live browser session.",
	Long: `Drive launches a browser, then executes the steps of a YAML scenario
(navigate, type, click, scroll, hover, touch, pause) using humanized
timing and motion.`,
	RunE: runDrive,
}

func init() {
	driveCmd.Flags().StringVarP(&driveScript, "script", "s", "", "path to the scenario YAML file (required)")
	driveCmd.Flags().Int64Var(&driveSeed, "seed", 0, "seed for the interaction RNG (0 means random)")
	_ = driveCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(driveCmd)
}

func runDrive(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	sc, err := scenario.Load(driveScript)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	seed := driveSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engine, err := humanoid.New(
		cfg.Humanoid,
		browser.NewCDPExecutor(session, logger),
		browser.NewCDPLocator(session, cfg.Browser.LocateRate, logger),
		humanoid.WithLogger(logger),
		humanoid.WithRandSource(rng),
		humanoid.WithTelemetry(humanoid.NewZapSink(logger)),
	)
	if err != nil {
		return fmt.Errorf("building interaction engine: %w", err)
	}

	logger.Info("driving scenario",
		zap.String("script", driveScript),
		zap.Int64("seed", seed),
		zap.String("engine_session", engine.SessionID()))

	runner := scenario.NewRunner(engine, session, cfg.Humanoid, logger)
	return runner.Run(session.Context(), sc)
}
