// Command sync runs one GotSport sync pass, prints the changes it recorded
// and exits non-zero when the pass fails.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/mercury-team/internal/app"
	"github.com/riskibarqy/mercury-team/internal/config"
	"github.com/riskibarqy/mercury-team/internal/observability"
	"github.com/riskibarqy/mercury-team/internal/platform/logging"
	"github.com/riskibarqy/mercury-team/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName+"-sync", "env", cfg.AppEnv)
	logging.SetDefault(logger)

	code := 0
	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("sync pass failed", "error", err)
		code = 1
	}
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg config.Config, logger *logging.Logger, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() { _ = application.Close() }()

	result, err := application.Sync.Run(ctx)
	if err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

func printResult(out io.Writer, result usecase.SyncResult) {
	if len(result.Changes) == 0 {
		fmt.Fprintf(out, "[%s] no changes\n", result.StartedAt.Format("2006-01-02 15:04:05Z07:00"))
	} else {
		fmt.Fprintf(out, "[%s] %d change(s):\n", result.StartedAt.Format("2006-01-02 15:04:05Z07:00"), len(result.Changes))
		for _, change := range result.Changes {
			fmt.Fprintf(out, "  - %s\n", change)
		}
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintf(out, "  skipped row %s: %s\n", skipped.MatchNumber, skipped.Reason)
	}
	for _, ambiguous := range result.Ambiguities {
		fmt.Fprintf(out, "  ambiguous row %s (%s on %s) matched %v\n", ambiguous.MatchNumber, ambiguous.Opponent, ambiguous.Date, ambiguous.FixtureIDs)
	}
}
