// Command materializer ensures today's recurring task occurrences exist.
//
// By default it runs on a cron schedule (IST) just before the 10:00
// visibility anchor; with -once it performs a single run and prints the
// report as JSON. The core scheduling logic lives in internal/materialize;
// this binary is only the trigger.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cadencehq/cadence/internal/calendar"
	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/materialize"
	"github.com/cadencehq/cadence/internal/recurring"
	storagesql "github.com/cadencehq/cadence/internal/storage/sql"
	"github.com/cadencehq/cadence/pkg/observability"
)

func main() {
	once := flag.Bool("once", false, "run a single materialization and exit")
	dryRun := flag.Bool("dry-run", false, "report what would be created without writing")
	userID := flag.Int64("user", 0, "restrict to one assignee ID (0 = all)")
	flag.Parse()

	if err := run(*once, *dryRun, *userID); err != nil {
		fmt.Fprintf(os.Stderr, "materializer: %v\n", err)
		os.Exit(1)
	}
}

func run(once, dryRun bool, userID int64) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadMaterializerConfig()
	if err != nil {
		return err
	}

	providers, err := observability.Setup(ctx, cfg.ServiceName, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("failed to set up observability: %w", err)
	}
	slog.SetDefault(providers.Logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("observability shutdown failed", "error", err)
		}
	}()

	store, err := storagesql.Open(ctx, storagesql.DBConfig{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN(),
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	stepper := recurring.NewStepper(calendar.NewService(store))
	mat := materialize.New(store, store, stepper)

	opts := materialize.Options{DryRun: dryRun}
	if userID > 0 {
		opts.AssigneeID = &userID
	}

	if once {
		report, err := runOnce(ctx, mat, opts, cfg.OperationTimeout)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	return runScheduled(ctx, mat, opts, cfg)
}

func runOnce(ctx context.Context, mat *materialize.Materializer, opts materialize.Options, timeout time.Duration) (*materialize.Report, error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return mat.Run(opCtx, opts)
}

// runScheduled runs the materializer on the configured cron schedule,
// evaluated in the civil timezone, until the context is cancelled.
func runScheduled(ctx context.Context, mat *materialize.Materializer, opts materialize.Options, cfg *config.MaterializerConfig) error {
	c := cron.New(cron.WithLocation(civiltime.Zone))
	_, err := c.AddFunc(cfg.Schedule, func() {
		opCtx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
		defer cancel()
		if _, err := mat.Run(opCtx, opts); err != nil {
			slog.ErrorContext(opCtx, "scheduled materialization failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	slog.InfoContext(ctx, "materializer scheduler started", "schedule", cfg.Schedule)
	c.Start()

	<-ctx.Done()
	slog.Info("shutdown requested, waiting for in-flight run...")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	slog.Info("materializer stopped gracefully")
	return nil
}
