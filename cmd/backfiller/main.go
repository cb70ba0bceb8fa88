// Package main is the entry point for the one-shot backfiller. It wires the
// same reconciliation services as the API server and walks the cache forward
// from a given instant, then exits. Useful for seeding a fresh database or
// repairing a gap without waiting for the in-process scheduler.
//
// Usage:
//
//	backfiller -start 2024-01-01T00:00:00Z
//
// When -start is omitted, SCHEDULER_BACKFILL_START from the environment is
// used instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"eprice/internal/config"
	"eprice/internal/db"
	"eprice/internal/external"
	"eprice/internal/market"
	"eprice/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	startFlag := flag.String("start", "", "RFC 3339 instant to backfill from (defaults to SCHEDULER_BACKFILL_START)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	start := cfg.Scheduler.BackfillStartTime()
	if *startFlag != "" {
		start, err = time.Parse(time.RFC3339, *startFlag)
		if err != nil {
			return fmt.Errorf("parsing -start: %w", err)
		}
		start = start.UTC()
	}
	if start.IsZero() {
		return fmt.Errorf("no backfill start given: set -start or SCHEDULER_BACKFILL_START")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	gate := external.NewRateGate(cfg.Grid.MinCallInterval)
	gridClient := external.NewGridClient(cfg.Grid, gate, logger)
	spotClient := external.NewSpotClient(cfg.Spot, logger)

	priceService := market.NewPriceService(db.NewPriceRepo(pool), spotClient, logger)
	datasetService := market.NewDatasetService(db.NewDatasetRepo(pool), gridClient, logger)

	sched := scheduler.New(cfg.Scheduler, priceService, datasetService, logger)
	sched.Backfill(ctx, start)

	return nil
}
