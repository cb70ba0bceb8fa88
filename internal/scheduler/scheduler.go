// Package scheduler drives the background cache maintenance: a daily refresh
// shortly after the next-day spot prices are published, and an optional
// startup backfill that walks the cache forward from a configured instant.
// Both paths go through the reconciliation services, so the scheduler never
// talks to the providers or the database directly.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"eprice/internal/config"
	"eprice/internal/types"
)

// backfillChunk bounds how much of the backfill span one reconciliation pass
// covers, so provider calls and insert batches stay small.
const backfillChunk = 24 * time.Hour

// dailyRefreshTimeout bounds one scheduled refresh run.
const dailyRefreshTimeout = 5 * time.Minute

// PriceBackfiller is the slice of the price service the scheduler uses.
type PriceBackfiller interface {
	GetSeries(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error)
	Latest(ctx context.Context) ([]types.PricePoint, error)
}

// DatasetBackfiller is the slice of the dataset service the scheduler uses.
type DatasetBackfiller interface {
	GetSeries(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error)
}

// Scheduler owns the cron loop and the startup backfill.
type Scheduler struct {
	cfg      config.SchedulerConfig
	prices   PriceBackfiller
	datasets DatasetBackfiller
	clock    types.Clock
	logger   *slog.Logger
	cron     *gocron.Scheduler
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to anchor refresh and backfill windows.
func WithClock(clock types.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// New creates a Scheduler. Call Start to register the daily job and kick off
// the startup backfill.
func New(cfg config.SchedulerConfig, prices PriceBackfiller, datasets DatasetBackfiller, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cfg:      cfg,
		prices:   prices,
		datasets: datasets,
		clock:    types.RealClock{},
		logger:   logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start registers the daily refresh job on the Helsinki clock and launches
// the startup backfill in the background. It returns immediately; use Stop
// for a synchronous shutdown of the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	s.cron = gocron.NewScheduler(types.Helsinki)
	if _, err := s.cron.Every(1).Day().At(s.cfg.DailyAt).Do(s.runDaily); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.logger.Info("scheduler started", slog.String("daily_at", s.cfg.DailyAt))

	if start := s.cfg.BackfillStartTime(); !start.IsZero() {
		go s.Backfill(ctx, start)
	}

	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// runDaily refreshes the published price window and the trailing day of every
// dataset. Failures are logged, never fatal; the next run or the next request
// picks up whatever was missed.
func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), dailyRefreshTimeout)
	defer cancel()

	started := s.clock.Now()
	s.logger.Info("daily refresh starting")

	if err := s.refresh(ctx); err != nil {
		s.logger.Error("daily refresh failed", slog.String("error", err.Error()))
		return
	}

	s.logger.Info("daily refresh finished",
		slog.Duration("elapsed", s.clock.Now().Sub(started)),
	)
}

// refresh runs the price and dataset refreshes concurrently.
func (s *Scheduler) refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := s.prices.Latest(gctx)
		return err
	})

	end := s.clock.Now().Truncate(time.Hour)
	tr := types.TimeRange{Start: end.Add(-24 * time.Hour), End: end}
	for _, id := range []int{types.DatasetWindPower, types.DatasetConsumption, types.DatasetProduction} {
		id := id
		g.Go(func() error {
			_, err := s.datasets.GetSeries(gctx, id, tr)
			return err
		})
	}

	return g.Wait()
}

// Backfill walks the cache forward from start to the current hour in
// day-sized chunks. Each chunk reconciles prices and all three datasets
// concurrently. The walk stops at the first failing chunk; whatever was
// already reconciled stays cached and the next startup resumes cheaply since
// filled chunks diff to zero missing hours.
func (s *Scheduler) Backfill(ctx context.Context, start time.Time) {
	end := s.clock.Now().Truncate(time.Hour)
	if !start.Before(end) {
		return
	}

	s.logger.Info("startup backfill starting",
		slog.String("from", start.Format(time.RFC3339)),
		slog.String("to", end.Format(time.RFC3339)),
	)

	for chunkStart := start.UTC().Truncate(time.Hour); chunkStart.Before(end); chunkStart = chunkStart.Add(backfillChunk) {
		chunkEnd := chunkStart.Add(backfillChunk)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		tr, err := types.NewTimeRange(chunkStart, chunkEnd)
		if err != nil {
			return
		}

		if err := s.backfillChunk(ctx, tr); err != nil {
			s.logger.Error("startup backfill stopped",
				slog.String("chunk_start", chunkStart.Format(time.RFC3339)),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	s.logger.Info("startup backfill finished")
}

func (s *Scheduler) backfillChunk(ctx context.Context, tr types.TimeRange) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := s.prices.GetSeries(gctx, tr)
		return err
	})
	for _, id := range []int{types.DatasetWindPower, types.DatasetConsumption, types.DatasetProduction} {
		id := id
		g.Go(func() error {
			_, err := s.datasets.GetSeries(gctx, id, tr)
			return err
		})
	}

	return g.Wait()
}
