package market

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"eprice/internal/types"
)

// DatasetStore is the cache surface the dataset service needs. Implemented by
// db.DatasetRepo.
type DatasetStore interface {
	InsertBatch(ctx context.Context, datasetID int, points []types.DataPoint) error
	GetRange(ctx context.Context, start, end types.LocalNaive, datasetID int) ([]types.DataPoint, error)
}

// GridProvider is the upstream surface the dataset service needs. Implemented
// by external.GridClient.
type GridProvider interface {
	FetchRange(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error)
	FetchLatest(ctx context.Context, datasetID int) (types.DataPoint, error)
}

// DatasetService serves reconciled grid dataset series (wind power,
// consumption, production).
type DatasetService struct {
	store  DatasetStore
	grid   GridProvider
	logger *slog.Logger
}

// NewDatasetService creates a DatasetService.
func NewDatasetService(store DatasetStore, grid GridProvider, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		store:  store,
		grid:   grid,
		logger: logger,
	}
}

// GetSeries returns the hourly values of one dataset for every slot of the
// range, inclusive of both ends at hour granularity, ascending. Missing hours
// are backfilled from the provider and cached on the way through; on any
// pipeline failure the result comes straight from the provider.
func (s *DatasetService) GetSeries(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error) {
	if !types.KnownDataset(datasetID) {
		return nil, unknownDataset(datasetID)
	}

	points, err := s.reconcile(ctx, datasetID, tr)
	if err != nil {
		s.logger.Warn("dataset reconciliation failed, serving direct provider fetch",
			slog.Int("dataset_id", datasetID),
			slog.String("range", tr.String()),
			slog.String("error", err.Error()),
		)
		return s.grid.FetchRange(ctx, datasetID, types.TimeRange{
			Start: tr.Start.Truncate(time.Hour),
			End:   tr.End.Truncate(time.Hour).Add(time.Hour),
		})
	}
	return points, nil
}

// Latest returns the most recent point of one dataset directly from the
// provider. The point is cached best-effort; a cache write failure does not
// fail the read.
func (s *DatasetService) Latest(ctx context.Context, datasetID int) (types.DataPoint, error) {
	if !types.KnownDataset(datasetID) {
		return types.DataPoint{}, unknownDataset(datasetID)
	}

	p, err := s.grid.FetchLatest(ctx, datasetID)
	if err != nil {
		return types.DataPoint{}, err
	}

	if err := s.store.InsertBatch(ctx, datasetID, []types.DataPoint{p}); err != nil {
		s.logger.Warn("failed to cache latest dataset point",
			slog.Int("dataset_id", datasetID),
			slog.String("error", err.Error()),
		)
	}

	return p, nil
}

func (s *DatasetService) reconcile(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error) {
	cached, err := s.store.GetRange(ctx, types.ToLocalNaive(tr.Start), types.ToLocalNaive(tr.End), datasetID)
	if err != nil {
		return nil, err
	}

	have := make(map[int64]types.DataPoint, len(cached))
	for _, p := range cached {
		have[hourKey(p.StartTime)] = p
	}

	missing := missingHourSlots(tr.Start, tr.End, have)
	if len(missing) > 0 {
		fetched, err := s.grid.FetchRange(ctx, datasetID, enclosingFetchRange(missing))
		if err != nil {
			return nil, err
		}

		var toInsert []types.DataPoint
		for _, p := range fetched {
			k := hourKey(p.StartTime)
			if _, ok := have[k]; ok {
				continue
			}
			if !inSlotRange(p.StartTime, tr.Start, tr.End) {
				continue
			}
			have[k] = p
			toInsert = append(toInsert, p)
		}

		if len(toInsert) > 0 {
			if err := s.store.InsertBatch(ctx, datasetID, toInsert); err != nil {
				return nil, err
			}
		}
	}

	points := make([]types.DataPoint, 0, len(have))
	for _, p := range have {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].StartTime.Before(points[j].StartTime)
	})

	return points, nil
}

func unknownDataset(datasetID int) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeNotFoundDataset,
		fmt.Sprintf("unknown dataset %d", datasetID),
		nil,
		map[string]any{"dataset_id": datasetID},
	)
}
