package market

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"eprice/internal/types"
)

// PriceStore is the cache surface the price service needs. Implemented by
// db.PriceRepo.
type PriceStore interface {
	InsertBatch(ctx context.Context, points []types.PricePoint) error
	GetRange(ctx context.Context, start, end types.LocalNaive) ([]types.PricePoint, error)
}

// SpotProvider is the upstream surface the price service needs. Implemented
// by external.SpotClient.
type SpotProvider interface {
	FetchRange(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error)
	FetchLatest(ctx context.Context) ([]types.PricePoint, error)
	FetchToday(ctx context.Context) ([]types.PricePoint, error)
}

// PriceService serves reconciled spot price series.
type PriceService struct {
	store  PriceStore
	spot   SpotProvider
	clock  types.Clock
	logger *slog.Logger
}

// PriceServiceOption is a functional option for configuring a PriceService.
type PriceServiceOption func(*PriceService)

// WithPriceClock overrides the clock used for the latest/today windows.
func WithPriceClock(clock types.Clock) PriceServiceOption {
	return func(s *PriceService) {
		s.clock = clock
	}
}

// NewPriceService creates a PriceService.
func NewPriceService(store PriceStore, spot SpotProvider, logger *slog.Logger, opts ...PriceServiceOption) *PriceService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &PriceService{
		store:  store,
		spot:   spot,
		clock:  types.RealClock{},
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetSeries returns the hourly spot prices for every slot of the range,
// inclusive of both ends at hour granularity, ascending. Missing hours are
// backfilled from the provider and cached on the way through. If the cached
// pipeline fails for any reason, the result comes straight from the provider
// without touching the cache.
func (s *PriceService) GetSeries(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error) {
	points, err := s.reconcile(ctx, tr)
	if err != nil {
		s.logger.Warn("price reconciliation failed, serving direct provider fetch",
			slog.String("range", tr.String()),
			slog.String("error", err.Error()),
		)
		return s.spot.FetchRange(ctx, enclosingFetchRange([]time.Time{
			tr.Start.Truncate(time.Hour),
			tr.End.Truncate(time.Hour),
		}))
	}
	return points, nil
}

// Latest returns the expected trailing 48-hour window of prices, ending at
// the last published Helsinki hour: tomorrow's prices appear after the 14:00
// publication, so the window ends at the start of the day after tomorrow from
// then on and at the start of tomorrow before it.
func (s *PriceService) Latest(ctx context.Context) ([]types.PricePoint, error) {
	return s.window(ctx, s.latestWindow())
}

// Today returns the prices for the current Helsinki calendar day. On a broken
// cache pipeline it degrades to the provider's own today filter.
func (s *PriceService) Today(ctx context.Context) ([]types.PricePoint, error) {
	local := s.clock.Now().In(types.Helsinki)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, types.Helsinki)
	win := types.TimeRange{
		Start: dayStart.UTC(),
		End:   dayStart.AddDate(0, 0, 1).UTC(),
	}

	points, err := s.windowCached(ctx, win)
	if err != nil {
		s.logger.Warn("price window reconciliation failed, serving direct provider fetch",
			slog.String("range", win.String()),
			slog.String("error", err.Error()),
		)
		return s.spot.FetchToday(ctx)
	}
	return points, nil
}

// HourlyAverages returns the mean price per Helsinki-local hour of day over
// the reconciled series of the range. Hours with no data are omitted.
func (s *PriceService) HourlyAverages(ctx context.Context, tr types.TimeRange) ([]types.HourlyAverage, error) {
	points, err := s.GetSeries(ctx, tr)
	if err != nil {
		return nil, err
	}
	return hourlyAverages(points), nil
}

// WeekdayAverages returns the mean price per weekday (0=Monday) over the
// reconciled series of the range. When local is true the weekday is taken
// from the Helsinki wall clock, otherwise from UTC.
func (s *PriceService) WeekdayAverages(ctx context.Context, tr types.TimeRange, local bool) ([]types.WeekdayAverage, error) {
	points, err := s.GetSeries(ctx, tr)
	if err != nil {
		return nil, err
	}
	return weekdayAverages(points, local), nil
}

// reconcile is the cached read path: diff the range against the cache, fetch
// the minimal enclosing range of the gaps in one provider call, upsert, and
// merge.
func (s *PriceService) reconcile(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error) {
	cached, err := s.store.GetRange(ctx, types.ToLocalNaive(tr.Start), types.ToLocalNaive(tr.End))
	if err != nil {
		return nil, err
	}

	have := make(map[int64]types.PricePoint, len(cached))
	for _, p := range cached {
		have[hourKey(p.StartDate)] = p
	}

	missing := missingHourSlots(tr.Start, tr.End, have)
	if len(missing) > 0 {
		fetched, err := s.spot.FetchRange(ctx, enclosingFetchRange(missing))
		if err != nil {
			return nil, err
		}

		var toInsert []types.PricePoint
		for _, p := range fetched {
			k := hourKey(p.StartDate)
			if _, ok := have[k]; ok {
				continue
			}
			if !inSlotRange(p.StartDate, tr.Start, tr.End) {
				continue
			}
			have[k] = p
			toInsert = append(toInsert, p)
		}

		if len(toInsert) > 0 {
			if err := s.store.InsertBatch(ctx, toInsert); err != nil {
				return nil, err
			}
		}
	}

	return sortedPrices(have), nil
}

// window serves a half-open window using the bulk latest-prices feed as the
// gap source, since both views lie inside the provider's published window.
func (s *PriceService) window(ctx context.Context, win types.TimeRange) ([]types.PricePoint, error) {
	points, err := s.windowCached(ctx, win)
	if err != nil {
		s.logger.Warn("price window reconciliation failed, serving direct provider fetch",
			slog.String("range", win.String()),
			slog.String("error", err.Error()),
		)
		latest, ferr := s.spot.FetchLatest(ctx)
		if ferr != nil {
			return nil, ferr
		}
		return filterWindow(latest, win), nil
	}
	return points, nil
}

func (s *PriceService) windowCached(ctx context.Context, win types.TimeRange) ([]types.PricePoint, error) {
	lastSlot := win.End.Add(-time.Hour)

	cached, err := s.store.GetRange(ctx, types.ToLocalNaive(win.Start), types.ToLocalNaive(lastSlot))
	if err != nil {
		return nil, err
	}

	have := make(map[int64]types.PricePoint, len(cached))
	for _, p := range cached {
		have[hourKey(p.StartDate)] = p
	}

	missing := missingHourSlots(win.Start, lastSlot, have)
	if len(missing) > 0 {
		latest, err := s.spot.FetchLatest(ctx)
		if err != nil {
			return nil, err
		}

		var toInsert []types.PricePoint
		for _, p := range latest {
			k := hourKey(p.StartDate)
			if _, ok := have[k]; ok {
				continue
			}
			if !inSlotRange(p.StartDate, win.Start, lastSlot) {
				continue
			}
			have[k] = p
			toInsert = append(toInsert, p)
		}

		if len(toInsert) > 0 {
			if err := s.store.InsertBatch(ctx, toInsert); err != nil {
				return nil, err
			}
		}
	}

	return sortedPrices(have), nil
}

// latestWindow is the expected published 48-hour window: the next day's
// prices are published around 14:00 Helsinki time, so from then on the window
// ends at the start of the Helsinki day after tomorrow, and before then at
// the start of tomorrow. The window reaches back 48 hours from that end.
func (s *PriceService) latestWindow() types.TimeRange {
	local := s.clock.Now().In(types.Helsinki)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, types.Helsinki)

	var end time.Time
	if local.Hour() >= 14 {
		end = dayStart.AddDate(0, 0, 2)
	} else {
		end = dayStart.AddDate(0, 0, 1)
	}

	endUTC := end.UTC()
	return types.TimeRange{Start: endUTC.Add(-48 * time.Hour), End: endUTC}
}

func sortedPrices(have map[int64]types.PricePoint) []types.PricePoint {
	points := make([]types.PricePoint, 0, len(have))
	for _, p := range have {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].StartDate.Before(points[j].StartDate)
	})
	return points
}

func filterWindow(points []types.PricePoint, win types.TimeRange) []types.PricePoint {
	out := make([]types.PricePoint, 0, len(points))
	for _, p := range points {
		if !p.StartDate.Before(win.Start) && p.StartDate.Before(win.End) {
			out = append(out, p)
		}
	}
	return out
}
