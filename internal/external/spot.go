package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"eprice/internal/config"
	"eprice/internal/types"
)

// SpotClient fetches hourly spot prices from the spot price provider. The
// provider's single-hour endpoint is keyed by Helsinki-local calendar date and
// hour, so range fetches loop hour by hour and re-stamp each result with its
// original UTC instant.
//
// Spot fetches use NoRetryPolicy: a range of N hours makes N requests, and a
// failing provider should abort the loop immediately rather than multiply the
// latency by the retry count.
type SpotClient struct {
	base    *BaseClient
	baseURL string
	clock   types.Clock
	logger  *slog.Logger
}

// SpotClientOption is a functional option for configuring a SpotClient.
type SpotClientOption func(*SpotClient)

// WithSpotBaseClient replaces the underlying BaseClient.
func WithSpotBaseClient(base *BaseClient) SpotClientOption {
	return func(c *SpotClient) {
		c.base = base
	}
}

// WithSpotClock overrides the clock used to resolve "today".
func WithSpotClock(clock types.Clock) SpotClientOption {
	return func(c *SpotClient) {
		c.clock = clock
	}
}

// NewSpotClient creates a spot price provider client.
func NewSpotClient(cfg config.SpotConfig, logger *slog.Logger, opts ...SpotClientOption) *SpotClient {
	if logger == nil {
		logger = slog.Default()
	}

	c := &SpotClient{
		base: NewBaseClient(
			&http.Client{Timeout: cfg.RequestTimeout},
			"spot-provider",
			NoRetryPolicy(),
		),
		baseURL: cfg.BaseURL,
		clock:   types.RealClock{},
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// hourPriceBody is the single-hour endpoint's response.
type hourPriceBody struct {
	Price float64 `json:"price"`
}

// latestPricesBody is the latest-prices endpoint's response.
type latestPricesBody struct {
	Prices []types.PricePoint `json:"prices"`
}

// FetchRange retrieves the spot price for every hour in the half-open range,
// sorted ascending. Any single failed hour aborts the whole range; partial
// results are never returned.
func (c *SpotClient) FetchRange(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error) {
	start := tr.Start.Truncate(time.Hour)

	var points []types.PricePoint
	for h := start; h.Before(tr.End); h = h.Add(time.Hour) {
		p, err := c.fetchHour(ctx, h)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, nil
}

// FetchLatest retrieves the provider's full published window (roughly the
// trailing and upcoming day and a half), sorted ascending by start time.
func (c *SpotClient) FetchLatest(ctx context.Context) ([]types.PricePoint, error) {
	endpoint := c.baseURL + "/latest-prices.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build spot request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.Warn("spot provider request failed", slog.String("error", err.Error()))
		return nil, types.NewAppError(types.ErrCodeUpstreamSpot, "spot provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamSpot,
			fmt.Sprintf("spot provider returned %d", resp.StatusCode),
			nil,
			map[string]any{"status": resp.StatusCode},
		)
	}

	var body latestPricesBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPayload, "failed to decode spot provider response", err)
	}

	points := body.Prices
	for i := range points {
		points[i].StartDate = points[i].StartDate.UTC()
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].StartDate.Before(points[j].StartDate)
	})

	return points, nil
}

// FetchToday filters the latest published batch down to the points falling on
// the current Helsinki calendar day.
func (c *SpotClient) FetchToday(ctx context.Context) ([]types.PricePoint, error) {
	points, err := c.FetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	y, m, d := c.clock.Now().In(types.Helsinki).Date()

	out := make([]types.PricePoint, 0, len(points))
	for _, p := range points {
		py, pm, pd := p.StartDate.In(types.Helsinki).Date()
		if py == y && pm == m && pd == d {
			out = append(out, p)
		}
	}

	return out, nil
}

// fetchHour retrieves the price for one UTC hour via the provider's
// Helsinki-local date/hour endpoint, re-stamped with the UTC instant.
func (c *SpotClient) fetchHour(ctx context.Context, hour time.Time) (types.PricePoint, error) {
	local := types.ToLocalNaive(hour)

	params := url.Values{}
	params.Set("date", local.DBValue().Format("2006-01-02"))
	params.Set("hour", fmt.Sprintf("%d", local.Hour()))

	endpoint := c.baseURL + "/price.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.PricePoint{}, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build spot request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.Warn("spot hour fetch failed",
			slog.String("hour", hour.Format(time.RFC3339)),
			slog.String("error", err.Error()),
		)
		return types.PricePoint{}, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamSpot,
			"spot provider unavailable",
			err,
			map[string]any{"hour": hour.Format(time.RFC3339)},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PricePoint{}, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamSpot,
			fmt.Sprintf("spot provider returned %d", resp.StatusCode),
			nil,
			map[string]any{"hour": hour.Format(time.RFC3339), "status": resp.StatusCode},
		)
	}

	var body hourPriceBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.PricePoint{}, types.NewAppError(types.ErrCodeUpstreamPayload, "failed to decode spot provider response", err)
	}

	return types.PricePoint{StartDate: hour.UTC(), Price: body.Price}, nil
}
