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

// gridPageSize is large enough to cover years of hourly data in one page, so
// range fetches never need pagination.
const gridPageSize = 20000

// GridClient fetches hourly dataset series (wind power, consumption,
// production) from the grid data provider. All calls pass through a shared
// RateGate before hitting the wire, and through the embedded BaseClient for
// retries and circuit breaking.
type GridClient struct {
	base    *BaseClient
	baseURL string
	apiKey  string
	gate    *RateGate
	clock   types.Clock
	logger  *slog.Logger
}

// GridClientOption is a functional option for configuring a GridClient.
type GridClientOption func(*GridClient)

// WithGridClock overrides the clock used to anchor latest-point selection.
func WithGridClock(clock types.Clock) GridClientOption {
	return func(c *GridClient) {
		c.clock = clock
	}
}

// WithGridBaseClient replaces the underlying BaseClient, used by tests to
// inject a no-sleep retry loop.
func WithGridBaseClient(base *BaseClient) GridClientOption {
	return func(c *GridClient) {
		c.base = base
	}
}

// NewGridClient creates a grid provider client. The gate is shared across all
// grid callers in the process; pass the same instance everywhere.
func NewGridClient(cfg config.GridConfig, gate *RateGate, logger *slog.Logger, opts ...GridClientOption) *GridClient {
	if logger == nil {
		logger = slog.Default()
	}

	c := &GridClient{
		base: NewBaseClient(
			&http.Client{Timeout: cfg.RequestTimeout},
			"grid-provider",
			RetryPolicy{
				MaxRetries: cfg.MaxRetries,
				MinWait:    cfg.RetryWait,
				MaxWait:    10 * cfg.RetryWait,
			},
		),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		gate:    gate,
		clock:   types.RealClock{},
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// gridEnvelope is the provider's paginated response body.
type gridEnvelope struct {
	Data []gridEntry `json:"data"`
}

type gridEntry struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Value     float64   `json:"value"`
}

// FetchRange retrieves every hourly point of the dataset inside the range,
// sorted ascending by start time. The provider treats the bounds as inclusive
// of any period overlapping them; callers size the range accordingly.
func (c *GridClient) FetchRange(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error) {
	params := url.Values{}
	params.Set("startTime", tr.Start.Format(time.RFC3339))
	params.Set("endTime", tr.End.Format(time.RFC3339))
	params.Set("format", "json")
	params.Set("oneRowPerTimePeriod", "true")
	params.Set("pageSize", fmt.Sprintf("%d", gridPageSize))
	params.Set("locale", "en")
	params.Set("sortBy", "startTime")
	params.Set("sortOrder", "asc")

	entries, err := c.fetch(ctx, datasetID, params)
	if err != nil {
		return nil, err
	}

	points := make([]types.DataPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, types.DataPoint{
			StartTime: e.StartTime.UTC(),
			EndTime:   e.EndTime.UTC(),
			Value:     e.Value,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].StartTime.Before(points[j].StartTime)
	})

	return points, nil
}

// FetchLatest retrieves the most recent point of the dataset: the entry from
// a short trailing window whose period lies closest to the current instant.
func (c *GridClient) FetchLatest(ctx context.Context, datasetID int) (types.DataPoint, error) {
	now := c.clock.Now()
	tr, err := types.NewTimeRange(now.Add(-6*time.Hour), now.Add(time.Hour))
	if err != nil {
		return types.DataPoint{}, err
	}

	points, err := c.FetchRange(ctx, datasetID, tr)
	if err != nil {
		return types.DataPoint{}, err
	}
	if len(points) == 0 {
		return types.DataPoint{}, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamGrid,
			"grid provider returned no recent data",
			nil,
			map[string]any{"dataset_id": datasetID},
		)
	}

	best := points[0]
	bestDist := pointDistance(best, now)
	for _, p := range points[1:] {
		if d := pointDistance(p, now); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, nil
}

// pointDistance is how far a point's period lies from the instant t, taking
// the nearer of its two bounds.
func pointDistance(p types.DataPoint, t time.Time) time.Duration {
	ds := t.Sub(p.StartTime).Abs()
	de := t.Sub(p.EndTime).Abs()
	if de < ds {
		return de
	}
	return ds
}

func (c *GridClient) fetch(ctx context.Context, datasetID int, params url.Values) ([]gridEntry, error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamGrid,
			"cancelled while waiting for rate gate",
			err,
			map[string]any{"dataset_id": datasetID},
		)
	}

	endpoint := fmt.Sprintf("%s/datasets/%d/data?%s", c.baseURL, datasetID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build grid request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.Warn("grid provider request failed",
			slog.Int("dataset_id", datasetID),
			slog.String("error", err.Error()),
		)
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamGrid,
			"grid provider unavailable",
			err,
			map[string]any{"dataset_id": datasetID},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamGrid,
			fmt.Sprintf("grid provider returned %d", resp.StatusCode),
			nil,
			map[string]any{"dataset_id": datasetID, "status": resp.StatusCode},
		)
	}

	var envelope gridEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamPayload,
			"failed to decode grid provider response",
			err,
			map[string]any{"dataset_id": datasetID},
		)
	}

	return envelope.Data, nil
}
