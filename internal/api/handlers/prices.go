// Package handlers contains the HTTP handler implementations for the Eprice
// API. Handlers parse and validate the request, delegate to the domain
// services, and write the standard response envelopes; they hold no domain
// logic of their own.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"eprice/internal/core"
	"eprice/internal/types"
)

// PriceServiceInterface is the service contract for the price handler,
// defined locally to avoid tight coupling to the market package.
type PriceServiceInterface interface {
	GetSeries(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error)
	Latest(ctx context.Context) ([]types.PricePoint, error)
	Today(ctx context.Context) ([]types.PricePoint, error)
	HourlyAverages(ctx context.Context, tr types.TimeRange) ([]types.HourlyAverage, error)
	WeekdayAverages(ctx context.Context, tr types.TimeRange, local bool) ([]types.WeekdayAverage, error)
}

// PriceHandler maps HTTP requests to PriceService methods.
type PriceHandler struct {
	service   PriceServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(svc PriceServiceInterface, val *core.Validator, logger *slog.Logger) *PriceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the price endpoints onto the mux.
func (h *PriceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/", h.HandleGetSeries)
		r.Post("/range", h.HandlePostRange)
		r.Get("/latest", h.HandleGetLatest)
		r.Get("/today", h.HandleGetToday)
		r.Get("/hourly-average", h.HandleGetHourlyAverage)
		r.Get("/weekday-average", h.HandleGetWeekdayAverage)
	})
}

// rangeRequest is the JSON body of the POST range endpoints.
type rangeRequest struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// HandleGetSeries handles GET /v1/prices?startTime=...&endTime=...
func (h *PriceHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	tr, err := queryTimeRange(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	points, err := h.service.GetSeries(r.Context(), tr)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilPrices(points)})
}

// HandlePostRange handles POST /v1/prices/range with a JSON time range body.
func (h *PriceHandler) HandlePostRange(w http.ResponseWriter, r *http.Request) {
	tr, err := h.bodyTimeRange(w, r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	points, err := h.service.GetSeries(r.Context(), tr)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilPrices(points)})
}

// HandleGetLatest handles GET /v1/prices/latest: the expected published
// 48-hour window.
func (h *PriceHandler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Latest(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilPrices(points)})
}

// HandleGetToday handles GET /v1/prices/today: the current Helsinki calendar
// day.
func (h *PriceHandler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Today(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilPrices(points)})
}

// HandleGetHourlyAverage handles GET /v1/prices/hourly-average.
func (h *PriceHandler) HandleGetHourlyAverage(w http.ResponseWriter, r *http.Request) {
	tr, err := queryTimeRange(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	avgs, err := h.service.HourlyAverages(r.Context(), tr)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if avgs == nil {
		avgs = []types.HourlyAverage{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: avgs})
}

// HandleGetWeekdayAverage handles GET /v1/prices/weekday-average. The
// optional helsinki=true query flag groups by the Helsinki wall clock instead
// of UTC.
func (h *PriceHandler) HandleGetWeekdayAverage(w http.ResponseWriter, r *http.Request) {
	tr, err := queryTimeRange(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	local := r.URL.Query().Get("helsinki") == "true"

	avgs, err := h.service.WeekdayAverages(r.Context(), tr, local)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if avgs == nil {
		avgs = []types.WeekdayAverage{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: avgs})
}

// bodyTimeRange decodes and validates a rangeRequest body.
func (h *PriceHandler) bodyTimeRange(w http.ResponseWriter, r *http.Request) (types.TimeRange, error) {
	var body rangeRequest
	if err := core.DecodeJSON(w, r, &body); err != nil {
		return types.TimeRange{}, err
	}
	if err := h.validator.ValidateStruct(body); err != nil {
		return types.TimeRange{}, err
	}
	return parseTimeRange(body.StartTime, body.EndTime)
}

// queryTimeRange extracts startTime and endTime query parameters.
func queryTimeRange(r *http.Request) (types.TimeRange, error) {
	q := r.URL.Query()
	start := q.Get("startTime")
	end := q.Get("endTime")

	if start == "" || end == "" {
		return types.TimeRange{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"startTime and endTime query parameters are required",
			nil,
		)
	}

	return parseTimeRange(start, end)
}

// parseTimeRange parses two RFC 3339 instants into a validated TimeRange.
func parseTimeRange(start, end string) (types.TimeRange, error) {
	startT, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return types.TimeRange{}, types.NewAppErrorWithDetails(
			types.ErrCodeValidationTimestamp,
			"startTime must be a valid RFC 3339 timestamp",
			err,
			map[string]any{"startTime": start},
		)
	}

	endT, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return types.TimeRange{}, types.NewAppErrorWithDetails(
			types.ErrCodeValidationTimestamp,
			"endTime must be a valid RFC 3339 timestamp",
			err,
			map[string]any{"endTime": end},
		)
	}

	return types.NewTimeRange(startT, endT)
}

func nonNilPrices(points []types.PricePoint) []types.PricePoint {
	if points == nil {
		return []types.PricePoint{}
	}
	return points
}
