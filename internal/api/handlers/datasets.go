package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"eprice/internal/core"
	"eprice/internal/types"
)

// DatasetServiceInterface is the service contract for the dataset handler.
type DatasetServiceInterface interface {
	GetSeries(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error)
	Latest(ctx context.Context, datasetID int) (types.DataPoint, error)
}

// DatasetHandler maps HTTP requests to DatasetService methods for the grid
// series (wind power, consumption, production).
type DatasetHandler struct {
	service   DatasetServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewDatasetHandler creates a DatasetHandler.
func NewDatasetHandler(svc DatasetServiceInterface, val *core.Validator, logger *slog.Logger) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the dataset endpoints onto the mux.
func (h *DatasetHandler) RegisterRoutes(r chi.Router) {
	r.Route("/datasets/{datasetID}", func(r chi.Router) {
		r.Get("/series", h.HandleGetSeries)
		r.Post("/range", h.HandlePostRange)
		r.Get("/latest", h.HandleGetLatest)
	})
}

// HandleGetSeries handles GET /v1/datasets/{datasetID}/series.
func (h *DatasetHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	datasetID, err := pathDatasetID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	tr, err := queryTimeRange(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	points, err := h.service.GetSeries(r.Context(), datasetID, tr)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilData(points)})
}

// HandlePostRange handles POST /v1/datasets/{datasetID}/range with a JSON
// time range body.
func (h *DatasetHandler) HandlePostRange(w http.ResponseWriter, r *http.Request) {
	datasetID, err := pathDatasetID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var body rangeRequest
	if err := core.DecodeJSON(w, r, &body); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(body); err != nil {
		core.Error(w, r, err)
		return
	}

	tr, err := parseTimeRange(body.StartTime, body.EndTime)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	points, err := h.service.GetSeries(r.Context(), datasetID, tr)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: nonNilData(points)})
}

// HandleGetLatest handles GET /v1/datasets/{datasetID}/latest.
func (h *DatasetHandler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	datasetID, err := pathDatasetID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	point, err := h.service.Latest(r.Context(), datasetID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: point})
}

// pathDatasetID parses the {datasetID} URL parameter. Non-numeric values are
// a validation error; numeric but unknown ids are rejected by the service
// with a 404.
func pathDatasetID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "datasetID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.NewAppErrorWithDetails(
			types.ErrCodeValidationDataset,
			"dataset id must be numeric",
			err,
			map[string]any{"dataset_id": raw},
		)
	}
	return id, nil
}

func nonNilData(points []types.DataPoint) []types.DataPoint {
	if points == nil {
		return []types.DataPoint{}
	}
	return points
}
