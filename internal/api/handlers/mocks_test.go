package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"eprice/internal/core"
	"eprice/internal/types"
)

type mockPriceService struct {
	mock.Mock
}

func (m *mockPriceService) GetSeries(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error) {
	args := m.Called(ctx, tr)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceService) Latest(ctx context.Context) ([]types.PricePoint, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceService) Today(ctx context.Context) ([]types.PricePoint, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceService) HourlyAverages(ctx context.Context, tr types.TimeRange) ([]types.HourlyAverage, error) {
	args := m.Called(ctx, tr)
	if r := args.Get(0); r != nil {
		return r.([]types.HourlyAverage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceService) WeekdayAverages(ctx context.Context, tr types.TimeRange, local bool) ([]types.WeekdayAverage, error) {
	args := m.Called(ctx, tr, local)
	if r := args.Get(0); r != nil {
		return r.([]types.WeekdayAverage), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDatasetService struct {
	mock.Mock
}

func (m *mockDatasetService) GetSeries(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error) {
	args := m.Called(ctx, datasetID, tr)
	if r := args.Get(0); r != nil {
		return r.([]types.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDatasetService) Latest(ctx context.Context, datasetID int) (types.DataPoint, error) {
	args := m.Called(ctx, datasetID)
	return args.Get(0).(types.DataPoint), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve mounts the registrar under /v1 and replays the request through a real
// chi router so URL params resolve as in production.
func serve(register func(chi.Router), r *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/v1", register)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func testValidator() *core.Validator {
	return core.NewValidator(testLogger())
}
