package market

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"eprice/internal/types"
)

type mockPriceStore struct {
	mock.Mock
}

func (m *mockPriceStore) InsertBatch(ctx context.Context, points []types.PricePoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *mockPriceStore) GetRange(ctx context.Context, start, end types.LocalNaive) ([]types.PricePoint, error) {
	args := m.Called(ctx, start, end)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSpotProvider struct {
	mock.Mock
}

func (m *mockSpotProvider) FetchRange(ctx context.Context, tr types.TimeRange) ([]types.PricePoint, error) {
	args := m.Called(ctx, tr)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSpotProvider) FetchLatest(ctx context.Context) ([]types.PricePoint, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSpotProvider) FetchToday(ctx context.Context) ([]types.PricePoint, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]types.PricePoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDatasetStore struct {
	mock.Mock
}

func (m *mockDatasetStore) InsertBatch(ctx context.Context, datasetID int, points []types.DataPoint) error {
	args := m.Called(ctx, datasetID, points)
	return args.Error(0)
}

func (m *mockDatasetStore) GetRange(ctx context.Context, start, end types.LocalNaive, datasetID int) ([]types.DataPoint, error) {
	args := m.Called(ctx, start, end, datasetID)
	if r := args.Get(0); r != nil {
		return r.([]types.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGridProvider struct {
	mock.Mock
}

func (m *mockGridProvider) FetchRange(ctx context.Context, datasetID int, tr types.TimeRange) ([]types.DataPoint, error) {
	args := m.Called(ctx, datasetID, tr)
	if r := args.Get(0); r != nil {
		return r.([]types.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGridProvider) FetchLatest(ctx context.Context, datasetID int) (types.DataPoint, error) {
	args := m.Called(ctx, datasetID)
	return args.Get(0).(types.DataPoint), args.Error(1)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
