package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eprice/internal/types"
)

func TestDatasetRepo_Insert_IncludesDatasetID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDatasetRepo(db)

	var gotArgs []any
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotArgs = args.Get(2).([]any)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	p := types.DataPoint{
		StartTime: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 7, 15, 11, 0, 0, 0, time.UTC),
		Value:     1234.5,
	}
	require.NoError(t, repo.Insert(context.Background(), types.DatasetWindPower, p, false))

	require.Len(t, gotArgs, 10)
	// 10:00 UTC in July is 13:00 on the Helsinki wall clock.
	assert.Equal(t, time.Date(2024, 7, 15, 13, 0, 0, 0, time.UTC), gotArgs[0])
	assert.Equal(t, 13, gotArgs[5])
	assert.Equal(t, types.DatasetWindPower, gotArgs[7])
	assert.Equal(t, 1234.5, gotArgs[8])
}

func TestDatasetRepo_GetRange_RestampsToUTCAndDerivesEndTime(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDatasetRepo(db)

	rows := newMockRows([][]any{
		{time.Date(2024, 7, 15, 13, 0, 0, 0, time.UTC), 1234.5},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	start := types.ToLocalNaive(time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC))
	end := types.ToLocalNaive(time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC))

	points, err := repo.GetRange(context.Background(), start, end, types.DatasetWindPower)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC), points[0].StartTime)
	assert.Equal(t, time.Date(2024, 7, 15, 11, 0, 0, 0, time.UTC), points[0].EndTime)
	assert.Equal(t, 1234.5, points[0].Value)
}

func TestDatasetRepo_GetRange_PassesDatasetID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDatasetRepo(db)

	var gotArgs []any
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotArgs = args.Get(2).([]any)
		}).
		Return(newMockRows(nil), nil)

	local := types.ToLocalNaive(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	_, err := repo.GetRange(context.Background(), local, local, types.DatasetConsumption)
	require.NoError(t, err)

	require.Len(t, gotArgs, 3)
	assert.Equal(t, types.DatasetConsumption, gotArgs[2])
}

func TestDatasetRepo_GetMissingHours_ScopedToDataset(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDatasetRepo(db)

	rows := newMockRows([][]any{
		{time.Date(2024, 5, 1, 5, 0, 0, 0, time.UTC)},
	})
	var gotArgs []any
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotArgs = args.Get(2).([]any)
		}).
		Return(rows, nil)

	start := types.LocalNaiveFromDB(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	end := types.LocalNaiveFromDB(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	missing, err := repo.GetMissingHours(context.Background(), start, end, types.DatasetProduction)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, MissingHour{Date: "2024-05-01", Hour: 5}, missing[0])
	assert.Equal(t, types.DatasetProduction, gotArgs[2])
}

func TestDatasetRepo_Insert_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDatasetRepo(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("constraint violated"))

	err := repo.Insert(context.Background(), types.DatasetWindPower, types.DataPoint{
		StartTime: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, false)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
