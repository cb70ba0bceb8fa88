package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeRange_Valid(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

	r, err := NewTimeRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, start, r.Start)
	assert.Equal(t, end, r.End)
}

func TestNewTimeRange_Inverted(t *testing.T) {
	start := time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewTimeRange(start, end)
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrCodeValidationTimeRange, appErr.Code)
	assert.Equal(t, 400, appErr.HTTPStatus())
}

func TestNewTimeRange_Empty(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewTimeRange(at, at)
	require.Error(t, err)
}

func TestNewTimeRange_NormalizesToUTC(t *testing.T) {
	start := time.Date(2024, 5, 1, 3, 0, 0, 0, Helsinki)
	end := time.Date(2024, 5, 1, 6, 0, 0, 0, Helsinki)

	r, err := NewTimeRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, r.Start.Location())
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), r.Start)
}

func TestTimeRange_Contains(t *testing.T) {
	r, err := NewTimeRange(
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(time.Date(2024, 5, 1, 2, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.Start.Add(-time.Second)))
}
