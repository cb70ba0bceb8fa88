package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLocalNaive_WinterOffset(t *testing.T) {
	// Helsinki is UTC+2 in winter.
	utc := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	local := ToLocalNaive(utc)

	assert.Equal(t, 12, local.Hour())
	y, m, d := local.Date()
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.January, m)
	assert.Equal(t, 15, d)
}

func TestToLocalNaive_SummerOffset(t *testing.T) {
	// Helsinki is UTC+3 in summer.
	utc := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	local := ToLocalNaive(utc)

	assert.Equal(t, 13, local.Hour())
}

func TestLocalNaive_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		utc  time.Time
	}{
		{"winter", time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC)},
		{"summer", time.Date(2024, 7, 15, 22, 0, 0, 0, time.UTC)},
		// Spring-forward: 2024-03-31 01:00 UTC is the last hour before the
		// Helsinki clock jumps 03:00 -> 04:00.
		{"before spring forward", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"after spring forward", time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC)},
		// Fall-back: 2024-10-27 01:00 UTC maps to the second occurrence of
		// 04:00 local; the hours around it must still round-trip.
		{"before fall back", time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC)},
		{"after fall back", time.Date(2024, 10, 27, 2, 0, 0, 0, time.UTC)},
		{"midnight boundary", time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToLocalNaive(tc.utc).UTC()
			assert.True(t, got.Equal(tc.utc), "round trip changed %s to %s", tc.utc, got)
		})
	}
}

func TestLocalNaiveFromDB_ReinterpretsWallClock(t *testing.T) {
	// A timestamp-without-time-zone column scans as wall-clock fields in UTC.
	scanned := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	local := LocalNaiveFromDB(scanned)

	// Wall clock 12:00 Helsinki in January is 10:00 UTC.
	require.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), local.UTC())
	assert.Equal(t, scanned, local.DBValue())
}

func TestISOWeekday(t *testing.T) {
	// 2024-05-06 is a Monday.
	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, ISOWeekday(monday.AddDate(0, 0, i)))
	}
}

func TestLocalNaive_Weekday(t *testing.T) {
	// 2024-05-05 22:00 UTC is already Monday 01:00 in Helsinki.
	utc := time.Date(2024, 5, 5, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ToLocalNaive(utc).Weekday())
	assert.Equal(t, 6, ISOWeekday(utc))
}
