package market

import (
	"math"

	"eprice/internal/types"
)

// hourlyAverages groups points by their Helsinki-local hour of day and
// returns the mean per hour, ascending by hour, rounded to three decimals.
// Hours with no points are omitted rather than zero-filled.
func hourlyAverages(points []types.PricePoint) []types.HourlyAverage {
	var sums [24]float64
	var counts [24]int

	for _, p := range points {
		h := p.StartDate.In(types.Helsinki).Hour()
		sums[h] += p.Price
		counts[h]++
	}

	out := make([]types.HourlyAverage, 0, 24)
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		out = append(out, types.HourlyAverage{
			Hour:     h,
			AvgPrice: round3(sums[h] / float64(counts[h])),
		})
	}
	return out
}

// weekdayAverages groups points by weekday (0=Monday ... 6=Sunday) and
// returns the mean per weekday, ascending, rounded to three decimals. When
// local is true the weekday is taken from the Helsinki wall clock; hours
// around local midnight then land on a different day than in UTC.
func weekdayAverages(points []types.PricePoint, local bool) []types.WeekdayAverage {
	var sums [7]float64
	var counts [7]int

	for _, p := range points {
		t := p.StartDate.UTC()
		if local {
			t = p.StartDate.In(types.Helsinki)
		}
		d := types.ISOWeekday(t)
		sums[d] += p.Price
		counts[d]++
	}

	out := make([]types.WeekdayAverage, 0, 7)
	for d := 0; d < 7; d++ {
		if counts[d] == 0 {
			continue
		}
		out = append(out, types.WeekdayAverage{
			Weekday:  d,
			AvgPrice: round3(sums[d] / float64(counts[d])),
		})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
