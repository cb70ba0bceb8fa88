// Package types defines the shared domain model for the Eprice market-data
// service: validated time ranges, the local/UTC storage boundary, hourly data
// point shapes for both provider families, and the application error type.
package types

import "time"

// Well-known grid dataset identifiers. The grid provider exposes one numeric
// id per series; these are the three the API serves.
const (
	DatasetWindPower   = 245
	DatasetConsumption = 165
	DatasetProduction  = 241
)

// KnownDataset reports whether id is one of the series this service exposes.
func KnownDataset(id int) bool {
	switch id {
	case DatasetWindPower, DatasetConsumption, DatasetProduction:
		return true
	}
	return false
}

// PricePoint is one hour of spot price data on the wire. StartDate is always
// a UTC-aware, hour-aligned instant; Price is c/kWh.
type PricePoint struct {
	StartDate time.Time `json:"startDate"`
	Price     float64   `json:"price"`
}

// DataPoint is one hourly value from the grid provider (wind, consumption,
// production). Both instants are UTC-aware and EndTime = StartTime + 1h.
type DataPoint struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Value     float64   `json:"value"`
}

// HourlyAverage is the mean value for one Helsinki-local hour of day across
// a reconciled series. Hours with no points are omitted, not zero-filled.
type HourlyAverage struct {
	Hour     int     `json:"hour"`
	AvgPrice float64 `json:"avgPrice"`
}

// WeekdayAverage is the mean value for one weekday (0=Monday ... 6=Sunday)
// across a reconciled series.
type WeekdayAverage struct {
	Weekday  int     `json:"weekday"`
	AvgPrice float64 `json:"avgPrice"`
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time { return time.Now().UTC() }
