// Local/UTC boundary types for the cache storage convention.
//
// The wire and every service-level computation use UTC-aware time.Time values.
// The cache tables store naive Europe/Helsinki wall-clock timestamps (a legacy
// of the original schema). LocalNaive makes that projection a distinct type so
// the conversion happens at exactly two points: writing a row (UTC -> local
// naive) and reading one back (local naive -> UTC). Conversions go through the
// IANA zone database, so DST transitions round-trip exactly.
package types

import "time"

// Helsinki is the storage zone for all cached rows.
var Helsinki = mustLoadLocation("Europe/Helsinki")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("loading IANA zone " + name + ": " + err.Error())
	}
	return loc
}

// LocalNaive is a Helsinki wall-clock timestamp with no zone attached.
// It exists only at the repository read/write boundary; never compare it
// against a UTC instant directly.
type LocalNaive struct {
	wall time.Time // wall-clock fields carried in a location-free time.Time
}

// ToLocalNaive projects a UTC-aware instant onto the Helsinki wall clock,
// dropping the zone. This is the write-side conversion.
func ToLocalNaive(t time.Time) LocalNaive {
	l := t.In(Helsinki)
	return LocalNaive{wall: time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)}
}

// LocalNaiveFromDB reinterprets a timestamp read from a `timestamp without
// time zone` column (pgx hands these back with wall-clock fields intact).
func LocalNaiveFromDB(t time.Time) LocalNaive {
	return LocalNaive{wall: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// UTC reinterprets the wall clock as Europe/Helsinki local time and returns
// the corresponding UTC instant. This is the read-side conversion.
func (l LocalNaive) UTC() time.Time {
	w := l.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), Helsinki).UTC()
}

// DBValue returns the bare wall-clock value to bind as a query parameter for
// a `timestamp without time zone` column.
func (l LocalNaive) DBValue() time.Time {
	return l.wall
}

// Date returns the calendar date of the wall clock as year, month, day.
func (l LocalNaive) Date() (int, time.Month, int) {
	return l.wall.Date()
}

// Hour returns the wall-clock hour (0-23).
func (l LocalNaive) Hour() int {
	return l.wall.Hour()
}

// Weekday returns the ISO weekday index: 0=Monday ... 6=Sunday.
func (l LocalNaive) Weekday() int {
	return ISOWeekday(l.wall)
}

// ISOWeekday maps Go's Sunday-first weekday to the 0=Monday ... 6=Sunday
// convention used by the stored rows and the weekday aggregation.
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
