// Package market implements the reconciliation services behind the API: the
// cache-first read path that backfills missing hours from the providers, the
// latest/today views, and the aggregation queries.
//
// Reconciliation contract: a series read walks every hourly slot of the
// requested range against the cache, fetches the minimal enclosing range of
// the missing slots from the provider in a single call, upserts what came
// back, and returns the merged series ascending. Cached hours are never
// overwritten. If any step of that pipeline fails, the read degrades to a
// direct, uncached provider fetch so the API stays up while the cache or the
// database is unhealthy.
package market

import (
	"time"

	"eprice/internal/types"
)

// hourKey identifies an hourly slot by its UTC hour-truncated unix time.
func hourKey(t time.Time) int64 {
	return t.UTC().Truncate(time.Hour).Unix()
}

// missingHourSlots walks the hourly slots from start through end inclusive
// and returns those absent from have, ascending.
func missingHourSlots[V any](start, end time.Time, have map[int64]V) []time.Time {
	first := start.UTC().Truncate(time.Hour)
	last := end.UTC().Truncate(time.Hour)

	var missing []time.Time
	for h := first; !h.After(last); h = h.Add(time.Hour) {
		if _, ok := have[hourKey(h)]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// enclosingFetchRange returns the minimal half-open range covering every
// missing slot: [first, last+1h). One provider call over this range refreshes
// all gaps, even when they are not contiguous; hours that come back already
// cached are skipped at merge time.
func enclosingFetchRange(missing []time.Time) types.TimeRange {
	return types.TimeRange{
		Start: missing[0],
		End:   missing[len(missing)-1].Add(time.Hour),
	}
}

// inSlotRange reports whether the slot of t lies within [start, end]
// inclusive at hour granularity.
func inSlotRange(t, start, end time.Time) bool {
	slot := t.UTC().Truncate(time.Hour)
	return !slot.Before(start.UTC().Truncate(time.Hour)) && !slot.After(end.UTC().Truncate(time.Hour))
}
