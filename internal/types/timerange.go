package types

import (
	"fmt"
	"time"
)

// TimeRange is a validated [Start, End) interval of UTC instants. It is the
// unit of every range query in the system: handlers construct one per request
// and pass it down unchanged. A TimeRange is immutable after construction.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange constructs a TimeRange from two timezone-aware instants.
// Both bounds are normalized to UTC. Construction fails with
// validation_invalid_time_range when start >= end, before any I/O occurs.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	start = start.UTC()
	end = end.UTC()
	if !start.Before(end) {
		return TimeRange{}, NewAppError(
			ErrCodeValidationTimeRange,
			fmt.Sprintf("start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)),
			nil,
		)
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the half-open interval [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// String returns the range in RFC 3339 form, for logs and error messages.
func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
