package recurrence

import (
	"time"
)

// RecurrenceInfo contains all recurrence-related information for an event
type RecurrenceInfo struct {
	RRULE        string      // The RRULE value (without "RRULE:" prefix)
	RDATE        []time.Time // Additional recurrence dates
	EXDATE       []time.Time // Exception dates (excluded occurrences)
	EXRULE       []string    // Exception rules, anchored like RRULE
	RecurrenceID *time.Time  // For exception instances - which occurrence this overrides
}

// IsRecurring reports whether the info describes more than a single instance
func (r RecurrenceInfo) IsRecurring() bool {
	return r.RRULE != "" || len(r.RDATE) > 0
}

// TimeOccurrence represents a single occurrence of an event in time
type TimeOccurrence struct {
	Start        time.Time  // Start time of this occurrence
	End          time.Time  // End time of this occurrence
	IsException  bool       // True if this is an exception/override instance
	RecurrenceID *time.Time // If this is an exception, the original occurrence time
}

// overlaps uses the inclusive overlap test start <= rangeEnd AND end >= rangeStart
func overlaps(start, end, rangeStart, rangeEnd time.Time) bool {
	return !start.After(rangeEnd) && !end.Before(rangeStart)
}

// SafeTimeDeref safely dereferences a time pointer, returning defaultTime if nil
func SafeTimeDeref(t *time.Time, defaultTime time.Time) time.Time {
	if t == nil {
		return defaultTime
	}
	return *t
}
