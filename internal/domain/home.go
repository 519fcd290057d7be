package domain

import (
	"sort"
	"time"
)

// UpcomingTrips returns trips that start after now, soonest first, capped at
// limit. A limit <= 0 means no cap. The input slice is not modified.
func UpcomingTrips(trips []Trip, now time.Time, limit int) []Trip {
	out := make([]Trip, 0, len(trips))
	for _, t := range trips {
		if t.StartDate.After(now) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// OngoingTrips returns trips whose date range contains now. The end date is
// inclusive: a trip ending today is still ongoing until midnight UTC.
func OngoingTrips(trips []Trip, now time.Time) []Trip {
	out := make([]Trip, 0)
	for _, t := range trips {
		endExclusive := t.EndDate.AddDate(0, 0, 1)
		if !t.StartDate.After(now) && now.Before(endExclusive) {
			out = append(out, t)
		}
	}
	return out
}
