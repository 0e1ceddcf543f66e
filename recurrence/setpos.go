package recurrence

import (
	"slices"
	"time"
)

// selectPositions resolves BYSETPOS against one period. The candidates are
// the surviving days crossed with the time-set, in chronological order.
// Positions outside the candidate list are dropped; the result is sorted and
// free of duplicates.
func selectPositions(bysetpos []int, days []int, timeset []timeOfDay, yearOrdinal int) []time.Time {
	n := len(days) * len(timeset)
	if n == 0 {
		return nil
	}

	selected := make([]time.Time, 0, len(bysetpos))
	for _, pos := range bysetpos {
		idx := pos - 1
		if pos < 0 {
			idx = n + pos
		}
		if idx < 0 || idx >= n {
			continue
		}
		day := days[idx/len(timeset)]
		res := combine(yearOrdinal+day, timeset[idx%len(timeset)])
		if !slices.ContainsFunc(selected, res.Equal) {
			selected = append(selected, res)
		}
	}

	slices.SortFunc(selected, func(a, b time.Time) int { return a.Compare(b) })
	return selected
}
