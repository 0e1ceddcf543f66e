package recurrence

import "slices"

// filter returns the offsets in [start, end) that pass every active clause,
// reusing buf's storage. filtered reports whether any day was dropped.
func (ym *yearMask) filter(start, end int, buf []int) (days []int, filtered bool) {
	days = buf[:0]
	for day := start; day < end; day++ {
		if ym.excluded(day) {
			filtered = true
			continue
		}
		days = append(days, day)
	}
	return days, filtered
}

func (ym *yearMask) excluded(day int) bool {
	d := ym.d

	if len(d.bymonth) > 0 && !slices.Contains(d.bymonth, ym.mmask[day]) {
		return true
	}
	if ym.wnoMask != nil && !ym.wnoMask[day] {
		return true
	}
	if len(d.byweekday) > 0 && !slices.Contains(d.byweekday, ym.wdayMask[day]) {
		return true
	}
	if ym.nwdayMask != nil && (day >= len(ym.nwdayMask) || !ym.nwdayMask[day]) {
		return true
	}
	if ym.easterMask != nil && !ym.easterMask[day] {
		return true
	}
	if (len(d.bymonthday) > 0 || len(d.bynmonthday) > 0) &&
		!slices.Contains(d.bymonthday, ym.mdayMask[day]) &&
		!slices.Contains(d.bynmonthday, ym.nmdayMask[day]) {
		return true
	}
	if len(d.byyearday) > 0 {
		// Offsets past the year's end belong to next January; express them
		// against next year's length so that -1 stays the last day of a year.
		if day < ym.yearLen {
			return !slices.Contains(d.byyearday, day+1) &&
				!slices.Contains(d.byyearday, day-ym.yearLen)
		}
		return !slices.Contains(d.byyearday, day+1-ym.yearLen) &&
			!slices.Contains(d.byyearday, day-ym.yearLen-ym.nextYearLen)
	}
	return false
}
