package recurrence

import (
	"slices"

	"github.com/cyp0633/librrule/internal/dateutil"
)

// daysetFunc returns the window [start, end) of year-day offsets that make up
// the period containing the cursor date.
type daysetFunc func(ym *yearMask, year, month, day int) (start, end int)

// timesetFunc returns the times of day for a sub-daily period starting at c.
type timesetFunc func(d *descriptor, c cursor) []timeOfDay

// advanceFunc moves the cursor to the next period. It reports false when no
// further period can match, which ends generation.
type advanceFunc func(c *cursor, d *descriptor, filtered bool) bool

type frequencyArm struct {
	dayset  daysetFunc
	timeset timesetFunc
	advance advanceFunc
}

// frequencyTable holds one arm per Frequency. Sub-daily arms carry a time-set
// generator; coarser ones use the descriptor's precomputed time-set.
var frequencyTable = [...]frequencyArm{
	Yearly:   {dayset: yearDayset, advance: advanceYears},
	Monthly:  {dayset: monthDayset, advance: advanceMonths},
	Weekly:   {dayset: weekDayset, advance: advanceWeeks},
	Daily:    {dayset: singleDayset, advance: advanceDays},
	Hourly:   {dayset: singleDayset, timeset: hourTimeset, advance: advanceHours},
	Minutely: {dayset: singleDayset, timeset: minuteTimeset, advance: advanceMinutes},
	Secondly: {dayset: singleDayset, timeset: secondTimeset, advance: advanceSeconds},
}

func yearDayset(ym *yearMask, _, _, _ int) (int, int) {
	return 0, ym.yearLen
}

func monthDayset(ym *yearMask, _, month, _ int) (int, int) {
	return ym.mrange[month-1], ym.mrange[month]
}

func weekDayset(ym *yearMask, year, month, day int) (int, int) {
	// The first week may be partial when the anchor is not on wkst; every
	// later cursor is aligned to wkst by advanceWeeks.
	i := dateutil.ToOrdinal(year, month, day) - ym.yearOrdinal
	start := i
	for j := 0; j < 7; j++ {
		i++
		if ym.wdayMask[i] == ym.d.wkst {
			break
		}
	}
	return start, i
}

func singleDayset(ym *yearMask, year, month, day int) (int, int) {
	i := dateutil.ToOrdinal(year, month, day) - ym.yearOrdinal
	return i, i + 1
}

func hourTimeset(d *descriptor, c cursor) []timeOfDay {
	set := make([]timeOfDay, 0, len(d.byminute)*len(d.bysecond))
	for _, m := range d.byminute {
		for _, s := range d.bysecond {
			set = append(set, timeOfDay{hour: c.hour, minute: m, second: s, millisecond: c.millisecond})
		}
	}
	sortTimeset(set)
	return set
}

func minuteTimeset(d *descriptor, c cursor) []timeOfDay {
	set := make([]timeOfDay, 0, len(d.bysecond))
	for _, s := range d.bysecond {
		set = append(set, timeOfDay{hour: c.hour, minute: c.minute, second: s, millisecond: c.millisecond})
	}
	sortTimeset(set)
	return set
}

func secondTimeset(_ *descriptor, c cursor) []timeOfDay {
	return []timeOfDay{{hour: c.hour, minute: c.minute, second: c.second, millisecond: c.millisecond}}
}

// initialTimeset is the time-set of the anchor's own period. A sub-daily
// anchor whose hour, minute or second is excluded by a clause contributes
// nothing; later periods are only entered on matching values.
func initialTimeset(d *descriptor, c cursor) []timeOfDay {
	if d.freq.dailyOrCoarser() {
		return d.timeset
	}
	if (d.freq >= Hourly && len(d.byhour) > 0 && !slices.Contains(d.byhour, c.hour)) ||
		(d.freq >= Minutely && len(d.byminute) > 0 && !slices.Contains(d.byminute, c.minute)) ||
		(d.freq >= Secondly && len(d.bysecond) > 0 && !slices.Contains(d.bysecond, c.second)) {
		return nil
	}
	return frequencyTable[d.freq].timeset(d, c)
}
