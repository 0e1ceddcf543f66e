package recurrence

import (
	"slices"

	"github.com/cyp0633/librrule/internal/dateutil"
)

// yearMask classifies every day of the cursor's year. Arrays are indexed by
// the 0-based offset from January 1st.
type yearMask struct {
	d *descriptor

	year, month int // last rebuild; month is 0 before the first rebuild

	yearLen     int
	nextYearLen int
	yearOrdinal int
	yearWeekday int

	mmask     []int
	mdayMask  []int
	nmdayMask []int
	wdayMask  []int
	mrange    []int

	wnoMask    []bool // nil when no week-number clause
	nwdayMask  []bool // nil when no nth-weekday clause applies
	easterMask []bool // nil when no Easter clause
}

func newYearMask(d *descriptor) *yearMask {
	return &yearMask{d: d}
}

// rebuild prepares the masks for (year, month). Year-wide data is only
// recomputed when the year changes and the nth-weekday mask only when the
// month does.
func (ym *yearMask) rebuild(year, month int) {
	if year != ym.year || ym.month == 0 {
		ym.rebuildYear(year)
	}
	if len(ym.d.bynweekday) > 0 && (month != ym.month || year != ym.year) {
		ym.rebuildNthWeekday(month)
	}
	ym.year, ym.month = year, month
}

func (ym *yearMask) rebuildYear(year int) {
	d := ym.d

	ym.yearLen = dateutil.YearLength(year)
	ym.nextYearLen = dateutil.YearLength(year + 1)
	ym.yearOrdinal = dateutil.ToOrdinal(year, 1, 1)
	ym.yearWeekday = dateutil.Weekday(year, 1, 1)

	if ym.yearLen == 365 {
		ym.mmask, ym.mdayMask, ym.nmdayMask, ym.mrange = m365Mask, mday365Mask, nmday365Mask, m365Range
	} else {
		ym.mmask, ym.mdayMask, ym.nmdayMask, ym.mrange = m366Mask, mday366Mask, nmday366Mask, m366Range
	}
	ym.wdayMask = wdayMask[ym.yearWeekday:]

	ym.wnoMask = nil
	if len(d.byweekno) > 0 {
		ym.wnoMask = ym.buildWeekNoMask(year)
	}

	ym.easterMask = nil
	if len(d.byeaster) > 0 {
		ym.easterMask = make([]bool, ym.yearLen+7)
		easter := dateutil.EasterYearDay(year)
		for _, offset := range d.byeaster {
			if i := easter + offset; i >= 0 && i < len(ym.easterMask) {
				ym.easterMask[i] = true
			}
		}
	}

	// A new year invalidates the nth-weekday mask even within the same month.
	ym.nwdayMask = nil
}

// buildWeekNoMask marks the days that fall in a requested week number. Week 1
// is the first week with at least four days in the year, weeks starting on
// wkst. Days at the start of January may belong to the previous year's last
// week and days at the end of December to the next year's week 1.
func (ym *yearMask) buildWeekNoMask(year int) []bool {
	d := ym.d
	mask := make([]bool, ym.yearLen+7)

	firstWkst := dateutil.PyMod(7-ym.yearWeekday+d.wkst, 7)
	no1Wkst := firstWkst
	var wyearLen int
	if no1Wkst >= 4 {
		no1Wkst = 0
		// Week 1 starts in the previous year; count its days in this year's length.
		wyearLen = ym.yearLen + dateutil.PyMod(ym.yearWeekday-d.wkst, 7)
	} else {
		wyearLen = ym.yearLen - no1Wkst
	}
	div, mod := dateutil.DivMod(wyearLen, 7)
	numWeeks := div + mod/4

	markWeek := func(i int) {
		for j := 0; j < 7; j++ {
			mask[i] = true
			i++
			if ym.wdayMask[i] == d.wkst {
				break
			}
		}
	}

	for _, n := range d.byweekno {
		if n < 0 {
			n += numWeeks + 1
		}
		if n <= 0 || n > numWeeks {
			continue
		}
		var i int
		if n > 1 {
			i = no1Wkst + (n-1)*7
			if no1Wkst != firstWkst {
				i -= 7 - firstWkst
			}
		} else {
			i = no1Wkst
		}
		markWeek(i)
	}

	if slices.Contains(d.byweekno, 1) {
		// Week 1 of next year may begin in this year's last days.
		i := no1Wkst + numWeeks*7
		if no1Wkst != firstWkst {
			i -= 7 - firstWkst
		}
		if i < ym.yearLen {
			markWeek(i)
		}
	}

	if no1Wkst > 0 {
		// The days before this year's week 1 belong to last year's final week.
		var lastNumWeeks int
		if !slices.Contains(d.byweekno, -1) {
			lastYearWeekday := dateutil.Weekday(year-1, 1, 1)
			lastNo1Wkst := dateutil.PyMod(7-lastYearWeekday+d.wkst, 7)
			lastYearLen := dateutil.YearLength(year - 1)
			if lastNo1Wkst >= 4 {
				lastNumWeeks = 52 + dateutil.PyMod(lastYearLen+dateutil.PyMod(lastYearWeekday-d.wkst, 7), 7)/4
			} else {
				lastNumWeeks = 52 + dateutil.PyMod(ym.yearLen-no1Wkst, 7)/4
			}
		} else {
			lastNumWeeks = -1
		}
		if slices.Contains(d.byweekno, lastNumWeeks) {
			for i := 0; i < no1Wkst; i++ {
				mask[i] = true
			}
		}
	}

	return mask
}

// rebuildNthWeekday marks the days matching an nth-weekday entry, counted
// within the month for MONTHLY rules and within each requested month (or the
// whole year) for YEARLY rules.
func (ym *yearMask) rebuildNthWeekday(month int) {
	d := ym.d

	var ranges [][2]int
	switch d.freq {
	case Yearly:
		if len(d.bymonth) > 0 {
			for _, m := range d.bymonth {
				ranges = append(ranges, [2]int{ym.mrange[m-1], ym.mrange[m]})
			}
		} else {
			ranges = [][2]int{{0, ym.yearLen}}
		}
	case Monthly:
		ranges = [][2]int{{ym.mrange[month-1], ym.mrange[month]}}
	}

	ym.nwdayMask = nil
	if len(ranges) == 0 {
		return
	}

	ym.nwdayMask = make([]bool, ym.yearLen)
	for _, r := range ranges {
		first, last := r[0], r[1]-1
		for _, wd := range d.bynweekday {
			var i int
			if wd.N < 0 {
				i = last + (wd.N+1)*7
				if i < first {
					continue
				}
				i -= dateutil.PyMod(ym.wdayMask[i]-wd.Day, 7)
			} else {
				i = first + (wd.N-1)*7
				if i > last {
					continue
				}
				i += dateutil.PyMod(7-ym.wdayMask[i]+wd.Day, 7)
			}
			if first <= i && i <= last {
				ym.nwdayMask[i] = true
			}
		}
	}
}
