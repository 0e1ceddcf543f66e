package recurrence

import (
	"time"

	"github.com/cyp0633/librrule/internal/dateutil"
)

// iterate runs the generation loop for d, feeding occurrences to acc until
// the budget is spent, until is passed, acc asks to stop, no further period
// can match, or the cursor leaves the supported years. It reports whether
// generation ended on the year ceiling.
func iterate(d *descriptor, acc *iterResult) (ceiling bool) {
	count, counted := d.count.Get()
	if (counted && count == 0) || d.interval == 0 {
		return false
	}
	until, bounded := d.until.Get()

	c := cursorAt(d.dtstart)
	ym := newYearMask(d)
	ym.rebuild(c.year, c.month)
	arm := frequencyTable[d.freq]
	timeset := initialTimeset(d, c)

	// emit applies the bound and budget rules to one candidate and reports
	// whether generation continues. Candidates before the anchor are not
	// delivered; with BYSETPOS they still use up budget.
	emit := func(res time.Time, chargeEarly bool) bool {
		if bounded && res.After(until) {
			return false
		}
		if res.Before(d.dtstart) {
			if chargeEarly && counted {
				count--
				return count > 0
			}
			return true
		}
		if !acc.accept(rezone(res, d.loc)) {
			return false
		}
		if counted {
			count--
			return count > 0
		}
		return true
	}

	var days []int
	for {
		start, end := arm.dayset(ym, c.year, c.month, c.day)
		var filtered bool
		days, filtered = ym.filter(start, end, days)

		if len(d.bysetpos) > 0 {
			for _, res := range selectPositions(d.bysetpos, days, timeset, ym.yearOrdinal) {
				if !emit(res, true) {
					return false
				}
			}
		} else {
			for _, day := range days {
				for _, tod := range timeset {
					if !emit(combine(ym.yearOrdinal+day, tod), false) {
						return false
					}
				}
			}
		}

		if !arm.advance(&c, d, filtered) {
			return false
		}
		if c.year > dateutil.MaxYear {
			return true
		}
		if !d.freq.dailyOrCoarser() {
			timeset = arm.timeset(d, c)
		}
		ym.rebuild(c.year, c.month)
	}
}

// combine joins a day ordinal and a time of day into a naive instant.
func combine(ordinal int, tod timeOfDay) time.Time {
	y, m, d := dateutil.FromOrdinal(ordinal)
	return time.Date(y, time.Month(m), d, tod.hour, tod.minute, tod.second, tod.millisecond*int(time.Millisecond), time.UTC)
}
