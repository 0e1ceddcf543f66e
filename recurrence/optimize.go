package recurrence

import (
	"time"

	"github.com/cyp0633/librrule/internal/dateutil"
	"github.com/samber/mo"
)

// exclusionSet holds excluded instants keyed by Unix milliseconds.
type exclusionSet map[int64]struct{}

func newExclusionSet(times []time.Time) exclusionSet {
	if len(times) == 0 {
		return nil
	}
	set := make(exclusionSet, len(times))
	for _, t := range times {
		set[t.UnixMilli()] = struct{}{}
	}
	return set
}

func (s exclusionSet) contains(t time.Time) bool {
	_, ok := s[t.UnixMilli()]
	return ok
}

// optimize moves the anchor of d forward by whole intervals towards the
// query bound, so that a far-future query does not walk every period from
// the original anchor. It returns false when the rule or query is not
// eligible, in which case d must be used unchanged.
//
// Eligible rules carry no clause other than plain weekdays and run in UTC.
// When a budget is set, or the query only has an upper bound, skipped periods
// must each have produced exactly one occurrence, which rules out any clause
// at all and anchors on days some periods lack.
func optimize(d descriptor, res *iterResult, excl exclusionSet) (descriptor, bool) {
	if res.kind == queryAll || (d.loc != nil && d.loc != time.UTC) {
		return d, false
	}
	if d.given&^clausePlainWeekday != 0 {
		return d, false
	}
	if min, ok := res.min.Get(); ok && !min.After(d.dtstart) {
		return d, false
	}
	if max, ok := res.max.Get(); ok && !max.After(d.dtstart) {
		return d, false
	}
	bound, ok := res.bound()
	if !ok {
		return d, false
	}

	count, counted := d.count.Get()
	if (counted || res.kind == queryBefore) && !onePerPeriod(&d) {
		return d, false
	}

	k := wholeUnits(d.freq, d.dtstart, bound.UTC()) / d.interval
	if counted && k >= count {
		// Keep the last budgeted period in reach.
		k = count - 1
	}
	if k <= 0 {
		return d, false
	}

	// An exclusive before query must keep the occurrence preceding its bound.
	blocked := func(t time.Time) bool {
		return excl.contains(t) || (res.kind == queryBefore && !res.inc && t.Equal(bound))
	}
	start := addUnits(d.freq, d.dtstart, k*d.interval)
	for k > 0 && blocked(start) {
		k--
		start = addUnits(d.freq, d.dtstart, k*d.interval)
	}
	if k == 0 {
		return d, false
	}

	d.dtstart = start
	if counted {
		d.count = mo.Some(count - k)
	}
	return d, true
}

// onePerPeriod reports whether every period of an unrestricted rule yields
// exactly one occurrence.
func onePerPeriod(d *descriptor) bool {
	if d.given != 0 {
		return false
	}
	_, month, day := d.dtstart.Date()
	switch d.freq {
	case Yearly:
		return !(month == time.February && day == 29)
	case Monthly:
		return day <= 28
	}
	return true
}

var unitSeconds = map[Frequency]int64{
	Weekly:   7 * 24 * 60 * 60,
	Daily:    24 * 60 * 60,
	Hourly:   60 * 60,
	Minutely: 60,
	Secondly: 1,
}

// wholeUnits counts the complete frequency units between from and to, with
// from <= to. Years and months are compared field by field so that a unit
// only counts once to has reached the same day and time in it.
func wholeUnits(freq Frequency, from, to time.Time) int {
	switch freq {
	case Yearly:
		n := to.Year() - from.Year()
		if restOfYear(to) < restOfYear(from) {
			n--
		}
		return n
	case Monthly:
		n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
		if restOfMonth(to) < restOfMonth(from) {
			n--
		}
		return n
	}
	secs := to.Unix() - from.Unix()
	if to.Nanosecond() < from.Nanosecond() {
		secs--
	}
	return int(secs / unitSeconds[freq])
}

// restOfYear and restOfMonth encode the position within the unit as a
// sortable number of milliseconds.
func restOfYear(t time.Time) int64 {
	return int64(t.Month())*32*86400000 + restOfMonth(t)
}

func restOfMonth(t time.Time) int64 {
	return int64(t.Day())*86400000 + int64(t.Hour())*3600000 + int64(t.Minute())*60000 +
		int64(t.Second())*1000 + int64(t.Nanosecond()/int(time.Millisecond))
}

// addUnits adds n frequency units to t. Month and year steps clamp the day to
// the target month rather than spilling into the next one.
func addUnits(freq Frequency, t time.Time, n int) time.Time {
	switch freq {
	case Yearly, Monthly:
		months := n
		if freq == Yearly {
			months = n * 12
		}
		y, m := t.Year(), int(t.Month())-1+months
		y += m / 12
		m = m%12 + 1
		day := min(t.Day(), dateutil.DaysInMonth(y, m))
		return time.Date(y, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Daily:
		return t.AddDate(0, 0, n)
	}
	return time.Unix(t.Unix()+int64(n)*unitSeconds[freq], int64(t.Nanosecond())).UTC()
}
