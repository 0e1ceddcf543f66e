package recurrence

import (
	"sort"
	"time"

	"github.com/samber/mo"
)

// Options describes a recurrence rule the way RFC 5545 spells it out. Zero
// values mean "not given": Interval 0 is treated as 1, Count 0 as no budget,
// a zero Until as no end and a nil Location as UTC. A rule with an empty
// budget cannot be expressed; Count 1 is the smallest budget.
type Options struct {
	Freq     Frequency
	Dtstart  time.Time
	Interval int
	Wkst     Weekday
	Count    int
	Until    time.Time
	Location *time.Location

	Bysetpos   []int
	Bymonth    []int
	Bymonthday []int
	Byyearday  []int
	Byweekno   []int
	Byweekday  []Weekday
	Byhour     []int
	Byminute   []int
	Bysecond   []int
	Byeaster   []int
}

// clause flags record which BYxxx parts the caller supplied, before any
// defaults are filled in from the anchor.
type clause uint16

const (
	clauseSetpos clause = 1 << iota
	clauseMonth
	clauseMonthday
	clauseYearday
	clauseWeekno
	clausePlainWeekday
	clauseNthWeekday
	clauseHour
	clauseMinute
	clauseSecond
	clauseEaster
)

// timeOfDay is one entry of a time-set.
type timeOfDay struct {
	hour, minute, second, millisecond int
}

func (t timeOfDay) before(o timeOfDay) bool {
	if t.hour != o.hour {
		return t.hour < o.hour
	}
	if t.minute != o.minute {
		return t.minute < o.minute
	}
	if t.second != o.second {
		return t.second < o.second
	}
	return t.millisecond < o.millisecond
}

// descriptor is the normalized, validated form of Options the engine runs on.
// Instants are naive: their UTC fields carry the wall clock in loc.
type descriptor struct {
	freq     Frequency
	dtstart  time.Time
	interval int
	wkst     int
	count    mo.Option[int]
	until    mo.Option[time.Time]
	loc      *time.Location

	bysetpos    []int
	bymonth     []int
	bymonthday  []int
	bynmonthday []int
	byyearday   []int
	byweekno    []int
	byweekday   []int
	bynweekday  []Weekday
	byhour      []int
	byminute    []int
	bysecond    []int
	byeaster    []int

	given   clause
	timeset []timeOfDay
}

func newDescriptor(opts Options) (descriptor, error) {
	if err := validate(opts); err != nil {
		return descriptor{}, err
	}

	d := descriptor{
		freq:     opts.Freq,
		interval: opts.Interval,
		wkst:     opts.Wkst.Day,
		loc:      opts.Location,
	}
	if d.interval == 0 {
		d.interval = 1
	}
	if opts.Count > 0 {
		d.count = mo.Some(opts.Count)
	}
	d.dtstart = naive(opts.Dtstart, opts.Location).Truncate(time.Millisecond)
	if !opts.Until.IsZero() {
		d.until = mo.Some(naive(opts.Until, opts.Location))
	}

	d.bysetpos = clone(opts.Bysetpos)
	d.bymonth = clone(opts.Bymonth)
	d.byyearday = clone(opts.Byyearday)
	d.byweekno = clone(opts.Byweekno)
	d.byhour = clone(opts.Byhour)
	d.byminute = clone(opts.Byminute)
	d.bysecond = clone(opts.Bysecond)
	d.byeaster = clone(opts.Byeaster)
	d.given = givenClauses(opts)

	_, month, day := d.dtstart.Date()
	if len(opts.Byweekno) == 0 && len(opts.Byyearday) == 0 && len(opts.Bymonthday) == 0 &&
		len(opts.Byweekday) == 0 && len(opts.Byeaster) == 0 {
		switch d.freq {
		case Yearly:
			if len(d.bymonth) == 0 {
				d.bymonth = []int{int(month)}
			}
			opts.Bymonthday = []int{day}
		case Monthly:
			opts.Bymonthday = []int{day}
		case Weekly:
			opts.Byweekday = []Weekday{WeekdayOf(d.dtstart.Weekday())}
		}
	}

	for _, md := range opts.Bymonthday {
		if md > 0 {
			d.bymonthday = append(d.bymonthday, md)
		} else {
			d.bynmonthday = append(d.bynmonthday, md)
		}
	}

	for _, wd := range opts.Byweekday {
		if wd.Plain() || d.freq > Monthly {
			d.byweekday = append(d.byweekday, wd.Day)
		} else {
			d.bynweekday = append(d.bynweekday, wd)
		}
	}

	if len(d.byhour) == 0 && d.freq < Hourly {
		d.byhour = []int{d.dtstart.Hour()}
	}
	if len(d.byminute) == 0 && d.freq < Minutely {
		d.byminute = []int{d.dtstart.Minute()}
	}
	if len(d.bysecond) == 0 && d.freq < Secondly {
		d.bysecond = []int{d.dtstart.Second()}
	}

	if d.freq.dailyOrCoarser() {
		d.timeset = crossTimeset(d.byhour, d.byminute, d.bysecond, d.dtstart.Nanosecond()/int(time.Millisecond))
	}

	return d, nil
}

func validate(opts Options) error {
	if !opts.Freq.valid() {
		return invalidOptions("unknown frequency %d", int(opts.Freq))
	}
	if opts.Dtstart.IsZero() {
		return invalidOptions("dtstart is required")
	}
	if opts.Interval < 0 {
		return invalidOptions("interval must be positive, got %d", opts.Interval)
	}
	if opts.Count < 0 {
		return invalidOptions("count must not be negative, got %d", opts.Count)
	}
	if opts.Wkst.Day < 0 || opts.Wkst.Day > 6 {
		return invalidOptions("wkst out of range: %d", opts.Wkst.Day)
	}

	checks := []struct {
		name     string
		values   []int
		min, max int
		nonzero  bool
	}{
		{"bysetpos", opts.Bysetpos, -366, 366, true},
		{"bymonth", opts.Bymonth, 1, 12, false},
		{"bymonthday", opts.Bymonthday, -31, 31, true},
		{"byyearday", opts.Byyearday, -366, 366, true},
		{"byweekno", opts.Byweekno, -53, 53, true},
		{"byhour", opts.Byhour, 0, 23, false},
		{"byminute", opts.Byminute, 0, 59, false},
		{"bysecond", opts.Bysecond, 0, 59, false},
		{"byeaster", opts.Byeaster, -366, 366, false},
	}
	for _, c := range checks {
		for _, v := range c.values {
			if v < c.min || v > c.max || (c.nonzero && v == 0) {
				return invalidOptions("%s value out of range: %d", c.name, v)
			}
		}
	}

	for _, wd := range opts.Byweekday {
		if wd.Day < 0 || wd.Day > 6 {
			return invalidOptions("byweekday day out of range: %d", wd.Day)
		}
		if wd.N < -53 || wd.N > 53 {
			return invalidOptions("byweekday occurrence index out of range: %s", wd)
		}
	}
	return nil
}

func givenClauses(opts Options) clause {
	var c clause
	set := func(flag clause, n int) {
		if n > 0 {
			c |= flag
		}
	}
	set(clauseSetpos, len(opts.Bysetpos))
	set(clauseMonth, len(opts.Bymonth))
	set(clauseMonthday, len(opts.Bymonthday))
	set(clauseYearday, len(opts.Byyearday))
	set(clauseWeekno, len(opts.Byweekno))
	set(clauseHour, len(opts.Byhour))
	set(clauseMinute, len(opts.Byminute))
	set(clauseSecond, len(opts.Bysecond))
	set(clauseEaster, len(opts.Byeaster))
	for _, wd := range opts.Byweekday {
		if wd.Plain() {
			c |= clausePlainWeekday
		} else {
			c |= clauseNthWeekday
		}
	}
	return c
}

func crossTimeset(hours, minutes, seconds []int, millisecond int) []timeOfDay {
	set := make([]timeOfDay, 0, len(hours)*len(minutes)*len(seconds))
	for _, h := range hours {
		for _, m := range minutes {
			for _, s := range seconds {
				set = append(set, timeOfDay{hour: h, minute: m, second: s, millisecond: millisecond})
			}
		}
	}
	sortTimeset(set)
	return set
}

func sortTimeset(set []timeOfDay) {
	sort.Slice(set, func(i, j int) bool { return set[i].before(set[j]) })
}

// naive returns t's wall clock in loc as a UTC instant.
func naive(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	w := t.In(loc)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
}

// rezone maps a naive instant to the instant its wall clock denotes in loc.
// It is applied once per accepted occurrence.
func rezone(t time.Time, loc *time.Location) time.Time {
	if loc == nil || loc == time.UTC {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func clone[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return append([]T(nil), s...)
}
