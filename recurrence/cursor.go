package recurrence

import (
	"slices"
	"time"

	"github.com/cyp0633/librrule/internal/dateutil"
)

// cursor is the driver's position. It only ever moves forward.
type cursor struct {
	year, month, day     int
	hour, minute, second int
	millisecond          int
}

func cursorAt(t time.Time) cursor {
	return cursor{
		year:        t.Year(),
		month:       int(t.Month()),
		day:         t.Day(),
		hour:        t.Hour(),
		minute:      t.Minute(),
		second:      t.Second(),
		millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}

func advanceYears(c *cursor, d *descriptor, _ bool) bool {
	c.year += d.interval
	return true
}

func advanceMonths(c *cursor, d *descriptor, _ bool) bool {
	c.month += d.interval
	if c.month > 12 {
		div, mod := dateutil.DivMod(c.month, 12)
		c.month = mod
		c.year += div
		if c.month == 0 {
			c.month = 12
			c.year--
		}
	}
	return true
}

// advanceWeeks jumps to the wkst-aligned start of the week interval weeks on.
func advanceWeeks(c *cursor, d *descriptor, _ bool) bool {
	wd := dateutil.Weekday(c.year, c.month, c.day)
	if d.wkst > wd {
		c.day += -(wd + 1 + (6 - d.wkst)) + d.interval*7
	} else {
		c.day += -(wd - d.wkst) + d.interval*7
	}
	c.fixDay()
	return true
}

func advanceDays(c *cursor, d *descriptor, _ bool) bool {
	c.addDays(d.interval)
	return true
}

// advanceHours steps by interval hours until the hour passes the BYHOUR
// clause. A filtered day is skipped by first jumping to its last step. The
// hour sequence repeats after 24 steps, so a miss after that many is final.
func advanceHours(c *cursor, d *descriptor, filtered bool) bool {
	iv := d.interval
	if filtered {
		c.hour += ((23 - c.hour) / iv) * iv
	}
	for tries := 0; tries < 24; tries++ {
		c.hour += iv
		c.carryHours()
		if matches(d.byhour, c.hour) {
			return true
		}
	}
	return false
}

func advanceMinutes(c *cursor, d *descriptor, filtered bool) bool {
	iv := d.interval
	if filtered {
		c.minute += ((1439 - (c.hour*60 + c.minute)) / iv) * iv
	}
	for tries := 0; tries < 24*60; tries++ {
		c.minute += iv
		c.carryMinutes()
		if matches(d.byhour, c.hour) && matches(d.byminute, c.minute) {
			return true
		}
	}
	return false
}

func advanceSeconds(c *cursor, d *descriptor, filtered bool) bool {
	iv := d.interval
	if filtered {
		c.second += ((86399 - (c.hour*3600 + c.minute*60 + c.second)) / iv) * iv
	}
	for tries := 0; tries < 24*60*60; tries++ {
		c.second += iv
		div, mod := dateutil.DivMod(c.second, 60)
		c.second = mod
		if div != 0 {
			c.minute += div
			c.carryMinutes()
		}
		if matches(d.byhour, c.hour) && matches(d.byminute, c.minute) && matches(d.bysecond, c.second) {
			return true
		}
	}
	return false
}

func (c *cursor) carryMinutes() {
	div, mod := dateutil.DivMod(c.minute, 60)
	c.minute = mod
	if div != 0 {
		c.hour += div
		c.carryHours()
	}
}

func (c *cursor) carryHours() {
	div, mod := dateutil.DivMod(c.hour, 24)
	c.hour = mod
	if div != 0 {
		c.addDays(div)
	}
}

func (c *cursor) addDays(n int) {
	c.day += n
	c.fixDay()
}

// fixDay rolls an overflowing day into the following months.
func (c *cursor) fixDay() {
	if c.day <= 28 {
		return
	}
	days := dateutil.DaysInMonth(c.year, c.month)
	for c.day > days {
		c.day -= days
		c.month++
		if c.month == 13 {
			c.month = 1
			c.year++
			if c.year > dateutil.MaxYear {
				return
			}
		}
		days = dateutil.DaysInMonth(c.year, c.month)
	}
}

func matches(clause []int, v int) bool {
	return len(clause) == 0 || slices.Contains(clause, v)
}
