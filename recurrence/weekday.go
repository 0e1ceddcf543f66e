package recurrence

import (
	"fmt"
	"time"
)

// Weekday is a BYDAY entry. A zero N means "every such weekday"; a non-zero N
// selects the Nth occurrence within the month or year (negative counts from
// the end).
type Weekday struct {
	Day int // Monday = 0 ... Sunday = 6
	N   int
}

var (
	MO = Weekday{Day: 0}
	TU = Weekday{Day: 1}
	WE = Weekday{Day: 2}
	TH = Weekday{Day: 3}
	FR = Weekday{Day: 4}
	SA = Weekday{Day: 5}
	SU = Weekday{Day: 6}
)

var weekdayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Nth returns the same weekday restricted to its nth occurrence.
func (w Weekday) Nth(n int) Weekday {
	return Weekday{Day: w.Day, N: n}
}

// Plain reports whether the entry carries no occurrence index.
func (w Weekday) Plain() bool {
	return w.N == 0
}

func (w Weekday) String() string {
	code := "??"
	if w.Day >= 0 && w.Day < 7 {
		code = weekdayCodes[w.Day]
	}
	if w.N == 0 {
		return code
	}
	return fmt.Sprintf("%+d%s", w.N, code)
}

// WeekdayOf converts a time.Weekday to the Monday-based numbering.
func WeekdayOf(d time.Weekday) Weekday {
	return Weekday{Day: (int(d) + 6) % 7}
}
