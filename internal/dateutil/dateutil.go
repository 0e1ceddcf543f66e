// Package dateutil holds the calendar arithmetic the recurrence engine is built on.
//
// Dates are handled as plain (year, month, day) triples and as ordinals, the
// number of days since 1970-01-01. Weekdays are numbered Monday = 0 through
// Sunday = 6 so that week-start offsets can be computed with PyMod.
package dateutil

import "time"

// MaxYear is the last year the engine will enumerate.
const MaxYear = 9999

const secondsPerDay = 24 * 60 * 60

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year has 366 days in the Gregorian calendar.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// YearLength returns 366 for leap years and 365 otherwise.
func YearLength(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// MonthRange returns the weekday of the first day of the month and the
// number of days in it.
func MonthRange(year, month int) (weekday, days int) {
	return Weekday(year, month, 1), DaysInMonth(year, month)
}

// ToOrdinal returns the number of days between 1970-01-01 and the given date.
func ToOrdinal(year, month, day int) int {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(floorDiv(t.Unix(), secondsPerDay))
}

// FromOrdinal is the inverse of ToOrdinal.
func FromOrdinal(ordinal int) (year, month, day int) {
	y, m, d := time.Unix(int64(ordinal)*secondsPerDay, 0).UTC().Date()
	return y, int(m), d
}

// Weekday returns the weekday of the date with Monday = 0.
func Weekday(year, month, day int) int {
	wd := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
	return PyMod(int(wd)-1, 7)
}

// PyMod returns a modulo b with the sign of b, so PyMod(-1, 7) == 6.
func PyMod(a, b int) int {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// DivMod returns floor(a/b) together with PyMod(a, b).
func DivMod(a, b int) (div, mod int) {
	mod = PyMod(a, b)
	return (a - mod) / b, mod
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
