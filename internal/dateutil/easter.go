package dateutil

// Easter returns the month and day of Gregorian Easter Sunday using the
// anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func Easter(year int) (month, day int) {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	n := h + l - 7*m + 114
	return n / 31, n%31 + 1
}

// EasterYearDay returns Easter Sunday as a 0-based offset from January 1st.
func EasterYearDay(year int) int {
	m, d := Easter(year)
	return ToOrdinal(year, m, d) - ToOrdinal(year, 1, 1)
}
