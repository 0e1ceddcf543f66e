package recurrence

// Per-day lookup tables for a 365 and a 366 day year. Every table carries
// seven extra entries for the first days of January of the following year,
// which a weekly window starting late in December reaches into.
var (
	m366Mask, m365Mask         []int
	mday366Mask, mday365Mask   []int
	nmday366Mask, nmday365Mask []int
	wdayMask                   []int

	m366Range = []int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335, 366}
	m365Range = []int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}
)

func init() {
	lengths366 := []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

	for month, n := range lengths366 {
		for day := 1; day <= n; day++ {
			m366Mask = append(m366Mask, month+1)
			mday366Mask = append(mday366Mask, day)
			nmday366Mask = append(nmday366Mask, day-n-1)
		}
	}
	for day := 1; day <= 7; day++ {
		m366Mask = append(m366Mask, 1)
		mday366Mask = append(mday366Mask, day)
		nmday366Mask = append(nmday366Mask, day-32)
	}

	// The 365 day tables drop February 29th (offset 59).
	m365Mask = withoutIndex(m366Mask, 59)
	mday365Mask = withoutIndex(mday366Mask, 59)
	nmday365Mask = withoutIndex(nmday366Mask, 31)

	// 55 weeks cover a 366 day year starting on any weekday plus the spill.
	wdayMask = make([]int, 0, 7*55)
	for i := 0; i < 55; i++ {
		wdayMask = append(wdayMask, 0, 1, 2, 3, 4, 5, 6)
	}
}

func withoutIndex(s []int, i int) []int {
	out := make([]int, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
