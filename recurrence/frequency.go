package recurrence

// Frequency is the coarse repeating unit of a rule. Lower values are coarser.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var frequencyNames = [...]string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY", "HOURLY", "MINUTELY", "SECONDLY"}

func (f Frequency) String() string {
	if !f.valid() {
		return "UNKNOWN"
	}
	return frequencyNames[f]
}

func (f Frequency) valid() bool {
	return f >= Yearly && f <= Secondly
}

// dailyOrCoarser reports whether one period spans at least a whole day.
func (f Frequency) dailyOrCoarser() bool {
	return f <= Daily
}

// ParseFrequency maps an RFC 5545 FREQ value to a Frequency.
func ParseFrequency(s string) (Frequency, bool) {
	for i, name := range frequencyNames {
		if name == s {
			return Frequency(i), true
		}
	}
	return 0, false
}
