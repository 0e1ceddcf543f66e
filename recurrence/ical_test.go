package recurrence

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

const weeklyEvent = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//librrule//test//EN
BEGIN:VEVENT
UID:weekly-1
SUMMARY:Weekly sync
DTSTART:19970902T090000Z
DTEND:19970902T100000Z
RRULE:FREQ=WEEKLY;COUNT=6;BYDAY=TU,TH
EXRULE:FREQ=YEARLY;COUNT=3;BYDAY=TH
RDATE:19971225T090000Z,19971226T090000Z
RDATE:19971231T090000Z
EXDATE;VALUE=DATE:19970916
END:VEVENT
END:VCALENDAR`

func TestDecodeEvent(t *testing.T) {
	event, err := DecodeEvent(weeklyEvent)
	require.NoError(t, err)
	uid, err := event.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "weekly-1", uid)

	_, err = DecodeEvent(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//librrule//test//EN
END:VCALENDAR`)
	assert.EqualError(t, err, "no events found in calendar")

	twoEvents := strings.Replace(weeklyEvent, "END:VCALENDAR", `BEGIN:VEVENT
UID:weekly-2
DTSTART:19970903T090000Z
END:VEVENT
END:VCALENDAR`, 1)
	_, err = DecodeEvent(twoEvents)
	assert.EqualError(t, err, "multiple events found in calendar")

	_, err = DecodeEvent("not a calendar")
	assert.Error(t, err)
}

func TestRecurrenceInfoFromComponent(t *testing.T) {
	event, err := DecodeEvent(weeklyEvent)
	require.NoError(t, err)

	info, err := RecurrenceInfoFromComponent(event)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=6;BYDAY=TU,TH", info.RRULE)
	assert.Equal(t, []string{"FREQ=YEARLY;COUNT=3;BYDAY=TH"}, info.EXRULE)
	assert.Equal(t, []time.Time{at(1997, 12, 25, 9, 0, 0), at(1997, 12, 26, 9, 0, 0), at(1997, 12, 31, 9, 0, 0)}, info.RDATE)
	assert.Equal(t, []time.Time{at(1997, 9, 16, 0, 0, 0)}, info.EXDATE)
	assert.Nil(t, info.RecurrenceID)
	assert.True(t, info.IsRecurring())
}

func TestRecurrenceInfoFromComponent_Empty(t *testing.T) {
	comp := ical.NewComponent(ical.CompEvent)
	info, err := RecurrenceInfoFromComponent(comp)
	require.NoError(t, err)

	assert.Empty(t, info.RRULE)
	assert.Empty(t, info.RDATE)
	assert.Empty(t, info.EXDATE)
	assert.Empty(t, info.EXRULE)
	assert.Nil(t, info.RecurrenceID)
}

func TestRecurrenceInfoFromComponent_Override(t *testing.T) {
	event, err := DecodeEvent(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//librrule//test//EN
BEGIN:VEVENT
UID:weekly-1
RECURRENCE-ID:19970904T090000Z
DTSTART:19970904T140000Z
DTEND:19970904T150000Z
END:VEVENT
END:VCALENDAR`)
	require.NoError(t, err)

	info, err := RecurrenceInfoFromComponent(event)
	require.NoError(t, err)
	require.NotNil(t, info.RecurrenceID)
	assert.Equal(t, at(1997, 9, 4, 9, 0, 0), *info.RecurrenceID)
	assert.False(t, info.IsRecurring())
}

func TestRecurrenceInfoFromComponent_Malformed(t *testing.T) {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.Add(&ical.Prop{Name: ical.PropRecurrenceDates, Value: "19970902T090000Z,garbage"})
	comp.Props.Add(&ical.Prop{Name: ical.PropExceptionDates, Value: "20240101"})
	comp.Props.Add(&ical.Prop{Name: "RECURRENCE-ID", Value: "yesterday"})

	info, err := RecurrenceInfoFromComponent(comp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RDATE")
	assert.Contains(t, err.Error(), "RECURRENCE-ID")

	// Values that parsed are kept
	assert.Equal(t, []time.Time{anchor}, info.RDATE)
	assert.Equal(t, []time.Time{at(2024, 1, 1, 0, 0, 0)}, info.EXDATE)
	assert.Nil(t, info.RecurrenceID)
}

func TestParseDateTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("time zone database not available")
	}

	tests := []struct {
		name   string
		value  string
		params ical.Params
		want   time.Time
	}{
		{"utc", "20240115T143000Z", nil, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"floating", "20240115T143000", nil, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"tzid", "20240115T143000", ical.Params{ical.PropTimezoneID: []string{"America/New_York"}}, time.Date(2024, 1, 15, 14, 30, 0, 0, ny)},
		{"date value", "20240115", ical.Params{ical.ParamValue: []string{"DATE"}}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"bare date", "20240115", nil, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateTime(tt.value, tt.params)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestTimeInfoFromComponent(t *testing.T) {
	newEvent := func(props map[string]string) *ical.Component {
		comp := ical.NewComponent(ical.CompEvent)
		for name, value := range props {
			prop := ical.NewProp(name)
			prop.Value = value
			if len(value) == 8 {
				prop.Params.Set(ical.ParamValue, string(ical.ValueDate))
			}
			comp.Props.Set(prop)
		}
		return comp
	}

	tests := []struct {
		name      string
		comp      *ical.Component
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}{
		{
			name:      "start and end",
			comp:      newEvent(map[string]string{ical.PropDateTimeStart: "20240101T090000Z", ical.PropDateTimeEnd: "20240101T100000Z"}),
			wantStart: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "duration",
			comp:      newEvent(map[string]string{ical.PropDateTimeStart: "20240101T090000Z", ical.PropDuration: "PT1H30M"}),
			wantStart: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "all-day without end",
			comp:      newEvent(map[string]string{ical.PropDateTimeStart: "20240101"}),
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "instant without end",
			comp:      newEvent(map[string]string{ical.PropDateTimeStart: "20240101T090000Z"}),
			wantStart: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:   "no start",
			comp:   newEvent(map[string]string{ical.PropSummary: "Nothing"}),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := TimeInfoFromComponent(tt.comp)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.wantStart.Equal(start), "start %s", start)
				assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
			}
		})
	}
}

func TestTimeInfoFromComponent_TodoDue(t *testing.T) {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetDateTime(ical.PropDue, time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC))

	start, end, ok := TimeInfoFromComponent(todo)
	require.True(t, ok)
	assert.Equal(t, start, end)
	assert.True(t, time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC).Equal(start))
}

func TestRuleFromComponent(t *testing.T) {
	event, err := DecodeEvent(weeklyEvent)
	require.NoError(t, err)

	rule, err := RuleFromComponent(event)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(1997, 9, 2, 9, 0, 0), at(1997, 9, 4, 9, 0, 0), at(1997, 9, 9, 9, 0, 0),
		at(1997, 9, 11, 9, 0, 0), at(1997, 9, 16, 9, 0, 0), at(1997, 9, 18, 9, 0, 0),
	}, millisToUTC(rule.All()))

	_, err = RuleFromComponent(ical.NewComponent(ical.CompEvent))
	assert.True(t, errors.Is(err, &Error{Type: ErrInvalidOptions}))

	single := ical.NewComponent(ical.CompEvent)
	single.Props.SetDateTime(ical.PropDateTimeStart, anchor)
	_, err = RuleFromComponent(single)
	assert.True(t, errors.Is(err, &Error{Type: ErrInvalidOptions}))
}

func TestParseRRULE(t *testing.T) {
	opts, err := ParseRRULE("RRULE:FREQ=MONTHLY;INTERVAL=2;BYDAY=-1FR;WKST=SU;UNTIL=19981231T000000Z", anchor)
	require.NoError(t, err)
	assert.Equal(t, Monthly, opts.Freq)
	assert.Equal(t, 2, opts.Interval)
	assert.Equal(t, SU, opts.Wkst)
	assert.Equal(t, []Weekday{FR.Nth(-1)}, opts.Byweekday)
	assert.True(t, at(1998, 12, 31, 0, 0, 0).Equal(opts.Until))
	assert.True(t, anchor.Equal(opts.Dtstart))
	assert.Nil(t, opts.Location)

	_, err = ParseRRULE("", anchor)
	assert.True(t, errors.Is(err, &Error{Type: ErrInvalidOptions}))

	_, err = ParseRRULE("FREQ=FORTNIGHTLY", anchor)
	assert.True(t, errors.Is(err, &Error{Type: ErrInvalidOptions}))
}

func TestOptionsROptionRoundTrip(t *testing.T) {
	opts := Options{
		Freq:      Yearly,
		Dtstart:   anchor,
		Interval:  2,
		Wkst:      SU,
		Count:     5,
		Bymonth:   []int{1, 3},
		Byweekday: []Weekday{TU.Nth(1), TH.Nth(-1), MO},
		Byhour:    []int{9},
		Byeaster:  []int{0},
	}

	ropt := opts.ROption()
	assert.Equal(t, rrule.YEARLY, ropt.Freq)
	assert.Equal(t, rrule.SU, ropt.Wkst)

	back, err := OptionsFromROption(&ropt)
	require.NoError(t, err)
	assert.Equal(t, opts, back)

	_, err = OptionsFromROption(nil)
	assert.True(t, errors.Is(err, &Error{Type: ErrInvalidOptions}))
}

func millisToUTC(times []time.Time) []time.Time {
	out := make([]time.Time, len(times))
	for i, t := range times {
		out[i] = time.UnixMilli(t.UnixMilli()).UTC()
	}
	return out
}
